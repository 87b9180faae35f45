package db

// SchemaSQL defines the room table. Chats live inside the room document so the
// append is a single-record update.
const SchemaSQL = `
    DEFINE TABLE IF NOT EXISTS room SCHEMALESS;
    DEFINE FIELD IF NOT EXISTS title ON room TYPE string;
    DEFINE FIELD IF NOT EXISTS users ON room TYPE array<object> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS chats ON room TYPE array<object> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS created ON room TYPE datetime DEFAULT time::now();
`
