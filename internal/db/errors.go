package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/chatroom-go/internal/store"
	"github.com/surrealdb/surrealdb.go"
)

// ErrTransactionConflict indicates concurrent writers collided on the same record.
// The SurrealDB engine retries internally; callers only see it once that gives up.
var ErrTransactionConflict = errors.New("transaction conflict")

// wrapQueryError maps a SurrealDB error onto the store sentinels.
// Every fault that is not a missing record counts as the store being unavailable.
func wrapQueryError(op string, err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		msg := queryErr.Message
		if strings.Contains(msg, "Transaction conflict") {
			return store.Unavailable(op, fmt.Errorf("%w: %s", ErrTransactionConflict, msg))
		}
	}

	return store.Unavailable(op, err)
}
