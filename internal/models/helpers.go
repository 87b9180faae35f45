package models

import (
	"fmt"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// RoomTable is the SurrealDB table holding rooms.
const RoomTable = "room"

// RecordIDString extracts the string key from a SurrealDB RecordID.
// Returns an error if the key is not a string.
func RecordIDString(id surrealmodels.RecordID) (string, error) {
	s, ok := id.ID.(string)
	if !ok {
		return "", fmt.Errorf("unexpected ID type: %T (expected string)", id.ID)
	}
	return s, nil
}

// RoomRecordID builds the SurrealDB record id for a room key.
func RoomRecordID(id string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(RoomTable, id)
}
