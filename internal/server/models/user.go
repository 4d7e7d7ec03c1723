// Package models defines server-side data models persisted in the database.
package models

import (
	"encoding/json"
	"time"
)

// User is a registered account.
type User struct {
	ID       string
	UserName string
	// Email is stored trimmed and lowercased.
	Email string
	// PasswordHash is produced by the password package and never leaves the server.
	PasswordHash string
	// ManagerID links the account to a fantasy-league manager entry.
	ManagerID *int64

	// ManagerHistory is the last successfully fetched {history, entry} document.
	ManagerHistory   json.RawMessage
	HistoryUpdatedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
