package types

import (
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// UserID is the stable external identifier of a chat user. For Microsoft
// Teams this is the 29:-prefixed channel account ID, not the AAD object ID.
type UserID string

// String returns the string representation of the user ID
func (x UserID) String() string {
	return string(x)
}

// Validate checks if the user ID is valid
func (x UserID) Validate() error {
	if x == "" {
		return goerr.New("user ID is empty")
	}
	return nil
}

// TaskID identifies a scheduled task. It is derived from the owning user ID
// and the creation timestamp so IDs stay stable across restarts.
type TaskID string

// NewTaskID derives a task ID from the owning user and creation time
func NewTaskID(userID UserID, createdAt time.Time) TaskID {
	return TaskID(fmt.Sprintf("%s_%d", userID, createdAt.UnixNano()))
}

// String returns the string representation of the task ID
func (x TaskID) String() string {
	return string(x)
}

// Validate checks if the task ID is valid
func (x TaskID) Validate() error {
	if x == "" {
		return goerr.New("task ID is empty")
	}
	return nil
}
