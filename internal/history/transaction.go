// Package history keeps the undo/redo ledger of completed file operations in
// a sqlite database.
package history

import (
	"time"

	"github.com/google/uuid"
)

// Type is the kind of change a transaction records.
type Type string

// Transaction types.
const (
	TypeCopy      Type = "copy"
	TypeMove      Type = "move"
	TypeRename    Type = "rename"
	TypeDelete    Type = "delete"
	TypeNewFolder Type = "new_folder"
	TypeRestore   Type = "restore"
)

// Details describes what a transaction touched. Which fields are set depends
// on the Type: Copy/Move/Delete use Paths and TargetDir, Rename uses OldPath
// and NewPath, NewFolder uses CreatedFiles.
type Details struct {
	Paths        []string `json:"paths"`
	TargetDir    string   `json:"target_dir,omitempty"`
	OldPath      string   `json:"old_path,omitempty"`
	NewPath      string   `json:"new_path,omitempty"`
	CreatedFiles []string `json:"created_files,omitempty"`
}

// Transaction is one undoable change.
type Transaction struct {
	ID        string
	Timestamp time.Time
	Type      Type
	Details   Details
}

// NewTransaction stamps a transaction with a fresh id and the current time.
func NewTransaction(kind Type, details Details) Transaction {
	return Transaction{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Type:      kind,
		Details:   details,
	}
}

// State is a copy of both stacks, oldest first.
type State struct {
	Undo []Transaction
	Redo []Transaction
}
