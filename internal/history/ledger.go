package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MaxUndo is the number of undo entries kept; older ones are dropped.
const MaxUndo = 100

const (
	stackUndo = "undo"
	stackRedo = "redo"
)

type entry struct {
	Seq       int64     `gorm:"primaryKey;autoIncrement"`
	Stack     string    `gorm:"index;not null"`
	TxID      string    `gorm:"not null"`
	Timestamp time.Time `gorm:"not null"`
	Type      string    `gorm:"not null"`
	Details   Details   `gorm:"serializer:json"`
}

func (entry) TableName() string {
	return "history_entries"
}

func (e entry) transaction() Transaction {
	return Transaction{
		ID:        e.TxID,
		Timestamp: e.Timestamp,
		Type:      Type(e.Type),
		Details:   e.Details,
	}
}

func newEntry(stack string, tx Transaction) *entry {
	return &entry{
		Stack:     stack,
		TxID:      tx.ID,
		Timestamp: tx.Timestamp,
		Type:      string(tx.Type),
		Details:   tx.Details,
	}
}

// Ledger persists the undo and redo stacks.
type Ledger struct {
	db *gorm.DB
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path+"?_journal_mode=WAL&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get history connection: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	err = db.AutoMigrate(&entry{})
	if err != nil {
		_ = sqlDB.Close()

		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get history connection: %w", err)
	}

	err = sqlDB.Close()
	if err != nil {
		return fmt.Errorf("failed to close history database: %w", err)
	}

	return nil
}

// Record pushes tx on the undo stack and clears the redo stack. The undo
// stack is trimmed to the newest MaxUndo entries.
func (l *Ledger) Record(tx Transaction) error {
	err := l.db.Transaction(func(db *gorm.DB) error {
		err := db.Create(newEntry(stackUndo, tx)).Error
		if err != nil {
			return err //nolint:wrapcheck // wrapped below
		}

		err = db.Where("stack = ?", stackRedo).Delete(&entry{}).Error
		if err != nil {
			return err //nolint:wrapcheck // wrapped below
		}

		return trimUndo(db)
	})
	if err != nil {
		return fmt.Errorf("failed to record transaction %s: %w", tx.ID, err)
	}

	return nil
}

// PushUndo pushes tx on the undo stack without touching the redo stack, as
// when a redone transaction goes back to undo.
func (l *Ledger) PushUndo(tx Transaction) error {
	err := l.db.Transaction(func(db *gorm.DB) error {
		err := db.Create(newEntry(stackUndo, tx)).Error
		if err != nil {
			return err //nolint:wrapcheck // wrapped below
		}

		return trimUndo(db)
	})
	if err != nil {
		return fmt.Errorf("failed to push undo %s: %w", tx.ID, err)
	}

	return nil
}

// PushRedo pushes tx on the redo stack.
func (l *Ledger) PushRedo(tx Transaction) error {
	err := l.db.Create(newEntry(stackRedo, tx)).Error
	if err != nil {
		return fmt.Errorf("failed to push redo %s: %w", tx.ID, err)
	}

	return nil
}

// PopUndo removes and returns the newest undo transaction.
func (l *Ledger) PopUndo() (Transaction, bool, error) {
	return l.pop(stackUndo)
}

// PopRedo removes and returns the newest redo transaction.
func (l *Ledger) PopRedo() (Transaction, bool, error) {
	return l.pop(stackRedo)
}

// State returns both stacks, oldest first.
func (l *Ledger) State() (State, error) {
	var rows []entry

	err := l.db.Order("seq asc").Find(&rows).Error
	if err != nil {
		return State{}, fmt.Errorf("failed to load history: %w", err)
	}

	state := State{Undo: []Transaction{}, Redo: []Transaction{}}

	for _, row := range rows {
		if row.Stack == stackUndo {
			state.Undo = append(state.Undo, row.transaction())
		} else {
			state.Redo = append(state.Redo, row.transaction())
		}
	}

	return state, nil
}

// Clear empties both stacks.
func (l *Ledger) Clear() error {
	err := l.db.Where("1 = 1").Delete(&entry{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	return nil
}

func (l *Ledger) pop(stack string) (Transaction, bool, error) {
	var row entry

	err := l.db.Transaction(func(db *gorm.DB) error {
		err := db.Where("stack = ?", stack).Order("seq desc").First(&row).Error
		if err != nil {
			return err //nolint:wrapcheck // classified below
		}

		return db.Delete(&row).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Transaction{}, false, nil
	}

	if err != nil {
		return Transaction{}, false, fmt.Errorf("failed to pop %s: %w", stack, err)
	}

	return row.transaction(), true, nil
}

func trimUndo(db *gorm.DB) error {
	var count int64

	err := db.Model(&entry{}).Where("stack = ?", stackUndo).Count(&count).Error
	if err != nil {
		return err //nolint:wrapcheck // wrapped by caller
	}

	if count <= MaxUndo {
		return nil
	}

	var oldest []int64

	err = db.Model(&entry{}).Where("stack = ?", stackUndo).Order("seq asc").
		Limit(int(count-MaxUndo)).Pluck("seq", &oldest).Error
	if err != nil {
		return err //nolint:wrapcheck // wrapped by caller
	}

	return db.Where("seq IN ?", oldest).Delete(&entry{}).Error
}
