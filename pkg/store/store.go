// Package store persists export reports: the text of every node at the time
// an Export node was triggered, plus the state of its PDF conversion.
//
// Two backends implement [Store]:
//   - [FileStore]: JSON files under a directory, for the CLI
//   - [MongoStore]: a MongoDB collection, for the proxy server
//
// # Usage
//
//	st, err := store.NewFileStore("")  // ~/.local/share/storyboard/reports
//	rep := store.NewReport("Storyboard", body)
//	err = st.Save(ctx, rep)
//
//	reps, err := st.List(ctx, 10)  // newest first
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("report not found")

// Report states.
const (
	StatusCreated    = "created"
	StatusConverting = "converting"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusOffline    = "offline"
)

// Report is one export of the canvas.
type Report struct {
	ID         string    `json:"id" bson:"_id"`
	Title      string    `json:"title" bson:"title"`
	Body       string    `json:"body" bson:"body"`
	Status     string    `json:"status" bson:"status"`
	TaskID     string    `json:"task_id,omitempty" bson:"task_id,omitempty"`
	DocumentID string    `json:"document_id,omitempty" bson:"document_id,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// NewReport creates a report with a fresh random id in the created state.
func NewReport(title, body string) *Report {
	now := time.Now().UTC()
	return &Report{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Store saves and loads reports. Implementations are safe for concurrent
// use.
type Store interface {
	// Save inserts or replaces the report with r.ID.
	Save(ctx context.Context, r *Report) error
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (*Report, error)
	// List returns up to limit reports, newest first. A limit of zero or
	// less returns all of them.
	List(ctx context.Context, limit int) ([]*Report, error)
	Close() error
}

// Backend names a store implementation in configuration.
type Backend string

const (
	BackendFile  Backend = "file"
	BackendMongo Backend = "mongo"
)

// Options selects and configures a backend for [Open].
type Options struct {
	Backend    Backend
	Dir        string
	MongoURI   string
	Database   string
	Collection string
}

// Open creates the backend named by opts. An empty backend is BackendFile.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		s, err := NewFileStore(opts.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMongo:
		s, err := NewMongoStore(ctx, opts.MongoURI, opts.Database, opts.Collection)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.New("unknown store backend " + string(opts.Backend))
	}
}
