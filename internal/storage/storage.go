package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/tbranagh/storyloom/pkg/session"
	"github.com/tbranagh/storyloom/pkg/sheet"
	"github.com/tbranagh/storyloom/pkg/world"
)

// Storage persists session records and serves the static world files and
// character sheets bundled with a deployment.
type Storage interface {
	// Ping tests the storage connection
	Ping(ctx context.Context) error

	// Close closes the storage connection
	Close() error

	// SaveSession saves a session record with the given UUID
	SaveSession(ctx context.Context, id uuid.UUID, rec *session.Record) error

	// LoadSession retrieves a session record by UUID
	// Returns nil if the record doesn't exist
	LoadSession(ctx context.Context, id uuid.UUID) (*session.Record, error)

	// DeleteSession removes a session record by UUID
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// ListWorlds maps world titles to their filenames
	ListWorlds(ctx context.Context) (map[string]string, error)

	// GetWorld loads a world document by filename
	GetWorld(ctx context.Context, filename string) (*world.Document, error)

	// GetSheet loads a character sheet by name
	GetSheet(ctx context.Context, name string) (*sheet.Sheet, error)
}
