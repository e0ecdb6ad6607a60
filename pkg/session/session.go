// Package session ties one loaded world to one running pipeline. The
// graph is built once from a snapshot, mutated in place for the session's
// lifetime, and re-snapshotted for persistence after each turn.
package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tbranagh/storyloom/pkg/engine"
	"github.com/tbranagh/storyloom/pkg/state"
	"github.com/tbranagh/storyloom/pkg/turn"
	"github.com/tbranagh/storyloom/pkg/vocab"
	"github.com/tbranagh/storyloom/pkg/world"
)

// Session is one running game.
type Session struct {
	ID        uuid.UUID `json:"id"`
	World     string    `json:"world"`
	Turns     int       `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	graph    *world.Graph
	pipeline *engine.Pipeline
}

// Record is the serializable form of a session: its identity plus a full
// world snapshot. Rebuilding the graph from the snapshot revalidates it,
// so a corrupted record cannot smuggle an inconsistent world back in.
type Record struct {
	ID        uuid.UUID       `json:"id"`
	World     string          `json:"world"`
	Turns     int             `json:"turns"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Snapshot  *world.Document `json:"snapshot"`
}

// New starts a session from a world document.
func New(worldName string, doc *world.Document, registry *vocab.Registry, logger *slog.Logger) (*Session, error) {
	g, err := world.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build world %q: %w", worldName, err)
	}
	now := time.Now()
	s := &Session{
		ID:        uuid.New(),
		World:     worldName,
		CreatedAt: now,
		UpdatedAt: now,
		graph:     g,
	}
	s.pipeline = engine.New(registry, state.New(g), logger)
	return s, nil
}

// Restore rebuilds a session from a persisted record.
func Restore(rec *Record, registry *vocab.Registry, logger *slog.Logger) (*Session, error) {
	if rec == nil || rec.Snapshot == nil {
		return nil, fmt.Errorf("session record has no world snapshot")
	}
	g, err := world.Build(rec.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", rec.ID, err)
	}
	s := &Session{
		ID:        rec.ID,
		World:     rec.World,
		Turns:     rec.Turns,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		graph:     g,
	}
	s.pipeline = engine.New(registry, state.New(g), logger)
	s.pipeline.SetTurns(rec.Turns)
	return s, nil
}

// Graph exposes the session's world.
func (s *Session) Graph() *world.Graph { return s.graph }

// Execute runs one command through the pipeline and advances the session
// clock.
func (s *Session) Execute(cmd turn.Command) (turn.Result, error) {
	result, err := s.pipeline.Execute(cmd)
	s.Turns = s.pipeline.Turns()
	s.UpdatedAt = time.Now()
	return result, err
}

// Snapshot captures the session for persistence.
func (s *Session) Snapshot() *Record {
	return &Record{
		ID:        s.ID,
		World:     s.World,
		Turns:     s.Turns,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Snapshot:  s.graph.Snapshot(),
	}
}
