// Package session establishes the identity that spans every process
// generation connected by resets.
package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/celestiaorg/reloader/internal/durable"
	"github.com/celestiaorg/reloader/internal/logger"
)

// Session identifies a chain of process generations
type Session struct {
	ID string
	// Resumed is true when the id was recovered from the durable store,
	// meaning this process was started by a reset
	Resumed bool
}

// Manager creates or recovers the session
type Manager struct {
	store durable.Store
	keys  durable.Keys
	newID func() string
}

// NewManager creates a session manager over store
func NewManager(store durable.Store, keys durable.Keys) *Manager {
	return &Manager{
		store: store,
		keys:  keys,
		newID: func() string { return uuid.New().String() },
	}
}

// Start reads the session key. An absent key starts a fresh session and
// persists its id; a present key resumes that session.
//
// The durable store is best effort. A failed read starts a fresh session for
// this generation only and leaves the stored id alone, so the chain can still
// be resumed once the store answers again. A failed write is logged.
func (m *Manager) Start(ctx context.Context) Session {
	id, ok, err := m.store.Get(ctx, m.keys.Session())
	if err != nil {
		id = m.newID()
		logger.Warnf("session: failed to read session id, using unpersisted session %s: %v", id, err)
		return Session{ID: id}
	}
	if ok && id != "" {
		logger.Infof("session: resumed session %s", id)
		return Session{ID: id, Resumed: true}
	}

	id = m.newID()
	if err := m.store.Set(ctx, m.keys.Session(), id); err != nil {
		logger.Errorf("session: failed to persist session id %s: %v", id, err)
	}
	logger.Infof("session: started fresh session %s", id)
	return Session{ID: id}
}
