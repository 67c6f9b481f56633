// Package identity resolves opaque member ids to display snapshots.
// Authentication itself lives in an external service; this package only
// models the verified caller and snapshot lookup.
package identity

import (
	"context"
	"errors"
	"sync"

	"alumnet/internal/models"
)

// ErrUnknownUser is returned when no snapshot exists for a user id.
var ErrUnknownUser = errors.New("unknown user")

// Principal is a verified caller: the opaque id from the token subject and
// the display snapshot carried in its claims.
type Principal struct {
	UserID string
	Author models.AuthorSnapshot
}

// Provider resolves the display snapshot for an opaque user id.
type Provider interface {
	Snapshot(ctx context.Context, userID string) (models.AuthorSnapshot, error)
}

// Directory is a static in-memory Provider. The seed tooling fills it with
// the generated member roster; tests fill it by hand.
type Directory struct {
	mu      sync.RWMutex
	members map[string]models.AuthorSnapshot
}

// NewDirectory creates an empty Directory.
func NewDirectory() *Directory {
	return &Directory{members: make(map[string]models.AuthorSnapshot)}
}

// Add registers or replaces a member snapshot.
func (d *Directory) Add(userID string, snapshot models.AuthorSnapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members[userID] = snapshot
}

func (d *Directory) Snapshot(_ context.Context, userID string) (models.AuthorSnapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snapshot, ok := d.members[userID]
	if !ok {
		return models.AuthorSnapshot{}, ErrUnknownUser
	}
	return snapshot, nil
}

// ClaimsProvider resolves snapshots from the principal the token already
// carries, so no directory lookup is needed on the hot path.
type ClaimsProvider struct {
	Principal Principal
}

func (p ClaimsProvider) Snapshot(_ context.Context, userID string) (models.AuthorSnapshot, error) {
	if userID != p.Principal.UserID {
		return models.AuthorSnapshot{}, ErrUnknownUser
	}
	return p.Principal.Author, nil
}
