package model

import "time"

// Lock records exclusive edit ownership of one container path. At most one
// valid Lock exists per path; the backend is the authority.
type Lock struct {
	Path       string    `json:"path"`
	Owner      string    `json:"owner"`
	ID         string    `json:"id"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// OwnedBy reports whether the lock is held by the given identity.
func (l *Lock) OwnedBy(identity string) bool {
	return l != nil && l.Owner == identity
}
