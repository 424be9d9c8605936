// Package venue holds the tenant boundary and the caller's access to it.
package venue

import "errors"

var ErrAccessDenied = errors.New("venue access denied")

// Role of an authenticated user
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Session is the resolved identity of the caller.
type Session struct {
	UserID   string
	Role     Role
	VenueIDs []string
}

// IsAdmin reports unrestricted access
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// CanAccess is true for admins or when the venue is granted to the user.
func (s *Session) CanAccess(venueID string) bool {
	if s == nil || venueID == "" {
		return false
	}
	if s.IsAdmin() {
		return true
	}
	for _, id := range s.VenueIDs {
		if id == venueID {
			return true
		}
	}
	return false
}
