package auth

import "time"

// LoginSessionTTL is how long a login session stays valid.
const LoginSessionTTL = 60 * 24 * time.Hour

// User is an account identity. Email and username are unique.
type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	HashedPassword string `json:"-"`
}

// LoginSession is the authoritative session record persisted alongside the
// user. Deleting the user cascades to its sessions.
type LoginSession struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	Expired   bool
}
