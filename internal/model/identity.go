package model

// Identity is the authenticated caller as established by the auth middleware.
type Identity struct {
	UserID  *int64
	Email   string
	IsAdmin bool
}
