// Package user defines the user model used throughout the application,
// particularly for authentication and link ownership.
package user

// User represents a registered account.
// Users are created on registration and never mutated or deleted.
type User struct {
	// ID is the generated 6-symbol identifier of the user.
	ID string

	// Email is unique among users and compared case-sensitively.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string
}
