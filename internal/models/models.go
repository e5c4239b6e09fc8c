package models

import "errors"

// Link is a single short code entry of the link directory.
// The JSON field names are the ones served by GET /urls.json.
type Link struct {
	LongURL string `json:"longURL"`
	UserID  string `json:"userID"`
}

// Links maps short codes to their links.
type Links map[string]Link

type CredentialsForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type LinkForm struct {
	LongURL string `validate:"required"`
}

var (
	ErrEmailAlreadyRegistered = errors.New("the email is already registered")
	ErrLinkNotFound           = errors.New("the short code is not found")
)
