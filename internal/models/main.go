// Package models defines the core data structures for signup submissions
// and stored users.
package models

import "github.com/atinyakov/signupform/internal/rules"

// Submission is one signup form post. It lives only for the duration of the
// request that carried it.
type Submission struct {
	// FirstName is the "fName" form field.
	FirstName string `json:"fName"`
	// LastName is the "lName" form field.
	LastName string `json:"lName"`
	// IDNumber is the "idNum" form field, expected to be unique per user.
	IDNumber string `json:"idNum"`
	// Password is the "pw" form field. It is never echoed back to clients.
	Password string `json:"pw"`
}

// Value returns the submitted value for a form field key.
func (s Submission) Value(key string) string {
	switch key {
	case rules.FirstName:
		return s.FirstName
	case rules.LastName:
		return s.LastName
	case rules.IDNumber:
		return s.IDNumber
	case rules.Password:
		return s.Password
	}
	return ""
}

// User is a persisted signup record.
type User struct {
	// ID is the record identifier assigned on insert.
	ID string
	// FirstName as submitted.
	FirstName string
	// LastName as submitted.
	LastName string
	// IDNumber is unique across all users.
	IDNumber string
	// PasswordHash is the bcrypt hash of the submitted password.
	PasswordHash []byte
}

// Identity is the non-secret part of a stored user, shown after signup.
type Identity struct {
	FirstName string `json:"fName"`
	LastName  string `json:"lName"`
	IDNumber  string `json:"idNum"`
}

// CheckIDResponse is the payload of the uniqueness lookup. IDNumber equals
// the queried value when it is taken and is empty otherwise.
type CheckIDResponse struct {
	IDNumber string `json:"idNum"`
}
