package model

import "encoding/json"

// Envelope is the top-level shape of every API response.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Errors  FieldErrors     `json:"errors,omitempty"`
}

// FieldErrors maps a request field to its validation messages.
type FieldErrors map[string][]string

// Add appends a message for field.
func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Empty reports whether there are no field errors.
func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

// AuthResult is returned by login and register.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Message is a data payload carrying only a human readable message.
type Message struct {
	Message string `json:"message"`
}

// DeleteResult is returned by bulk deletion.
type DeleteResult struct {
	DeletedCount int `json:"deletedCount"`
}
