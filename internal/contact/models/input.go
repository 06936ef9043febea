package models

import (
	"slices"
	"strings"
)

// Input is a raw contact submission. Tags is the comma-separated form a user
// types; TagList is the list form sent over the wire. A non-nil TagList wins
// and its elements are never split.
type Input struct {
	Name    string
	Email   string
	Phone   string
	Company string
	Tags    string
	TagList []string
	Notes   string
}

// InputFromContact renders a stored contact back into its raw form so an edit
// form can be pre-filled. Validating the result yields the same record.
func InputFromContact(c Contact) Input {
	return Input{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Company: c.Company,
		Tags:    strings.Join(c.Tags, ", "),
		TagList: slices.Clone(c.Tags),
		Notes:   c.Notes,
	}
}

// FieldErrors maps a field name to a single human-readable message.
// A nil or empty map means the submission is valid.
type FieldErrors map[string]string

// Add records msg for field unless the field already has a message.
func (fe FieldErrors) Add(field, msg string) {
	if _, exists := fe[field]; exists {
		return
	}
	fe[field] = msg
}

// Has reports whether field has a message.
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}
