package domain

import (
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "contactbook/pkg/domain-errors"
)

// maxIDLength bounds identifiers accepted at trust boundaries.
const maxIDLength = 64

// ContactID is the opaque identifier of a contact. Stores mint UUIDs, but
// remote backends may hand out other shapes (e.g. 24-char hex object ids),
// so the type stays a string and only its alphabet is enforced.
type ContactID string

// NewContactID mints a fresh identifier. IDs are never reused.
func NewContactID() ContactID {
	return ContactID(uuid.NewString())
}

// ParseContactID validates an identifier received from a client.
func ParseContactID(s string) (ContactID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "contact id is required")
	}
	if len(s) > maxIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "contact id is too long")
	}
	if !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "contact id is not valid UTF-8")
	}
	for _, r := range s {
		if !isIDRune(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "contact id contains invalid characters")
		}
	}
	return ContactID(s), nil
}

func isIDRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_':
		return true
	}
	return false
}

// IsNil reports whether the id is unset (a contact not yet persisted).
func (id ContactID) IsNil() bool {
	return id == ""
}

func (id ContactID) String() string {
	return string(id)
}
