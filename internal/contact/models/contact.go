package models

import (
	"encoding/json"
	"slices"

	id "contactbook/pkg/domain"
)

// Field names used as FieldErrors keys and on the wire.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldPhone   = "phone"
	FieldCompany = "company"
	FieldTags    = "tags"
	FieldNotes   = "notes"
)

// Contact is a persisted contact record.
//
// Invariants (established by the validator, preserved by every store):
//   - ID is unique within the collection, immutable and never reused
//   - Name and Email are non-empty; Email has the local@domain.tld shape
//   - Phone, under the strict policy, is exactly 10 ASCII digits
//   - Tags never contains empty strings; input order and duplicates are kept
type Contact struct {
	ID      id.ContactID `json:"id"`
	Name    string       `json:"name"`
	Email   string       `json:"email"`
	Phone   string       `json:"phone"`
	Company string       `json:"company"`
	Tags    []string     `json:"tags"`
	Notes   string       `json:"notes"`
}

// contactWire mirrors Contact but also accepts the "_id" key used by
// document-store backed APIs.
type contactWire struct {
	ID      id.ContactID `json:"id"`
	MongoID id.ContactID `json:"_id"`
	Name    string       `json:"name"`
	Email   string       `json:"email"`
	Phone   string       `json:"phone"`
	Company string       `json:"company"`
	Tags    []string     `json:"tags"`
	Notes   string       `json:"notes"`
}

// UnmarshalJSON accepts either "id" or "_id" and defaults missing tags to an
// empty list.
func (c *Contact) UnmarshalJSON(data []byte) error {
	var w contactWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	contactID := w.ID
	if contactID.IsNil() {
		contactID = w.MongoID
	}
	tags := w.Tags
	if tags == nil {
		tags = []string{}
	}
	*c = Contact{
		ID:      contactID,
		Name:    w.Name,
		Email:   w.Email,
		Phone:   w.Phone,
		Company: w.Company,
		Tags:    tags,
		Notes:   w.Notes,
	}
	return nil
}

// Clone returns a deep copy so callers can't mutate a store's tag slice.
func (c Contact) Clone() Contact {
	c.Tags = slices.Clone(c.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c
}

// Draft is a normalized contact produced by the validator and ready to be
// upserted. A nil ID means the store mints one.
type Draft struct {
	ID      id.ContactID
	Name    string
	Email   string
	Phone   string
	Company string
	Tags    []string
	Notes   string
}

// IsNew reports whether the draft describes a contact that has no id yet.
func (d Draft) IsNew() bool {
	return d.ID.IsNil()
}

// WithID materializes the draft as a stored contact. Full replace semantics:
// every field comes from the draft.
func (d Draft) WithID(contactID id.ContactID) Contact {
	tags := slices.Clone(d.Tags)
	if tags == nil {
		tags = []string{}
	}
	return Contact{
		ID:      contactID,
		Name:    d.Name,
		Email:   d.Email,
		Phone:   d.Phone,
		Company: d.Company,
		Tags:    tags,
		Notes:   d.Notes,
	}
}
