package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"contactbook/internal/contact/models"
	dErrors "contactbook/pkg/domain-errors"
)

// Upper bounds on submitted field sizes.
const (
	maxFieldLength = 256
	maxNotesLength = 4096
	maxTags        = 64
)

// TagList accepts tags either as a JSON array of strings or as the
// comma-separated form text ("vip, client"). Array elements are kept whole,
// commas included; only the text form is split.
type TagList struct {
	Items []string
	Text  string
	// FromText reports that the tags were sent as a string.
	FromText bool
}

func (t *TagList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*t = TagList{}
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		*t = TagList{Text: raw, FromText: true}
		return nil
	}
	var list []string
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return fmt.Errorf("tags must be an array of strings or a comma-separated string")
	}
	*t = TagList{Items: list}
	return nil
}

// Len is the number of tags as submitted, before trimming.
func (t TagList) Len() int {
	if t.FromText {
		return len(strings.Split(t.Text, ","))
	}
	return len(t.Items)
}

// ContactRequest is the body of POST /contacts and PUT /contacts/{id}.
type ContactRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	Company string  `json:"company"`
	Tags    TagList `json:"tags"`
	Notes   string  `json:"notes"`
}

// Validate enforces size limits only; field rules belong to the validator
// so that every violation is reported together.
func (r *ContactRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	for field, value := range map[string]string{
		models.FieldName:    r.Name,
		models.FieldEmail:   r.Email,
		models.FieldPhone:   r.Phone,
		models.FieldCompany: r.Company,
	} {
		if len(value) > maxFieldLength {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("%s must be at most %d characters", field, maxFieldLength))
		}
	}
	if len(r.Notes) > maxNotesLength {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("notes must be at most %d characters", maxNotesLength))
	}
	if r.Tags.Len() > maxTags {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("at most %d tags are allowed", maxTags))
	}
	tags := r.Tags.Items
	if r.Tags.FromText {
		tags = strings.Split(r.Tags.Text, ",")
	}
	for _, tag := range tags {
		if len(tag) > maxFieldLength {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("tags must be at most %d characters", maxFieldLength))
		}
	}
	return nil
}

// ToInput converts the request to the validator's raw form. Array tags travel
// as a list so that commas inside a tag survive.
func (r *ContactRequest) ToInput() models.Input {
	in := models.Input{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Company: r.Company,
		Notes:   r.Notes,
	}
	if r.Tags.FromText {
		in.Tags = r.Tags.Text
	} else {
		in.TagList = r.Tags.Items
	}
	return in
}

// FieldCheckRequest is the body of POST /contacts/validate.
type FieldCheckRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (r *FieldCheckRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Field = strings.ToLower(strings.TrimSpace(r.Field))
	switch r.Field {
	case models.FieldName, models.FieldEmail, models.FieldPhone,
		models.FieldCompany, models.FieldTags, models.FieldNotes:
	case "":
		return dErrors.New(dErrors.CodeBadRequest, "field is required")
	default:
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown field %q", r.Field))
	}
	if len(r.Value) > maxNotesLength {
		return dErrors.New(dErrors.CodeBadRequest, "value is too long")
	}
	return nil
}
