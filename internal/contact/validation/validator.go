// Package validation turns raw contact submissions into normalized drafts.
//
// Every rule is evaluated independently and all failures are collected; a
// failed submission is returned as data (models.FieldErrors), never as a
// panic or a Go error. The functions here are pure, so live per-keystroke
// checks can call them as often as they like.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"contactbook/internal/contact/models"
	id "contactbook/pkg/domain"
	pstrings "contactbook/pkg/platform/strings"
)

// Messages surfaced next to each field.
const (
	MsgNameRequired     = "Name is required"
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Invalid email"
	MsgEmailInvalidLive = "Invalid email format"
	MsgPhoneRequired    = "Phone is required"
	MsgPhoneDigits      = "Phone must be exactly 10 digits"
)

// PhoneDigits is the exact length of a valid phone number.
const PhoneDigits = 10

// emailRune excludes @ and every Unicode space, including vertical tab,
// line and paragraph separators and the byte order mark. RE2's \s alone
// is ASCII-only and skips \v.
const emailRune = `[^@\s\x0B\p{Z}\x{FEFF}]`

var emailPattern = regexp.MustCompile(`^` + emailRune + `+@` + emailRune + `+\.` + emailRune + `+$`)

// PhonePolicy decides whether phone is mandatory and digit-checked.
type PhonePolicy int

const (
	// PhoneStrict requires a phone of exactly 10 ASCII digits.
	PhoneStrict PhonePolicy = iota
	// PhoneLenient makes phone optional and unconstrained.
	PhoneLenient
)

// ParsePhonePolicy maps "strict" or "lenient" to a policy.
func ParsePhonePolicy(s string) (PhonePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return PhoneStrict, nil
	case "lenient":
		return PhoneLenient, nil
	}
	return PhoneStrict, fmt.Errorf("unknown phone policy %q", s)
}

func (p PhonePolicy) String() string {
	if p == PhoneLenient {
		return "lenient"
	}
	return "strict"
}

// Validator validates and normalizes contact submissions.
type Validator struct {
	phonePolicy PhonePolicy
}

// Option configures a Validator.
type Option func(*Validator)

// WithPhonePolicy selects the phone rule set.
func WithPhonePolicy(p PhonePolicy) Option {
	return func(v *Validator) {
		v.phonePolicy = p
	}
}

// New returns a Validator using the strict phone policy unless overridden.
func New(opts ...Option) *Validator {
	v := &Validator{phonePolicy: PhoneStrict}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// PhonePolicy returns the configured policy.
func (v *Validator) PhonePolicy() PhonePolicy {
	return v.phonePolicy
}

// Validate checks a submission and returns either a normalized draft or the
// collected field errors. existingID is carried onto the draft when editing
// and left nil when creating.
func (v *Validator) Validate(in models.Input, existingID id.ContactID) (models.Draft, models.FieldErrors) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	phone := strings.TrimSpace(in.Phone)

	errs := models.FieldErrors{}
	if name == "" {
		errs.Add(models.FieldName, MsgNameRequired)
	}

	switch {
	case email == "":
		errs.Add(models.FieldEmail, MsgEmailRequired)
	case !IsEmail(email):
		errs.Add(models.FieldEmail, MsgEmailInvalid)
	}

	if v.phonePolicy == PhoneStrict {
		switch {
		case phone == "":
			errs.Add(models.FieldPhone, MsgPhoneRequired)
		case !IsPhone(phone):
			errs.Add(models.FieldPhone, MsgPhoneDigits)
		}
	}

	if len(errs) > 0 {
		return models.Draft{}, errs
	}

	return models.Draft{
		ID:      existingID,
		Name:    name,
		Email:   email,
		Phone:   phone,
		Company: strings.TrimSpace(in.Company),
		Tags:    normalizeTags(in),
		Notes:   strings.TrimSpace(in.Notes),
	}, nil
}

// ValidateField is the live check run on every change of a single field.
// Only email and phone have live rules. An empty value is not an error
// outside of submission, so it clears any previous message ("").
func (v *Validator) ValidateField(field, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	switch field {
	case models.FieldEmail:
		if !IsEmail(value) {
			return MsgEmailInvalidLive
		}
	case models.FieldPhone:
		if v.phonePolicy == PhoneStrict && !IsPhone(value) {
			return MsgPhoneDigits
		}
	}
	return ""
}

// IsEmail reports whether s has the basic local@domain.tld shape.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsPhone reports whether s is exactly 10 ASCII digits with nothing else.
func IsPhone(s string) bool {
	if len(s) != PhoneDigits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ShapePhoneInput strips non-digits and truncates to 10 digits. It shapes what
// a user is typing; it is not a validation rule and is never applied to
// stored values.
func ShapePhoneInput(value string) string {
	var b strings.Builder
	for i := 0; i < len(value) && b.Len() < PhoneDigits; i++ {
		if value[i] >= '0' && value[i] <= '9' {
			b.WriteByte(value[i])
		}
	}
	return b.String()
}

func normalizeTags(in models.Input) []string {
	if in.TagList != nil {
		return pstrings.TrimAll(in.TagList)
	}
	return SplitTags(in.Tags)
}

// SplitTags turns the comma-separated form into a tag list.
func SplitTags(raw string) []string {
	return pstrings.SplitAndTrim(raw, ",")
}
