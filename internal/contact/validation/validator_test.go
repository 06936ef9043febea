package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"contactbook/internal/contact/models"
	id "contactbook/pkg/domain"
	"contactbook/pkg/testutil"
)

type ValidatorSuite struct {
	suite.Suite
	strict  *Validator
	lenient *Validator
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	s.strict = New()
	s.lenient = New(WithPhonePolicy(PhoneLenient))
}

func validInput() models.Input {
	return models.Input{
		Name:  "Jane Doe",
		Email: "jane@x.com",
		Phone: "5551234567",
		Tags:  "vip, client",
	}
}

func (s *ValidatorSuite) TestRequiredFields() {
	s.Run("missing name reports only name", func() {
		in := validInput()
		in.Name = "   "
		_, errs := s.strict.Validate(in, "")
		s.Equal(models.FieldErrors{models.FieldName: MsgNameRequired}, errs)
	})

	s.Run("missing email reports only email", func() {
		in := validInput()
		in.Email = ""
		_, errs := s.strict.Validate(in, "")
		s.Equal(models.FieldErrors{models.FieldEmail: MsgEmailRequired}, errs)
	})

	s.Run("missing name and email reports both", func() {
		in := validInput()
		in.Name, in.Email = "", "\t"
		draft, errs := s.strict.Validate(in, "")
		s.Len(errs, 2)
		s.Equal(MsgNameRequired, errs[models.FieldName])
		s.Equal(MsgEmailRequired, errs[models.FieldEmail])
		s.Equal(models.Draft{}, draft, "no record is produced on failure")
	})

	s.Run("all three fields fail together", func() {
		_, errs := s.strict.Validate(models.Input{Name: "", Email: "bad", Phone: "123"}, "")
		s.Equal(models.FieldErrors{
			models.FieldName:  MsgNameRequired,
			models.FieldEmail: MsgEmailInvalid,
			models.FieldPhone: MsgPhoneDigits,
		}, errs)
	})
}

func (s *ValidatorSuite) TestEmailShape() {
	tests := []struct {
		email string
		valid bool
	}{
		{"jane@x.com", true},
		{"first.last+tag@sub.example.co", true},
		{"a@b.c", true},
		{"bad", false},
		{"jane@x", false},
		{"@x.com", false},
		{"jane@.com", false},
		{"jane@@x.com", false},
		{"ja ne@x.com", false},
		{"ja\u00a0ne@x.com", false},
		{"jane@x\u2028.com", false},
		{"jane@x.c\u3000om", false},
		{"ja\ufeffne@x.com", false},
		{"ja\vne@x.com", false},
		{"jané@exämple.com", true},
		{"jane@x.", false},
	}
	for _, tt := range tests {
		s.Run(tt.email, func() {
			in := validInput()
			in.Email = tt.email
			_, errs := s.strict.Validate(in, "")
			if tt.valid {
				s.False(errs.Has(models.FieldEmail), "unexpected email error for %q", tt.email)
			} else {
				s.Equal(MsgEmailInvalid, errs[models.FieldEmail])
			}
		})
	}
}

func (s *ValidatorSuite) TestStrictPhone() {
	s.Run("required", func() {
		in := validInput()
		in.Phone = " "
		_, errs := s.strict.Validate(in, "")
		s.Equal(MsgPhoneRequired, errs[models.FieldPhone])
	})

	invalid := []string{"123", "555-123-4567", "(555)1234567", "55512345678", "555123456a", "５５５１２３４５６７"}
	for _, phone := range invalid {
		s.Run("rejects "+phone, func() {
			in := validInput()
			in.Phone = phone
			_, errs := s.strict.Validate(in, "")
			s.Equal(MsgPhoneDigits, errs[models.FieldPhone])
		})
	}

	valid := []string{"5551234567", "0000000000", " 5551234567 "}
	for _, phone := range valid {
		s.Run("accepts "+phone, func() {
			in := validInput()
			in.Phone = phone
			draft, errs := s.strict.Validate(in, "")
			s.Empty(errs)
			s.Equal(strings.TrimSpace(phone), draft.Phone)
		})
	}
}

func (s *ValidatorSuite) TestLenientPhone() {
	in := validInput()
	in.Phone = ""
	draft, errs := s.lenient.Validate(in, "")
	s.Empty(errs)
	s.Equal("", draft.Phone)

	in.Phone = " +1 (555) 123-4567 "
	draft, errs = s.lenient.Validate(in, "")
	s.Empty(errs)
	s.Equal("+1 (555) 123-4567", draft.Phone)
}

func (s *ValidatorSuite) TestNormalization() {
	in := models.Input{
		Name:    "  Jane Doe ",
		Email:   " jane@x.com ",
		Phone:   "5551234567",
		Company: "  Acme  ",
		Tags:    "a, b,,  c ",
		Notes:   "  met at conf \n",
	}
	draft, errs := s.strict.Validate(in, "")
	s.Require().Empty(errs)
	s.Equal(models.Draft{
		Name:    "Jane Doe",
		Email:   "jane@x.com",
		Phone:   "5551234567",
		Company: "Acme",
		Tags:    []string{"a", "b", "c"},
		Notes:   "met at conf",
	}, draft)
	s.True(draft.IsNew())
}

func (s *ValidatorSuite) TestListTagsAreNotSplit() {
	in := validInput()
	in.Tags = "ignored"
	in.TagList = []string{"Smith, Jr.", "  ", " vip "}
	draft, errs := s.strict.Validate(in, "")
	s.Require().Empty(errs)
	s.Equal([]string{"Smith, Jr.", "vip"}, draft.Tags)

	in.TagList = []string{}
	draft, errs = s.strict.Validate(in, "")
	s.Require().Empty(errs)
	s.Equal([]string{}, draft.Tags)
}

func (s *ValidatorSuite) TestEditCarriesExistingID() {
	existing := id.ContactID("65a1f0c2e4b0a1b2c3d4e5f6")
	draft, errs := s.strict.Validate(validInput(), existing)
	s.Require().Empty(errs)
	s.Equal(existing, draft.ID)
	s.False(draft.IsNew())
}

func (s *ValidatorSuite) TestIdempotence() {
	inputs := []models.Input{
		validInput(),
		{Name: " Bob ", Email: "bob@b.io", Phone: "0123456789", Company: " B ", Tags: ",x,,y, x ,", Notes: " n "},
		{Name: "Amy", Email: "amy@a.org", Phone: "9999999999"},
		{Name: "Cy", Email: "cy@c.io", Phone: "1111111111", TagList: []string{"Smith, Jr.", " x "}},
	}
	for _, in := range inputs {
		first, errs := s.strict.Validate(in, "abc")
		s.Require().Empty(errs)

		second, errs := s.strict.Validate(models.InputFromContact(first.WithID("abc")), "abc")
		s.Require().Empty(errs)
		s.Equal(first, second)
	}
}

func TestEndToEnd(t *testing.T) {
	v := New()

	testutil.Given(t, "a complete submission", func(t *testing.T) {
		draft, errs := v.Validate(models.Input{
			Name:  "Jane Doe",
			Email: "jane@x.com",
			Phone: "5551234567",
			Tags:  "vip, client",
		}, "")

		testutil.Then(t, "a normalized record is produced", func(t *testing.T) {
			require.Empty(t, errs)
			assert.Equal(t, []string{"vip", "client"}, draft.Tags)
			assert.Equal(t, "Jane Doe", draft.Name)
		})
	})

	testutil.Given(t, "an empty name, malformed email and short phone", func(t *testing.T) {
		_, errs := v.Validate(models.Input{Name: "", Email: "bad", Phone: "123"}, "")

		testutil.Then(t, "all three fields are reported", func(t *testing.T) {
			assert.Len(t, errs, 3)
			assert.Contains(t, errs, models.FieldName)
			assert.Contains(t, errs, models.FieldEmail)
			assert.Contains(t, errs, models.FieldPhone)
		})
	})
}

func TestValidateField(t *testing.T) {
	strict := New()
	lenient := New(WithPhonePolicy(PhoneLenient))

	tests := []struct {
		name  string
		v     *Validator
		field string
		value string
		want  string
	}{
		{"empty email clears", strict, models.FieldEmail, "", ""},
		{"whitespace email clears", strict, models.FieldEmail, "   ", ""},
		{"bad email uses live message", strict, models.FieldEmail, "jane@", MsgEmailInvalidLive},
		{"good email clears", strict, models.FieldEmail, "jane@x.com", ""},
		{"empty phone clears", strict, models.FieldPhone, "", ""},
		{"short phone", strict, models.FieldPhone, "555", MsgPhoneDigits},
		{"good phone", strict, models.FieldPhone, "5551234567", ""},
		{"lenient phone never errors", lenient, models.FieldPhone, "555", ""},
		{"name has no live rule", strict, models.FieldName, "", ""},
		{"unknown field", strict, "nickname", "x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.ValidateField(tt.field, tt.value))
			// repeated invocation is side-effect free
			assert.Equal(t, tt.want, tt.v.ValidateField(tt.field, tt.value))
		})
	}
}

func TestShapePhoneInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"555-123-4567", "5551234567"},
		{"(555) 123 4567 ext 89", "5551234567"},
		{"abc", ""},
		{"12345678901234", "1234567890"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ShapePhoneInput(tt.in))
		})
	}
}

func TestParsePhonePolicy(t *testing.T) {
	p, err := ParsePhonePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PhoneStrict, p)

	p, err = ParsePhonePolicy("Lenient")
	require.NoError(t, err)
	assert.Equal(t, PhoneLenient, p)
	assert.Equal(t, "lenient", p.String())

	_, err = ParsePhonePolicy("loose")
	assert.Error(t, err)
}
