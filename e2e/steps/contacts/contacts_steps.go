package contacts

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext is the subset of the scenario context these steps need.
type TestContext interface {
	GET(path string) error
	POST(path string, body any) error
	PUT(path string, body any) error
	DELETE(path string) error
	Status() int
	DecodeBody(v any) error
	Save(key, value string)
	Lookup(key string) (string, bool)
}

// RegisterSteps registers contact step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &contactSteps{tc: tc}

	ctx.Step(`^a contact "([^"]*)" with email "([^"]*)", phone "([^"]*)" and tags "([^"]*)"$`, steps.givenContact)
	ctx.Step(`^I create a contact "([^"]*)" with email "([^"]*)" and phone "([^"]*)"$`, steps.createContact)
	ctx.Step(`^I rename "([^"]*)" to "([^"]*)"$`, steps.renameContact)
	ctx.Step(`^I delete "([^"]*)"$`, steps.deleteContact)
	ctx.Step(`^I fetch "([^"]*)"$`, steps.fetchContact)
	ctx.Step(`^I list contacts$`, steps.listContacts)
	ctx.Step(`^I search contacts for "([^"]*)" in scope "([^"]*)"$`, steps.searchContacts)
	ctx.Step(`^I check field "([^"]*)" with value "([^"]*)"$`, steps.checkField)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the listed names should be "([^"]*)"$`, steps.listedNamesShouldBe)
	ctx.Step(`^the listed names should include "([^"]*)"$`, steps.listedNamesShouldInclude)
	ctx.Step(`^the field error for "([^"]*)" should be "([^"]*)"$`, steps.fieldErrorShouldBe)
	ctx.Step(`^the field check error should be "([^"]*)"$`, steps.fieldCheckErrorShouldBe)
}

type contactSteps struct {
	tc TestContext
}

type contact struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Phone string   `json:"phone"`
	Tags  []string `json:"tags"`
}

type errorEnvelope struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func (s *contactSteps) create(name, email, phone, tags string) error {
	err := s.tc.POST("/api/contacts", map[string]string{
		"name":  name,
		"email": email,
		"phone": phone,
		"tags":  tags,
	})
	if err != nil {
		return err
	}
	if s.tc.Status() != 201 {
		return nil
	}
	var c contact
	if err := s.tc.DecodeBody(&c); err != nil {
		return err
	}
	s.tc.Save(name, c.ID)
	return nil
}

func (s *contactSteps) givenContact(ctx context.Context, name, email, phone, tags string) error {
	if err := s.create(name, email, phone, tags); err != nil {
		return err
	}
	if s.tc.Status() != 201 {
		return fmt.Errorf("seeding %q: status %d", name, s.tc.Status())
	}
	return nil
}

func (s *contactSteps) createContact(ctx context.Context, name, email, phone string) error {
	return s.create(name, email, phone, "")
}

func (s *contactSteps) idOf(name string) (string, error) {
	contactID, ok := s.tc.Lookup(name)
	if !ok {
		return "", fmt.Errorf("no contact %q created in this scenario", name)
	}
	return contactID, nil
}

func (s *contactSteps) renameContact(ctx context.Context, name, newName string) error {
	contactID, err := s.idOf(name)
	if err != nil {
		return err
	}
	if err := s.tc.GET("/api/contacts/" + contactID); err != nil {
		return err
	}
	var c contact
	if err := s.tc.DecodeBody(&c); err != nil {
		return err
	}
	err = s.tc.PUT("/api/contacts/"+contactID, map[string]any{
		"name":  newName,
		"email": c.Email,
		"phone": c.Phone,
		"tags":  c.Tags,
	})
	if err == nil && s.tc.Status() == 200 {
		s.tc.Save(newName, contactID)
	}
	return err
}

func (s *contactSteps) deleteContact(ctx context.Context, name string) error {
	contactID, err := s.idOf(name)
	if err != nil {
		return err
	}
	return s.tc.DELETE("/api/contacts/" + contactID)
}

func (s *contactSteps) fetchContact(ctx context.Context, name string) error {
	contactID, err := s.idOf(name)
	if err != nil {
		return err
	}
	return s.tc.GET("/api/contacts/" + contactID)
}

func (s *contactSteps) listContacts(ctx context.Context) error {
	return s.tc.GET("/api/contacts")
}

func (s *contactSteps) searchContacts(ctx context.Context, text, scope string) error {
	q := url.Values{"q": {text}, "scope": {scope}}
	return s.tc.GET("/api/contacts?" + q.Encode())
}

func (s *contactSteps) checkField(ctx context.Context, field, value string) error {
	return s.tc.POST("/api/contacts/validate", map[string]string{"field": field, "value": value})
}

func (s *contactSteps) statusShouldBe(ctx context.Context, status int) error {
	if s.tc.Status() != status {
		return fmt.Errorf("expected status %d, got %d", status, s.tc.Status())
	}
	return nil
}

func (s *contactSteps) listedNames() ([]string, error) {
	var list []contact
	if err := s.tc.DecodeBody(&list); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(list))
	for _, c := range list {
		names = append(names, c.Name)
	}
	return names, nil
}

func (s *contactSteps) listedNamesShouldBe(ctx context.Context, want string) error {
	names, err := s.listedNames()
	if err != nil {
		return err
	}
	var expected []string
	if want != "" {
		expected = strings.Split(want, ", ")
	}
	if !slices.Equal(names, expected) && !(len(names) == 0 && len(expected) == 0) {
		return fmt.Errorf("expected names %v, got %v", expected, names)
	}
	return nil
}

func (s *contactSteps) listedNamesShouldInclude(ctx context.Context, name string) error {
	names, err := s.listedNames()
	if err != nil {
		return err
	}
	if !slices.Contains(names, name) {
		return fmt.Errorf("expected %q in %v", name, names)
	}
	return nil
}

func (s *contactSteps) fieldErrorShouldBe(ctx context.Context, field, message string) error {
	var env errorEnvelope
	if err := s.tc.DecodeBody(&env); err != nil {
		return err
	}
	if got := env.Fields[field]; got != message {
		return fmt.Errorf("expected %s error %q, got %q (all: %v)", field, message, got, env.Fields)
	}
	return nil
}

func (s *contactSteps) fieldCheckErrorShouldBe(ctx context.Context, message string) error {
	var check struct {
		Error string `json:"error"`
	}
	if err := s.tc.DecodeBody(&check); err != nil {
		return err
	}
	if check.Error != message {
		return fmt.Errorf("expected field check error %q, got %q", message, check.Error)
	}
	return nil
}
