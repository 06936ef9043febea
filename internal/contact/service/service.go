// Package service orchestrates the contact lifecycle: validate, persist,
// re-derive the visible list, and announce changes.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"contactbook/internal/contact/events"
	"contactbook/internal/contact/metrics"
	"contactbook/internal/contact/models"
	"contactbook/internal/contact/query"
	"contactbook/internal/contact/validation"
	id "contactbook/pkg/domain"
	dErrors "contactbook/pkg/domain-errors"
	"contactbook/pkg/platform/sentinel"
	"contactbook/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Store persists contacts. Implementations live in internal/contact/store.
type Store interface {
	List(ctx context.Context) ([]models.Contact, error)
	FindByID(ctx context.Context, contactID id.ContactID) (*models.Contact, error)
	Upsert(ctx context.Context, draft models.Draft) (*models.Contact, error)
	Delete(ctx context.Context, contactID id.ContactID) error
}

// EventPublisher receives change events after a write commits.
type EventPublisher interface {
	Emit(ctx context.Context, ev events.Event) error
}

// MsgContactNotFound is returned for unknown ids.
const MsgContactNotFound = "Contact not found"

// FieldCheck is the result of a live single-field check. Shaped is the value
// as it should be displayed back to the user while typing.
type FieldCheck struct {
	Field  string `json:"field"`
	Error  string `json:"error"`
	Shaped string `json:"shaped"`
}

// Service implements the contact operations on top of a Store.
type Service struct {
	store     Store
	validator *validation.Validator
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher EventPublisher
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithValidator overrides the default strict validator.
func WithValidator(v *validation.Validator) Option {
	return func(s *Service) {
		s.validator = v
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		validator: validation.New(),
		logger:    slog.Default(),
		tracer:    otel.Tracer("contactbook/internal/contact/service"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// List returns the visible list: the whole collection sorted by name, then
// narrowed by text within scope.
func (s *Service) List(ctx context.Context, text string, scope models.Scope) ([]models.Contact, error) {
	ctx, span := s.tracer.Start(ctx, "contact.List", trace.WithAttributes(
		attribute.String("contact.scope", string(scope)),
	))
	defer span.End()
	start := time.Now()

	contacts, err := s.store.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, "list", start, wrapStoreErr(err, "failed to load contacts"))
	}
	s.metrics.SetListed(len(contacts))

	query.SortByName(contacts)
	visible := query.Filter(contacts, text, scope)

	span.SetAttributes(attribute.Int("contact.count", len(visible)))
	s.metrics.ObserveOperation("list", "ok", start)
	return visible, nil
}

// Get returns one contact.
func (s *Service) Get(ctx context.Context, contactID id.ContactID) (*models.Contact, error) {
	ctx, span := s.startSpan(ctx, "contact.Get", contactID)
	defer span.End()
	start := time.Now()

	c, err := s.store.FindByID(ctx, contactID)
	if err != nil {
		return nil, s.fail(ctx, span, "get", start, wrapStoreErr(err, "failed to load contact"))
	}
	s.metrics.ObserveOperation("get", "ok", start)
	return c, nil
}

// Create validates a submission and stores it under a freshly minted id.
func (s *Service) Create(ctx context.Context, in models.Input) (*models.Contact, error) {
	ctx, span := s.tracer.Start(ctx, "contact.Create")
	defer span.End()
	start := time.Now()

	draft, err := s.validate(in, "")
	if err != nil {
		return nil, s.fail(ctx, span, "create", start, err)
	}

	saved, err := s.store.Upsert(ctx, draft)
	if err != nil {
		return nil, s.fail(ctx, span, "create", start, wrapStoreErr(err, "failed to save contact"))
	}

	span.SetAttributes(attribute.String("contact.id", saved.ID.String()))
	s.committed(ctx, events.ActionCreated, saved.ID, saved)
	s.metrics.ObserveOperation("create", "ok", start)
	return saved, nil
}

// Update validates a submission and replaces the stored contact. The id is
// preserved; every other field comes from the submission.
func (s *Service) Update(ctx context.Context, contactID id.ContactID, in models.Input) (*models.Contact, error) {
	ctx, span := s.startSpan(ctx, "contact.Update", contactID)
	defer span.End()
	start := time.Now()

	draft, err := s.validate(in, contactID)
	if err != nil {
		return nil, s.fail(ctx, span, "update", start, err)
	}

	saved, err := s.store.Upsert(ctx, draft)
	if err != nil {
		return nil, s.fail(ctx, span, "update", start, wrapStoreErr(err, "failed to save contact"))
	}

	s.committed(ctx, events.ActionUpdated, saved.ID, saved)
	s.metrics.ObserveOperation("update", "ok", start)
	return saved, nil
}

// Delete removes a contact.
func (s *Service) Delete(ctx context.Context, contactID id.ContactID) error {
	ctx, span := s.startSpan(ctx, "contact.Delete", contactID)
	defer span.End()
	start := time.Now()

	if err := s.store.Delete(ctx, contactID); err != nil {
		return s.fail(ctx, span, "delete", start, wrapStoreErr(err, "failed to delete contact"))
	}

	s.committed(ctx, events.ActionDeleted, contactID, nil)
	s.metrics.ObserveOperation("delete", "ok", start)
	return nil
}

// CheckField runs the live check for a single field. Phone input is shaped
// (digits only, at most 10) before it is checked when the strict policy is
// active.
func (s *Service) CheckField(field, value string) FieldCheck {
	shaped := value
	if field == models.FieldPhone && s.validator.PhonePolicy() == validation.PhoneStrict {
		shaped = validation.ShapePhoneInput(value)
	}
	return FieldCheck{
		Field:  field,
		Error:  s.validator.ValidateField(field, shaped),
		Shaped: shaped,
	}
}

func (s *Service) validate(in models.Input, existingID id.ContactID) (models.Draft, error) {
	draft, fieldErrs := s.validator.Validate(in, existingID)
	if len(fieldErrs) == 0 {
		return draft, nil
	}
	for field := range fieldErrs {
		s.metrics.IncrementValidationFailure(field)
	}
	return models.Draft{}, dErrors.NewValidation("contact is invalid", fieldErrs)
}

func (s *Service) startSpan(ctx context.Context, name string, contactID id.ContactID) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("contact.id", contactID.String()),
	))
}

// committed logs the write and queues its change event. A dropped event never
// surfaces to the caller.
func (s *Service) committed(ctx context.Context, action events.Action, contactID id.ContactID, c *models.Contact) {
	s.metrics.IncrementMutation(string(action))
	s.logger.InfoContext(ctx, string(action),
		"contact_id", contactID,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.publisher == nil {
		return
	}
	ev := events.Event{Action: action, ContactID: contactID}
	if c != nil {
		snapshot := c.Clone()
		ev.Contact = &snapshot
	}
	// the publisher logs and counts events it has to drop
	_ = s.publisher.Emit(ctx, ev)
}

func (s *Service) fail(ctx context.Context, span trace.Span, operation string, start time.Time, err error) error {
	outcome := "error"
	switch {
	case dErrors.HasCode(err, dErrors.CodeValidation):
		outcome = "invalid"
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		outcome = "not_found"
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "contact operation failed",
			"operation", operation,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	s.metrics.ObserveOperation(operation, outcome, start)
	return err
}

func wrapStoreErr(err error, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, MsgContactNotFound)
	}
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, action)
}
