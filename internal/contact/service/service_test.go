package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"contactbook/internal/contact/events"
	"contactbook/internal/contact/metrics"
	"contactbook/internal/contact/models"
	"contactbook/internal/contact/service/mocks"
	"contactbook/internal/contact/store"
	"contactbook/internal/contact/validation"
	id "contactbook/pkg/domain"
	dErrors "contactbook/pkg/domain-errors"
	"contactbook/pkg/platform/sentinel"
	"contactbook/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	store     *store.InMemory
	publisher *events.Publisher
	metrics   *metrics.Metrics
	service   *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithRequestID(context.Background(), "req-test")
	s.store = store.NewInMemory()
	s.publisher = events.NewPublisher(events.WithLogger(quietLogger()))
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.store,
		WithLogger(quietLogger()),
		WithMetrics(s.metrics),
		WithEventPublisher(s.publisher),
	)
}

func input(name string) models.Input {
	return models.Input{Name: name, Email: "someone@example.com", Phone: "5551234567"}
}

func (s *ServiceSuite) nextEvent() events.Event {
	select {
	case ev := <-s.publisher.Queue():
		return ev
	default:
		s.FailNow("expected a queued event")
		return events.Event{}
	}
}

func (s *ServiceSuite) names(contacts []models.Contact) []string {
	out := make([]string, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, c.Name)
	}
	return out
}

func (s *ServiceSuite) TestCreate() {
	s.Run("valid submission gets a fresh id and appears in the list", func() {
		created, err := s.service.Create(s.ctx, models.Input{
			Name: "Jane Doe", Email: "jane@x.com", Phone: "5551234567", Tags: "vip, client",
		})
		s.Require().NoError(err)
		s.False(created.ID.IsNil())
		s.Equal([]string{"vip", "client"}, created.Tags)

		all, err := s.service.List(s.ctx, "", models.ScopeAll)
		s.Require().NoError(err)
		s.Require().Len(all, 1)
		s.Equal(created.ID, all[0].ID)

		ev := s.nextEvent()
		s.Equal(events.ActionCreated, ev.Action)
		s.Equal(created.ID, ev.ContactID)
		s.Equal("req-test", ev.RequestID)
		s.Require().NotNil(ev.Contact)
		s.Equal("Jane Doe", ev.Contact.Name)
	})

	s.Run("invalid submission reports every field and writes nothing", func() {
		before, err := s.store.List(s.ctx)
		s.Require().NoError(err)

		_, err = s.service.Create(s.ctx, models.Input{Name: "", Email: "bad", Phone: "123"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(map[string]string{
			models.FieldName:  validation.MsgNameRequired,
			models.FieldEmail: validation.MsgEmailInvalid,
			models.FieldPhone: validation.MsgPhoneDigits,
		}, dErrors.Fields(err))

		after, err := s.store.List(s.ctx)
		s.Require().NoError(err)
		s.Equal(before, after)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.ValidationFailures.WithLabelValues(models.FieldEmail)))
	})
}

func (s *ServiceSuite) TestUpdate() {
	created, err := s.service.Create(s.ctx, models.Input{
		Name: "Jane", Email: "jane@x.com", Phone: "5551234567", Company: "Acme", Tags: "a", Notes: "old",
	})
	s.Require().NoError(err)
	s.nextEvent()

	s.Run("replaces every field and keeps the id", func() {
		updated, err := s.service.Update(s.ctx, created.ID, models.Input{
			Name: "Jane Q", Email: "jq@x.com", Phone: "5550000000",
		})
		s.Require().NoError(err)
		s.Equal(created.ID, updated.ID)
		s.Equal("", updated.Company)
		s.Equal([]string{}, updated.Tags)

		found, err := s.service.Get(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(*updated, *found)
		s.Equal(events.ActionUpdated, s.nextEvent().Action)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.service.Update(s.ctx, id.NewContactID(), input("Ghost"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal(MsgContactNotFound, err.Error())
	})

	s.Run("invalid submission leaves the record alone", func() {
		before, err := s.service.Get(s.ctx, created.ID)
		s.Require().NoError(err)

		_, err = s.service.Update(s.ctx, created.ID, models.Input{Name: "X", Email: ""})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		after, err := s.service.Get(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(*before, *after)
	})
}

func (s *ServiceSuite) TestDelete() {
	created, err := s.service.Create(s.ctx, input("Temp"))
	s.Require().NoError(err)
	s.nextEvent()

	s.Require().NoError(s.service.Delete(s.ctx, created.ID))
	ev := s.nextEvent()
	s.Equal(events.ActionDeleted, ev.Action)
	s.Nil(ev.Contact)

	_, err = s.service.Get(s.ctx, created.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.service.Delete(s.ctx, created.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestListSortsThenFilters() {
	for _, name := range []string{"Carl", "Amy"} {
		_, err := s.service.Create(s.ctx, input(name))
		s.Require().NoError(err)
	}

	all, err := s.service.List(s.ctx, "", models.ScopeAll)
	s.Require().NoError(err)
	s.Equal([]string{"Amy", "Carl"}, s.names(all))

	_, err = s.service.Create(s.ctx, input("bob"))
	s.Require().NoError(err)

	all, err = s.service.List(s.ctx, "", models.ScopeAll)
	s.Require().NoError(err)
	s.Equal([]string{"Amy", "bob", "Carl"}, s.names(all))

	filtered, err := s.service.List(s.ctx, "A", models.ScopeName)
	s.Require().NoError(err)
	s.Equal([]string{"Amy", "Carl"}, s.names(filtered))
}

func (s *ServiceSuite) TestCheckField() {
	s.Run("phone is shaped then checked", func() {
		got := s.service.CheckField(models.FieldPhone, "(555) 123-45")
		s.Equal(FieldCheck{Field: models.FieldPhone, Error: validation.MsgPhoneDigits, Shaped: "55512345"}, got)

		got = s.service.CheckField(models.FieldPhone, "555-123-4567-99")
		s.Equal(FieldCheck{Field: models.FieldPhone, Error: "", Shaped: "5551234567"}, got)
	})

	s.Run("email uses the live message", func() {
		got := s.service.CheckField(models.FieldEmail, "jane@")
		s.Equal(validation.MsgEmailInvalidLive, got.Error)
		s.Equal("jane@", got.Shaped)
	})

	s.Run("lenient policy neither shapes nor rejects phone", func() {
		lenient := New(s.store, WithValidator(validation.New(validation.WithPhonePolicy(validation.PhoneLenient))))
		got := lenient.CheckField(models.FieldPhone, "+1 555")
		s.Equal(FieldCheck{Field: models.FieldPhone, Error: "", Shaped: "+1 555"}, got)
	})
}

func (s *ServiceSuite) TestStoreFailures() {
	ctrl := gomock.NewController(s.T())
	mockStore := mocks.NewMockStore(ctrl)
	mockPublisher := mocks.NewMockEventPublisher(ctrl)
	svc := New(mockStore, WithLogger(quietLogger()), WithEventPublisher(mockPublisher))
	storeDown := fmt.Errorf("insert contact: %w", errors.New("connection refused"))

	s.Run("failed create surfaces the cause and emits nothing", func() {
		mockStore.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil, storeDown)

		_, err := svc.Create(s.ctx, input("Jane"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.Contains(err.Error(), "connection refused")
	})

	s.Run("failed list is unavailable", func() {
		mockStore.EXPECT().List(gomock.Any()).Return(nil, fmt.Errorf("list: %w", sentinel.ErrUnavailable))

		_, err := svc.List(s.ctx, "x", models.ScopeAll)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("failed delete is unavailable", func() {
		mockStore.EXPECT().Delete(gomock.Any(), id.ContactID("c1")).Return(storeDown)

		err := svc.Delete(s.ctx, "c1")
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("wrapped not found from update maps to not found", func() {
		mockStore.EXPECT().Upsert(gomock.Any(), gomock.Any()).
			Return(nil, fmt.Errorf("update contact c1: %w", sentinel.ErrNotFound))

		_, err := svc.Update(s.ctx, "c1", input("Jane"))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("validation failure never reaches the store", func() {
		_, err := svc.Create(s.ctx, models.Input{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("publisher failure does not fail the write", func() {
		saved := &models.Contact{ID: "c2", Name: "Jane", Email: "someone@example.com", Phone: "5551234567", Tags: []string{}}
		mockStore.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(saved, nil)
		mockPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(events.ErrQueueFull)

		got, err := svc.Create(s.ctx, input("Jane"))
		s.Require().NoError(err)
		s.Equal(saved.ID, got.ID)
	})

	s.Run("update passes the draft with the existing id", func() {
		mockStore.EXPECT().Upsert(gomock.Any(), gomock.Cond(func(d models.Draft) bool {
			return d.ID == "c3" && d.Name == "Jane"
		})).Return(&models.Contact{ID: "c3", Name: "Jane", Tags: []string{}}, nil)
		mockPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		got, err := svc.Update(s.ctx, "c3", input(" Jane "))
		s.Require().NoError(err)
		s.Equal(id.ContactID("c3"), got.ID)
	})
}

func TestFullQueueIsLoggedOnce(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	publisher := events.NewPublisher(events.WithQueueSize(1), events.WithLogger(logger))
	svc := New(store.NewInMemory(), WithLogger(logger), WithEventPublisher(publisher))
	ctx := requestcontext.WithRequestID(context.Background(), "req-full")

	_, err := svc.Create(ctx, models.Input{Name: "Ann", Email: "ann@example.com", Phone: "5551234567"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.Input{Name: "Bob", Email: "bob@example.com", Phone: "5557654321"})
	require.NoError(t, err, "a full queue must not fail the write")

	out := logs.String()
	require.Equal(t, 1, strings.Count(out, "level=WARN"), out)
	require.Contains(t, out, "request_id=req-full")
}
