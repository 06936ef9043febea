// Package handler exposes the contact service over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"contactbook/internal/contact/models"
	"contactbook/internal/contact/service"
	id "contactbook/pkg/domain"
	"contactbook/pkg/platform/httputil"
	"contactbook/pkg/requestcontext"
)

// Service defines the contact operations the handler needs.
type Service interface {
	List(ctx context.Context, text string, scope models.Scope) ([]models.Contact, error)
	Get(ctx context.Context, contactID id.ContactID) (*models.Contact, error)
	Create(ctx context.Context, in models.Input) (*models.Contact, error)
	Update(ctx context.Context, contactID id.ContactID, in models.Input) (*models.Contact, error)
	Delete(ctx context.Context, contactID id.ContactID) error
	CheckField(field, value string) service.FieldCheck
}

// Handler wires contact endpoints to the contact service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a contact handler.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the contact endpoints on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Route("/contacts", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Post("/validate", h.HandleCheckField)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleList handles GET /contacts?q=&scope=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	scope, err := models.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	contacts, err := h.service.List(ctx, r.URL.Query().Get("q"), scope)
	if err != nil {
		h.fail(ctx, w, "list contacts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, contacts)
}

// HandleGet handles GET /contacts/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contactID, ok := h.contactID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(ctx, contactID)
	if err != nil {
		h.fail(ctx, w, "get contact", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// HandleCreate handles POST /contacts.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ContactRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.Create(ctx, req.ToInput())
	if err != nil {
		h.fail(ctx, w, "create contact", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

// HandleUpdate handles PUT /contacts/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	contactID, ok := h.contactID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ContactRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.Update(ctx, contactID, req.ToInput())
	if err != nil {
		h.fail(ctx, w, "update contact", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// HandleDelete handles DELETE /contacts/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contactID, ok := h.contactID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, contactID); err != nil {
		h.fail(ctx, w, "delete contact", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: MsgContactDeleted})
}

// HandleCheckField handles POST /contacts/validate, the per-keystroke check.
func (h *Handler) HandleCheckField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[FieldCheckRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.service.CheckField(req.Field, req.Value))
}

func (h *Handler) contactID(w http.ResponseWriter, r *http.Request) (id.ContactID, bool) {
	contactID, err := id.ParseContactID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return contactID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, action string, err error) {
	h.logger.WarnContext(ctx, action+" failed",
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
