package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"contactbook/internal/contact/models"
	id "contactbook/pkg/domain"
	"contactbook/pkg/platform/circuit"
	"contactbook/pkg/platform/sentinel"
)

const defaultRemoteTimeout = 10 * time.Second

// RemoteStore talks to a remote contacts API rooted at a base URL:
//
//	GET    {base}/contacts
//	GET    {base}/contacts/{id}
//	POST   {base}/contacts
//	PUT    {base}/contacts/{id}
//	DELETE {base}/contacts/{id}
//
// Responses may identify contacts with either "id" or "_id".
type RemoteStore struct {
	base       string
	httpClient *http.Client
	breaker    *circuit.Breaker
	logger     *slog.Logger
}

// RemoteOption configures a RemoteStore.
type RemoteOption func(*RemoteStore)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(s *RemoteStore) {
		s.httpClient = c
	}
}

// WithRemoteLogger sets the logger used for circuit transitions.
func WithRemoteLogger(logger *slog.Logger) RemoteOption {
	return func(s *RemoteStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBreaker fails calls fast while the remote API is unhealthy.
func WithBreaker(b *circuit.Breaker) RemoteOption {
	return func(s *RemoteStore) {
		s.breaker = b
	}
}

// NewRemote constructs a store backed by the API at baseURL.
func NewRemote(baseURL string, opts ...RemoteOption) (*RemoteStore, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid remote contacts url %q", baseURL)
	}
	s := &RemoteStore{
		base: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultRemoteTimeout,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// contactPayload is the request body for create and update.
type contactPayload struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone"`
	Company string   `json:"company"`
	Tags    []string `json:"tags"`
	Notes   string   `json:"notes"`
}

func payloadFromDraft(d models.Draft) contactPayload {
	c := d.WithID(d.ID)
	return contactPayload{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Company: c.Company,
		Tags:    c.Tags,
		Notes:   c.Notes,
	}
}

func (s *RemoteStore) contactURL(contactID id.ContactID) string {
	return s.base + "/contacts/" + url.PathEscape(contactID.String())
}

func (s *RemoteStore) List(ctx context.Context) ([]models.Contact, error) {
	contacts := []models.Contact{}
	if err := s.do(ctx, http.MethodGet, s.base+"/contacts", nil, &contacts); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	for i := range contacts {
		if contacts[i].Tags == nil {
			contacts[i].Tags = []string{}
		}
	}
	return contacts, nil
}

func (s *RemoteStore) FindByID(ctx context.Context, contactID id.ContactID) (*models.Contact, error) {
	var c models.Contact
	if err := s.do(ctx, http.MethodGet, s.contactURL(contactID), nil, &c); err != nil {
		return nil, fmt.Errorf("get contact %s: %w", contactID, err)
	}
	return &c, nil
}

func (s *RemoteStore) Upsert(ctx context.Context, draft models.Draft) (*models.Contact, error) {
	var (
		c      models.Contact
		method = http.MethodPost
		target = s.base + "/contacts"
	)
	if !draft.IsNew() {
		method = http.MethodPut
		target = s.contactURL(draft.ID)
	}
	if err := s.do(ctx, method, target, payloadFromDraft(draft), &c); err != nil {
		return nil, fmt.Errorf("save contact: %w", err)
	}
	if c.ID.IsNil() {
		return nil, fmt.Errorf("save contact: response carries no id: %w", sentinel.ErrUnavailable)
	}
	return &c, nil
}

func (s *RemoteStore) Delete(ctx context.Context, contactID id.ContactID) error {
	if err := s.do(ctx, http.MethodDelete, s.contactURL(contactID), nil, nil); err != nil {
		return fmt.Errorf("delete contact %s: %w", contactID, err)
	}
	return nil
}

// do sends one request through the breaker. Only transport failures and 5xx
// responses count against it; requests abandoned by the caller do not.
func (s *RemoteStore) do(ctx context.Context, method, target string, body, out any) error {
	if s.breaker == nil {
		_, err := s.send(ctx, method, target, body, out)
		return err
	}
	if !s.breaker.Allow() {
		return fmt.Errorf("%w: circuit %s is open", sentinel.ErrUnavailable, s.breaker.Name())
	}
	serverFault, err := s.send(ctx, method, target, body, out)
	switch {
	case ctx.Err() != nil:
		s.breaker.Abandon()
	case serverFault:
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "remote contacts circuit opened",
				"circuit", s.breaker.Name(),
				"error", err,
			)
		}
	default:
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "remote contacts circuit closed",
				"circuit", s.breaker.Name(),
			)
		}
	}
	return err
}

// send performs the HTTP exchange. 404 maps to sentinel.ErrNotFound; transport failures
// and any other non-2xx status map to sentinel.ErrUnavailable carrying the
// server's message.
func (s *RemoteStore) send(ctx context.Context, method, target string, body, out any) (serverFault bool, err error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, sentinel.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode >= 500, fmt.Errorf("%w: http %d: %s", sentinel.ErrUnavailable, resp.StatusCode, remoteMessage(resp.Body))
	}
	if out == nil {
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return true, fmt.Errorf("%w: decode response: %v", sentinel.ErrUnavailable, err)
	}
	return false, nil
}

// remoteMessage extracts a human readable message from an error body. It
// understands both {"error_description": ...} and {"message": ...}.
func remoteMessage(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 4<<10))
	var envelope struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
		Message     string `json:"message"`
	}
	if json.Unmarshal(data, &envelope) == nil {
		switch {
		case envelope.Description != "":
			return envelope.Description
		case envelope.Message != "":
			return envelope.Message
		case envelope.Error != "":
			return envelope.Error
		}
	}
	if msg := strings.TrimSpace(string(data)); msg != "" {
		return msg
	}
	return "no response body"
}
