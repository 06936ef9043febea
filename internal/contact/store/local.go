package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"contactbook/internal/contact/models"
	id "contactbook/pkg/domain"
	"contactbook/pkg/platform/sentinel"
)

// LocalStorageKey is the key the whole collection is stored under.
const LocalStorageKey = "cms_contacts_v1"

// LocalStore keeps the entire collection as a single JSON document in a
// key/value table of an embedded SQLite file. Every write replaces the
// document in one statement, so a failed write leaves the previous
// collection in place.
type LocalStore struct {
	db     *sql.DB
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// LocalOption configures a LocalStore.
type LocalOption func(*LocalStore)

// WithLocalLogger sets the logger used to report unreadable documents.
func WithLocalLogger(logger *slog.Logger) LocalOption {
	return func(s *LocalStore) {
		s.logger = logger
	}
}

// NewLocal opens (or creates) the SQLite file at path.
func NewLocal(path string, opts ...LocalOption) (*LocalStore, error) {
	if path == "" {
		path = "contacts.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS local_storage (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create local_storage table: %w", err)
	}

	s := &LocalStore{db: db, path: path, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Close releases the database handle.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// Path returns the configured database path.
func (s *LocalStore) Path() string { return s.path }

// load reads the stored document. A missing or undecodable document yields
// an empty collection.
func (s *LocalStore) load(ctx context.Context) ([]models.Contact, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key = ?`, LocalStorageKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []models.Contact{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", LocalStorageKey, err)
	}

	var contacts []models.Contact
	if err := json.Unmarshal([]byte(raw), &contacts); err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable local contacts document",
			"key", LocalStorageKey,
			"error", err,
		)
		return []models.Contact{}, nil
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	return contacts, nil
}

func (s *LocalStore) save(ctx context.Context, contacts []models.Contact) error {
	data, err := json.Marshal(contacts)
	if err != nil {
		return fmt.Errorf("encode contacts: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO local_storage(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		LocalStorageKey, string(data))
	if err != nil {
		return fmt.Errorf("write %s: %w", LocalStorageKey, err)
	}
	return nil
}

func (s *LocalStore) List(ctx context.Context) ([]models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *LocalStore) FindByID(ctx context.Context, contactID id.ContactID) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contacts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(contacts, contactID)
	if i < 0 {
		return nil, sentinel.ErrNotFound
	}
	return &contacts[i], nil
}

func (s *LocalStore) Upsert(ctx context.Context, draft models.Draft) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contacts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var c models.Contact
	if draft.IsNew() {
		contactID := id.NewContactID()
		for indexOf(contacts, contactID) >= 0 {
			contactID = id.NewContactID()
		}
		c = draft.WithID(contactID)
		contacts = append(contacts, c)
	} else {
		i := indexOf(contacts, draft.ID)
		if i < 0 {
			return nil, fmt.Errorf("update contact %s: %w", draft.ID, sentinel.ErrNotFound)
		}
		c = draft.WithID(draft.ID)
		contacts[i] = c
	}

	if err := s.save(ctx, contacts); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *LocalStore) Delete(ctx context.Context, contactID id.ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	contacts, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(contacts, contactID)
	if i < 0 {
		return sentinel.ErrNotFound
	}
	return s.save(ctx, slices.Delete(contacts, i, i+1))
}

func indexOf(contacts []models.Contact, contactID id.ContactID) int {
	return slices.IndexFunc(contacts, func(c models.Contact) bool { return c.ID == contactID })
}
