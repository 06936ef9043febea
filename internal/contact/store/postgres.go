package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"contactbook/internal/contact/models"
	id "contactbook/pkg/domain"
	"contactbook/pkg/platform/sentinel"
)

// Schema creates the contacts table. Applied by PostgresStore.Migrate.
const Schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	phone      TEXT NOT NULL DEFAULT '',
	company    TEXT NOT NULL DEFAULT '',
	tags       TEXT[] NOT NULL DEFAULT '{}',
	notes      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const contactColumns = `id, name, email, phone, company, tags, notes`

// PostgresStore persists contacts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed contact store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the contacts table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate contacts: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Contact, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, contactID id.ContactID) (*models.Contact, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, contactID.String())
	c, err := scanContact(row)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, draft models.Draft) (*models.Contact, error) {
	if draft.IsNew() {
		c := draft.WithID(id.NewContactID())
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO contacts (id, name, email, phone, company, tags, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			c.ID.String(), c.Name, c.Email, c.Phone, c.Company, pq.Array(c.Tags), c.Notes)
		if err != nil {
			return nil, fmt.Errorf("insert contact: %w", err)
		}
		return &c, nil
	}

	c := draft.WithID(draft.ID)
	res, err := s.db.ExecContext(ctx, `
		UPDATE contacts
		SET name = $2, email = $3, phone = $4, company = $5, tags = $6, notes = $7, updated_at = now()
		WHERE id = $1`,
		c.ID.String(), c.Name, c.Email, c.Phone, c.Company, pq.Array(c.Tags), c.Notes)
	if err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}
	if err := requireRow(res); err != nil {
		return nil, fmt.Errorf("update contact %s: %w", c.ID, err)
	}
	return &c, nil
}

func (s *PostgresStore) Delete(ctx context.Context, contactID id.ContactID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, contactID.String())
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (models.Contact, error) {
	var (
		c         models.Contact
		contactID string
		tags      []string
	)
	err := row.Scan(&contactID, &c.Name, &c.Email, &c.Phone, &c.Company, pq.Array(&tags), &c.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Contact{}, sentinel.ErrNotFound
		}
		return models.Contact{}, fmt.Errorf("scan contact: %w", err)
	}
	c.ID = id.ContactID(contactID)
	if tags == nil {
		tags = []string{}
	}
	c.Tags = tags
	return c, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
