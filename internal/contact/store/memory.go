// Package store holds the interchangeable contact persistence backends.
//
// Every backend honors the same contract: FindByID, Delete and updating
// Upserts return sentinel.ErrNotFound (possibly wrapped) for unknown ids, a
// Draft without an id is minted a fresh one, and a failed write leaves the
// collection untouched.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"contactbook/internal/contact/models"
	id "contactbook/pkg/domain"
	"contactbook/pkg/platform/sentinel"
)

// InMemory keeps contacts in a map guarded by a RWMutex. List returns them
// in insertion order.
type InMemory struct {
	mu       sync.RWMutex
	contacts map[id.ContactID]models.Contact
	order    []id.ContactID
}

// NewInMemory returns an empty store, optionally seeded.
func NewInMemory(seed ...models.Contact) *InMemory {
	s := &InMemory{contacts: make(map[id.ContactID]models.Contact)}
	for _, c := range seed {
		if _, ok := s.contacts[c.ID]; !ok {
			s.order = append(s.order, c.ID)
		}
		s.contacts[c.ID] = c.Clone()
	}
	return s
}

func (s *InMemory) List(_ context.Context) ([]models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Contact, 0, len(s.order))
	for _, contactID := range s.order {
		out = append(out, s.contacts[contactID].Clone())
	}
	return out, nil
}

func (s *InMemory) FindByID(_ context.Context, contactID id.ContactID) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contacts[contactID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := c.Clone()
	return &found, nil
}

func (s *InMemory) Upsert(_ context.Context, draft models.Draft) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if draft.IsNew() {
		contactID := id.NewContactID()
		for _, taken := s.contacts[contactID]; taken; _, taken = s.contacts[contactID] {
			contactID = id.NewContactID()
		}
		c := draft.WithID(contactID)
		s.contacts[contactID] = c
		s.order = append(s.order, contactID)
		saved := c.Clone()
		return &saved, nil
	}

	if _, ok := s.contacts[draft.ID]; !ok {
		return nil, fmt.Errorf("update contact %s: %w", draft.ID, sentinel.ErrNotFound)
	}
	c := draft.WithID(draft.ID)
	s.contacts[draft.ID] = c
	saved := c.Clone()
	return &saved, nil
}

func (s *InMemory) Delete(_ context.Context, contactID id.ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[contactID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.contacts, contactID)
	s.order = slices.DeleteFunc(s.order, func(other id.ContactID) bool { return other == contactID })
	return nil
}
