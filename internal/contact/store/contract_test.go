package store

import (
	"context"
	"sync"

	"github.com/stretchr/testify/suite"

	"contactbook/internal/contact/models"
	id "contactbook/pkg/domain"
	"contactbook/pkg/platform/sentinel"
)

type contactStore interface {
	List(ctx context.Context) ([]models.Contact, error)
	FindByID(ctx context.Context, contactID id.ContactID) (*models.Contact, error)
	Upsert(ctx context.Context, draft models.Draft) (*models.Contact, error)
	Delete(ctx context.Context, contactID id.ContactID) error
}

// ContractSuite exercises the behaviour every backend shares. Embedders set
// newStore and may override SetupTest to reset external state first.
type ContractSuite struct {
	suite.Suite
	ctx      context.Context
	newStore func() contactStore
	store    contactStore
}

func (s *ContractSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
}

func draft(name string, tags ...string) models.Draft {
	if tags == nil {
		tags = []string{}
	}
	return models.Draft{
		Name:  name,
		Email: "someone@example.com",
		Phone: "5551234567",
		Tags:  tags,
	}
}

func (s *ContractSuite) TestCreateMintsID() {
	created, err := s.store.Upsert(s.ctx, draft("Jane", "vip"))
	s.Require().NoError(err)
	s.False(created.ID.IsNil())
	s.Equal("Jane", created.Name)
	s.Equal([]string{"vip"}, created.Tags)

	other, err := s.store.Upsert(s.ctx, draft("Bob"))
	s.Require().NoError(err)
	s.NotEqual(created.ID, other.ID)

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(*created, *found)
}

func (s *ContractSuite) TestPersistedDefaults() {
	created, err := s.store.Upsert(s.ctx, models.Draft{Name: "Min", Email: "m@x.io"})
	s.Require().NoError(err)

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("", found.Phone)
	s.Equal("", found.Company)
	s.Equal("", found.Notes)
	s.NotNil(found.Tags)
	s.Empty(found.Tags)
}

func (s *ContractSuite) TestUpdateReplacesRecord() {
	created, err := s.store.Upsert(s.ctx, models.Draft{
		Name: "Jane", Email: "j@x.io", Phone: "5551234567", Company: "Acme", Tags: []string{"a"}, Notes: "n",
	})
	s.Require().NoError(err)

	updated, err := s.store.Upsert(s.ctx, models.Draft{
		ID: created.ID, Name: "Jane Q", Email: "jq@x.io", Phone: "5550000000", Tags: []string{"b", "b"},
	})
	s.Require().NoError(err)
	s.Equal(created.ID, updated.ID)

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(models.Contact{
		ID: created.ID, Name: "Jane Q", Email: "jq@x.io", Phone: "5550000000", Company: "", Tags: []string{"b", "b"}, Notes: "",
	}, *found)

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *ContractSuite) TestUnknownIDs() {
	missing := id.NewContactID()

	_, err := s.store.FindByID(s.ctx, missing)
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.Delete(s.ctx, missing)
	s.ErrorIs(err, sentinel.ErrNotFound)

	d := draft("Ghost")
	d.ID = missing
	_, err = s.store.Upsert(s.ctx, d)
	s.ErrorIs(err, sentinel.ErrNotFound)

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(all, "failed update must not create a record")
}

func (s *ContractSuite) TestDelete() {
	keep, err := s.store.Upsert(s.ctx, draft("Keep"))
	s.Require().NoError(err)
	gone, err := s.store.Upsert(s.ctx, draft("Gone"))
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(s.ctx, gone.ID))

	_, err = s.store.FindByID(s.ctx, gone.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(s.ctx, gone.ID), sentinel.ErrNotFound)

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal(keep.ID, all[0].ID)
}

func (s *ContractSuite) TestListEmpty() {
	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.NotNil(all)
	s.Empty(all)
}

func (s *ContractSuite) TestConcurrentCreates() {
	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Upsert(s.ctx, draft("Concurrent"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, writers)
}
