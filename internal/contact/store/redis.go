package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"contactbook/internal/contact/models"
	id "contactbook/pkg/domain"
	"contactbook/pkg/platform/sentinel"
)

const (
	redisContactKeyPrefix = "contact:"
	redisIndexKey         = "contacts:ids"
)

// RedisStore keeps one JSON value per contact plus a set indexing the ids.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedis constructs a Redis-backed contact store.
func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func contactKey(contactID id.ContactID) string {
	return redisContactKeyPrefix + contactID.String()
}

func (s *RedisStore) List(ctx context.Context) ([]models.Contact, error) {
	ids, err := s.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list contact ids: %w", err)
	}
	contacts := []models.Contact{}
	if len(ids) == 0 {
		return contacts, nil
	}

	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		keys = append(keys, contactKey(id.ContactID(raw)))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry without a value; skip the dangling id
			continue
		}
		var c models.Contact
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("decode contact %s: %w", ids[i], err)
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

func (s *RedisStore) FindByID(ctx context.Context, contactID id.ContactID) (*models.Contact, error) {
	raw, err := s.client.Get(ctx, contactKey(contactID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	var c models.Contact
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode contact %s: %w", contactID, err)
	}
	return &c, nil
}

func (s *RedisStore) Upsert(ctx context.Context, draft models.Draft) (*models.Contact, error) {
	contactID := draft.ID
	if draft.IsNew() {
		contactID = id.NewContactID()
	}
	c := draft.WithID(contactID)
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode contact: %w", err)
	}

	if !draft.IsNew() {
		// SET XX only writes when the key already exists.
		ok, err := s.client.SetXX(ctx, contactKey(contactID), payload, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("update contact: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("update contact %s: %w", contactID, sentinel.ErrNotFound)
		}
		return &c, nil
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, contactKey(contactID), payload, 0)
		pipe.SAdd(ctx, redisIndexKey, contactID.String())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	return &c, nil
}

func (s *RedisStore) Delete(ctx context.Context, contactID id.ContactID) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, contactKey(contactID))
		pipe.SRem(ctx, redisIndexKey, contactID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if del.Val() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
