package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore keeps one JSON document per dialogue under dialogue:<id>.
// Reads refresh the TTL; updates run under WATCH so a concurrent writer
// aborts the transaction.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (s *redisStore) key(id string) string {
	return recordKeyPrefix + id
}

func (s *redisStore) Create(ctx context.Context, rec *Record) error {
	now := time.Now()
	rec.CreatedAt, rec.UpdatedAt = now, now
	rec.Version = 1

	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	created, err := s.client.SetNX(ctx, s.key(rec.ID), body, s.ttl).Result()
	if err != nil {
		return err
	}
	if !created {
		return ErrAlreadyExists
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, id string) (*Record, error) {
	key := s.key(id)
	body, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, err
	}
	_ = s.client.Expire(ctx, key, s.ttl).Err()
	return &rec, nil
}

func (s *redisStore) Update(ctx context.Context, rec *Record) error {
	key := s.key(rec.ID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		body, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var stored Record
		if err := json.Unmarshal(body, &stored); err != nil {
			return err
		}
		if stored.Version != rec.Version {
			return ErrVersionConflict
		}

		next := *rec
		next.Version++
		next.CreatedAt = stored.CreatedAt
		next.UpdatedAt = time.Now()
		out, err := json.Marshal(&next)
		if err != nil {
			return err
		}

		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttl)
			return nil
		}); err != nil {
			return err
		}
		*rec = next
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	return err
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
