package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the conversation store collaborator. Implementations must treat
// entries older than the staleness threshold as absent.
type Store interface {
	// Get returns the sender's state, or nil when there is none (including
	// stale entries, which are discarded).
	Get(ctx context.Context, sender string) (*ConversationState, error)
	// Set upserts the sender's state and refreshes its expiry.
	Set(ctx context.Context, sender string, state ConversationState) error
	// Delete removes the sender's state. Deleting a missing key is not an error.
	Delete(ctx context.Context, sender string) error
}

const conversationKeyPrefix = "conversation:"

// RedisStore keeps conversation state in Redis, one JSON value per sender,
// with the staleness threshold doubling as the key TTL.
type RedisStore struct {
	client    *redis.Client
	staleness time.Duration
	now       func() time.Time
}

// NewRedisStore creates a conversation store backed by the given Redis client.
func NewRedisStore(client *redis.Client, staleness time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		staleness: staleness,
		now:       time.Now,
	}
}

func conversationKey(sender string) string {
	return conversationKeyPrefix + sender
}

func (s *RedisStore) Get(ctx context.Context, sender string) (*ConversationState, error) {
	raw, err := s.client.Get(ctx, conversationKey(sender)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation state: %w", err)
	}

	var state ConversationState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		// A corrupt entry is unrecoverable; drop it rather than wedging the
		// sender's conversation forever.
		_ = s.client.Del(ctx, conversationKey(sender)).Err()
		return nil, nil
	}

	// The TTL already bounds lifetime, but the stored timestamp is the source
	// of truth so a TTL misconfiguration can never resurrect a stale flow.
	if s.now().Sub(state.UpdatedAt) > s.staleness {
		_ = s.client.Del(ctx, conversationKey(sender)).Err()
		return nil, nil
	}

	return &state, nil
}

func (s *RedisStore) Set(ctx context.Context, sender string, state ConversationState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal conversation state: %w", err)
	}
	if err := s.client.Set(ctx, conversationKey(sender), payload, s.staleness).Err(); err != nil {
		return fmt.Errorf("set conversation state: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sender string) error {
	if err := s.client.Del(ctx, conversationKey(sender)).Err(); err != nil {
		return fmt.Errorf("delete conversation state: %w", err)
	}
	return nil
}

// SweepStale scans all conversation keys and removes entries older than the
// staleness threshold. The TTL normally handles this; the sweep is a safety
// net for keys written without one. Returns the number of removed entries.
func (s *RedisStore) SweepStale(ctx context.Context) (int, error) {
	var removed int
	iter := s.client.Scan(ctx, 0, conversationKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		raw, err := s.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("sweep get %s: %w", key, err)
		}

		var state ConversationState
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			if err := s.client.Del(ctx, key).Err(); err == nil {
				removed++
			}
			continue
		}

		if s.now().Sub(state.UpdatedAt) > s.staleness {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				return removed, fmt.Errorf("sweep delete %s: %w", key, err)
			}
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("sweep scan: %w", err)
	}
	return removed, nil
}
