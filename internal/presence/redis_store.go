// Package presence mirrors participant liveness into Redis so presence UIs
// can read it without holding a room lock.
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Record is the data stored per room participant.
type Record struct {
	UserID    string    `json:"user_id"`
	RoomID    string    `json:"room_id"`
	Active    bool      `json:"active"`
	Cursor    int       `json:"cursor"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RedisStore implements presence mirroring using Redis. Entries carry a TTL
// so a crashed client eventually reads as absent without explicit cleanup.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a new Redis-backed presence store.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: "presence:",
		ttl:    60 * time.Second,
	}, nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "presence:",
		ttl:    60 * time.Second,
	}
}

func (s *RedisStore) key(roomID, userID string) string {
	return s.prefix + roomID + ":" + userID
}

// SetPresence writes one participant's liveness with the store TTL.
func (s *RedisStore) SetPresence(ctx context.Context, roomID, userID string, active bool, cursor int) error {
	rec := Record{
		UserID:    userID,
		RoomID:    roomID,
		Active:    active,
		Cursor:    cursor,
		UpdatedAt: time.Now(),
	}

	jsonData, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal presence record: %w", err)
	}

	if err := s.client.Set(ctx, s.key(roomID, userID), jsonData, s.ttl).Err(); err != nil {
		return fmt.Errorf("save presence: %w", err)
	}
	return nil
}

// GetPresence reads one participant's liveness record.
func (s *RedisStore) GetPresence(ctx context.Context, roomID, userID string) (Record, error) {
	jsonData, err := s.client.Get(ctx, s.key(roomID, userID)).Result()
	if err == redis.Nil {
		return Record{}, fmt.Errorf("presence not found or expired")
	}
	if err != nil {
		return Record{}, fmt.Errorf("lookup presence: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(jsonData), &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal presence record: %w", err)
	}
	return rec, nil
}

// RoomPresence lists all live records for one room.
func (s *RedisStore) RoomPresence(ctx context.Context, roomID string) ([]Record, error) {
	keys, err := s.client.Keys(ctx, s.prefix+roomID+":*").Result()
	if err != nil {
		return nil, fmt.Errorf("list presence keys: %w", err)
	}

	records := make([]Record, 0, len(keys))
	for _, key := range keys {
		jsonData, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read presence key %s: %w", key, err)
		}
		var rec Record
		if err := json.Unmarshal([]byte(jsonData), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// RemovePresence deletes one participant's record.
func (s *RedisStore) RemovePresence(ctx context.Context, roomID, userID string) error {
	if err := s.client.Del(ctx, s.key(roomID, userID)).Err(); err != nil {
		return fmt.Errorf("remove presence: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
