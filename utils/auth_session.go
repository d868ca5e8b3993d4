package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const PanelSessionPrefix = "panelSession:"

// ErrSessionNotFound is returned when a token has no live session.
var ErrSessionNotFound = errors.New("panel session not found")

// PanelSession represents an authenticated doctor-panel session, issued
// after the queue's secret code has been verified.
type PanelSession struct {
	QueueID   string    `json:"queueId"`
	CreatedAt time.Time `json:"createdAt"`
}

// PanelSessionStore persists panel sessions. Redis backs it in
// production; the in-memory implementation serves tests and single-node
// development.
type PanelSessionStore interface {
	Save(token string, session PanelSession, ttl time.Duration) error
	Get(token string) (*PanelSession, error)
	Delete(token string) error
}

type redisPanelSessionStore struct {
	client *redis.Client
}

// NewRedisPanelSessionStore returns a PanelSessionStore over Redis.
func NewRedisPanelSessionStore(client *redis.Client) PanelSessionStore {
	return &redisPanelSessionStore{client: client}
}

func (s *redisPanelSessionStore) Save(token string, session PanelSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal panel session: %w", err)
	}
	ctx := context.Background()
	if err := s.client.Set(ctx, PanelSessionPrefix+token, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save panel session: %w", err)
	}
	return nil
}

func (s *redisPanelSessionStore) Get(token string) (*PanelSession, error) {
	ctx := context.Background()
	data, err := s.client.Get(ctx, PanelSessionPrefix+token).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var session PanelSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal panel session: %w", err)
	}
	return &session, nil
}

func (s *redisPanelSessionStore) Delete(token string) error {
	ctx := context.Background()
	return s.client.Del(ctx, PanelSessionPrefix+token).Err()
}

type memorySessionEntry struct {
	session   PanelSession
	expiresAt time.Time
}

type memoryPanelSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySessionEntry
}

// NewMemoryPanelSessionStore returns an in-memory PanelSessionStore.
func NewMemoryPanelSessionStore() PanelSessionStore {
	return &memoryPanelSessionStore{sessions: make(map[string]memorySessionEntry)}
}

func (s *memoryPanelSessionStore) Save(token string, session PanelSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memorySessionEntry{session: session}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.sessions[token] = entry
	return nil
}

func (s *memoryPanelSessionStore) Get(token string) (*PanelSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return nil, ErrSessionNotFound
	}
	session := entry.session
	return &session, nil
}

func (s *memoryPanelSessionStore) Delete(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
