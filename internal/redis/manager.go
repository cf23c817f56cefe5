package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Manager owns the connection used by report sinks.
type Manager struct {
	client *redis.Client
	addr   string
}

func NewManager(addr string) *Manager {
	return &Manager{addr: addr}
}

// Start connects and verifies the server answers PING.
func (m *Manager) Start(ctx context.Context) error {
	m.client = redis.NewClient(&redis.Options{
		Addr:        m.addr,
		DB:          0,
		DialTimeout: 5 * time.Second,
	})

	if err := m.client.Ping(ctx).Err(); err != nil {
		_ = m.client.Close()
		m.client = nil
		return fmt.Errorf("connect redis %s: %w", m.addr, err)
	}
	return nil
}

func (m *Manager) Stop() error {
	if m.client == nil {
		return nil
	}
	if err := m.client.Close(); err != nil {
		return fmt.Errorf("close redis %s: %w", m.addr, err)
	}
	m.client = nil
	return nil
}

// Client returns nil until Start succeeds.
func (m *Manager) Client() *redis.Client {
	return m.client
}
