package cache

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"
)

// Memory is an in-process JSON cache with per-key expiry. Values are stored
// serialized so readers never share state with writers.
type Memory struct {
	mu      sync.RWMutex
	data    map[string]memoryEntry
	now     func() time.Time
	ticker  *time.Ticker
	stop    chan struct{}
	stopped sync.Once
}

type memoryEntry struct {
	value    []byte
	expireAt time.Time
}

func NewMemory(cleanupInterval time.Duration) *Memory {
	m := &Memory{
		data: make(map[string]memoryEntry),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	if cleanupInterval > 0 {
		m.ticker = time.NewTicker(cleanupInterval)
		go m.cleanup()
	}
	return m
}

func (m *Memory) cleanup() {
	for {
		select {
		case <-m.ticker.C:
			m.cleanExpired()
		case <-m.stop:
			m.ticker.Stop()
			return
		}
	}
}

func (m *Memory) cleanExpired() {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.data {
		if now.After(e.expireAt) {
			delete(m.data, k)
		}
	}
}

func (m *Memory) GetJSON(_ context.Context, key string, out any) (bool, error) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok || m.now().After(e.expireAt) {
		return false, nil
	}
	if err := json.Unmarshal(e.value, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = memoryEntry{value: b, expireAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// DeleteByPattern accepts the same glob syntax as redis SCAN MATCH for the
// key shapes used here (`*`, `?`, character classes).
func (m *Memory) DeleteByPattern(_ context.Context, pattern string) error {
	if pattern == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		ok, err := path.Match(pattern, k)
		if err != nil {
			return err
		}
		if ok {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *Memory) Close() error {
	m.stopped.Do(func() {
		close(m.stop)
	})
	return nil
}
