// Package cache holds the in-memory stores of the UI server, chiefly the
// per-session workspaces, and the janitor that sweeps them.
package cache

import (
	"context"
	"sync"
	"time"

	"fintrack/internal/log"
)

// Cleaner is a store whose expired entries can be swept.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps every registered store on a fixed interval.
type Manager struct {
	logger *log.Logger

	mu     sync.Mutex
	stores []Cleaner
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(logger *log.Logger) *Manager {
	return &Manager{logger: log.OrDefault(logger, log.ComponentSession)}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores = append(m.stores, c)
}

// StartCleanup launches the sweep loop. Only the first call does anything.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := m.CleanNow(); n > 0 {
					m.logger.Debug("Evicted idle sessions", log.FieldCount, n)
				}
			}
		}
	}()
}

// CleanNow sweeps once and returns the number of entries removed.
func (m *Manager) CleanNow() int {
	m.mu.Lock()
	stores := append([]Cleaner(nil), m.stores...)
	m.mu.Unlock()

	n := 0
	for _, s := range stores {
		n += s.CleanExpired()
	}
	return n
}

// Stop ends the sweep loop and waits for it. Safe to call more than once.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}
