package instance

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mediavault/vaulterr"
)

// unloadInterval is how often the background watcher checks every instance
// for inactivity-driven unload (§4.7).
const unloadInterval = 20 * time.Second

// Manager owns a map of instances; each instance owns its own mutable
// slots (§9 Design Notes — there is no truly global state). Config
// propagates via explicit struct passing at construction.
type Manager struct {
	log zerolog.Logger

	mu        sync.RWMutex
	instances map[string]*Instance

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager constructs a Manager over configs and starts the 20-second
// background unload watcher, stopped by calling Close.
func NewManager(configs []Config, log zerolog.Logger) *Manager {
	instances := make(map[string]*Instance, len(configs))
	for _, cfg := range configs {
		instances[cfg.ID] = newInstance(cfg, log)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		log:       log,
		instances: instances,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go m.watchUnload(ctx)
	return m
}

// Close stops the unload watcher and closes every instance's loaded bucket.
func (m *Manager) Close() {
	m.cancel()
	<-m.done

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, inst := range m.instances {
		inst.Close()
	}
}

func (m *Manager) watchUnload(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(unloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.sweepUnload(now)
		}
	}
}

func (m *Manager) sweepUnload(now time.Time) {
	m.mu.RLock()
	instances := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		instances = append(instances, inst)
	}
	m.mu.RUnlock()

	for _, inst := range instances {
		inst.Sweep(now)
	}
}

// Get returns the instance for id, or (nil, false) if unknown.
func (m *Manager) Get(id string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[id]
	return inst, ok
}

// Login resolves the instance named by id and logs in against it.
func (m *Manager) Login(ctx context.Context, id, password, ip string) (LoginResult, error) {
	inst, ok := m.Get(id)
	if !ok {
		return LoginResult{}, vaulterr.NotFound.New("no such instance %q", id)
	}
	return inst.Login(ctx, password, ip)
}

// Resolve resolves a session against the instance named by id.
func (m *Manager) Resolve(id, token, ip string, now time.Time) (Session, error) {
	inst, ok := m.Get(id)
	if !ok {
		return Session{}, vaulterr.NotFound.New("no such instance %q", id)
	}
	return inst.Resolve(token, ip, now)
}
