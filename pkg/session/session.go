// Package session manages the viewer sessions of the server.
//
// A session owns one [viewer.Loop] running on its own goroutine. Sessions are
// independent: two browser tabs never share filter, layout or selection
// state. Sessions live in memory only and expire after a period without
// requests.
//
// # Usage
//
//	m := session.NewManager(session.Options{Limit: 64, TTL: 30 * time.Minute})
//	defer m.Close()
//
//	sess, err := m.Create(viewer.New(g, opts))
//	if err != nil {
//	    return err
//	}
//	frame := sess.Loop().Snapshot()
//
// When the limit is reached, the least recently used session is evicted to
// make room for a new one.
package session

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/viewer"
)

// Default limits.
const (
	// DefaultTTL is how long a session survives without requests.
	DefaultTTL = 30 * time.Minute

	// DefaultLimit bounds the number of concurrent sessions.
	DefaultLimit = 64
)

// Session is one running viewer.
type Session struct {
	ID        string
	CreatedAt time.Time

	loop     *viewer.Loop
	cancel   context.CancelFunc
	lastSeen time.Time
}

// Loop returns the session's viewer loop.
func (s *Session) Loop() *viewer.Loop { return s.loop }

// IsExpired reports whether the session has been idle longer than ttl.
func (s *Session) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.lastSeen) > ttl
}

// stop cancels the loop and waits for it to exit.
func (s *Session) stop() {
	s.cancel()
	<-s.loop.Done()
}

// Options configures a [Manager].
type Options struct {
	Limit        int
	TTL          time.Duration
	TickInterval time.Duration
	Logger       *log.Logger
	// Now is the clock used for expiry; defaults to time.Now.
	Now func() time.Time
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.TickInterval <= 0 {
		o.TickInterval = viewer.DefaultTickInterval
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Manager is the in-memory session registry. It is safe for concurrent use.
type Manager struct {
	opts Options

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewManager creates an empty registry.
func NewManager(opts Options) *Manager {
	opts.SetDefaults()
	return &Manager{opts: opts, sessions: make(map[string]*Session)}
}

// GenerateID returns a new random session id.
func GenerateID() string { return uuid.NewString() }

// Create registers v under a new id and starts its loop. The loop runs
// until the session is deleted, expires or the manager is closed.
func (m *Manager) Create(v *viewer.Viewer) (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		v.Close()
		return nil, errors.New(errors.ErrCodeInternal, "session manager closed")
	}

	var evicted []*Session
	if len(m.sessions) >= m.opts.Limit {
		evicted = m.expireLocked()
	}
	if len(m.sessions) >= m.opts.Limit {
		if lru := m.lruLocked(); lru != nil {
			delete(m.sessions, lru.ID)
			evicted = append(evicted, lru)
			m.opts.Logger.Debug("evicted session", "id", lru.ID, "idle", m.opts.Now().Sub(lru.lastSeen))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := m.opts.Now()
	sess := &Session{
		ID:        GenerateID(),
		CreatedAt: now,
		loop:      viewer.NewLoop(v, m.opts.TickInterval),
		cancel:    cancel,
		lastSeen:  now,
	}
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	go func() { _ = sess.loop.Run(ctx) }()

	for _, s := range evicted {
		s.stop()
	}
	m.opts.Logger.Debug("created session", "id", sess.ID)
	return sess, nil
}

// ValidID reports whether id has the canonical form of a generated session
// id: a lowercase hyphenated UUID.
func ValidID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.String() == id
}

// Get returns the session with id and marks it as used. Unknown or expired
// ids return [errors.ErrCodeSessionNotFound].
func (m *Manager) Get(id string) (*Session, error) {
	if !ValidID(id) {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "invalid session id %q", id)
	}

	m.mu.Lock()
	sess, ok := m.sessions[id]
	now := m.opts.Now()
	if ok && sess.IsExpired(now, m.opts.TTL) {
		delete(m.sessions, id)
		m.mu.Unlock()
		sess.stop()
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s expired", id)
	}
	if ok {
		sess.lastSeen = now
	}
	m.mu.Unlock()

	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "no session %s", id)
	}
	return sess, nil
}

// Delete stops and removes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return errors.New(errors.ErrCodeSessionNotFound, "no session %s", id)
	}
	sess.stop()
	m.opts.Logger.Debug("deleted session", "id", id)
	return nil
}

// Cleanup stops every expired session and returns how many were removed.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	expired := m.expireLocked()
	m.mu.Unlock()

	for _, s := range expired {
		s.stop()
	}
	if len(expired) > 0 {
		m.opts.Logger.Debug("expired sessions", "count", len(expired))
	}
	return len(expired)
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// IDs returns the ids of the live sessions in creation order.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.Unlock()

	slices.SortFunc(all, func(a, b *Session) int { return a.CreatedAt.Compare(b.CreatedAt) })
	ids := make([]string, len(all))
	for i, s := range all {
		ids[i] = s.ID
	}
	return ids
}

// Close stops every session. Create fails afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	clear(m.sessions)
	m.mu.Unlock()

	for _, s := range all {
		s.stop()
	}
	return nil
}

func (m *Manager) expireLocked() []*Session {
	now := m.opts.Now()
	var out []*Session
	for id, s := range m.sessions {
		if s.IsExpired(now, m.opts.TTL) {
			delete(m.sessions, id)
			out = append(out, s)
		}
	}
	return out
}

func (m *Manager) lruLocked() *Session {
	var lru *Session
	for _, s := range m.sessions {
		if lru == nil || s.lastSeen.Before(lru.lastSeen) {
			lru = s
		}
	}
	return lru
}
