package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/contribnet/pkg/contrib"
	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/graph"
	"github.com/matzehuels/contribnet/pkg/viewer"
)

func testViewer(t *testing.T) *viewer.Viewer {
	t.Helper()
	g, err := graph.Build([]contrib.Record{
		contrib.NewRecord([]contrib.Person{{Name: "Ada"}}, contrib.Format{}, []string{"graphs"}),
	}, graph.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return viewer.New(g, viewer.Options{})
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestCreateGetDelete(t *testing.T) {
	m := NewManager(Options{})
	defer m.Close()

	sess, err := m.Create(testViewer(t))
	if err != nil {
		t.Fatal(err)
	}
	if !ValidID(sess.ID) {
		t.Errorf("id %q is not a canonical uuid", sess.ID)
	}

	got, err := m.Get(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != sess {
		t.Error("Get returned a different session")
	}
	if f := got.Loop().Snapshot(); len(f.Nodes) != 2 {
		t.Errorf("frame has %d nodes, want 2", len(f.Nodes))
	}

	if err := m.Delete(sess.ID); err != nil {
		t.Fatal(err)
	}
	select {
	case <-sess.Loop().Done():
	default:
		t.Error("loop should have exited after Delete")
	}
	if _, err := m.Get(sess.ID); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("Get after Delete = %v, want SESSION_NOT_FOUND", err)
	}
	if err := m.Delete(sess.ID); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("second Delete = %v, want SESSION_NOT_FOUND", err)
	}
}

func TestGetRejectsMalformedID(t *testing.T) {
	m := NewManager(Options{})
	defer m.Close()

	for _, id := range []string{"", "abc", "../../etc/passwd", "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz"} {
		if _, err := m.Get(id); !errors.Is(err, errors.ErrCodeSessionNotFound) {
			t.Errorf("Get(%q) = %v, want SESSION_NOT_FOUND", id, err)
		}
	}
}

func TestExpiry(t *testing.T) {
	c := &clock{now: time.Unix(1000, 0)}
	m := NewManager(Options{TTL: time.Minute, Now: c.Now})
	defer m.Close()

	a, _ := m.Create(testViewer(t))
	b, _ := m.Create(testViewer(t))

	c.Advance(45 * time.Second)
	if _, err := m.Get(a.ID); err != nil {
		t.Fatalf("a should still be live: %v", err)
	}

	c.Advance(30 * time.Second)
	if n := m.Cleanup(); n != 1 {
		t.Errorf("Cleanup removed %d sessions, want 1", n)
	}
	if _, err := m.Get(b.ID); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("b should have expired, got %v", err)
	}
	if _, err := m.Get(a.ID); err != nil {
		t.Errorf("a was used recently and should survive: %v", err)
	}
}

func TestLimitEvictsLeastRecentlyUsed(t *testing.T) {
	c := &clock{now: time.Unix(1000, 0)}
	m := NewManager(Options{Limit: 2, Now: c.Now})
	defer m.Close()

	a, _ := m.Create(testViewer(t))
	c.Advance(time.Second)
	b, _ := m.Create(testViewer(t))
	c.Advance(time.Second)
	if _, err := m.Get(a.ID); err != nil {
		t.Fatal(err)
	}
	c.Advance(time.Second)

	d, err := m.Create(testViewer(t))
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}
	if _, err := m.Get(b.ID); err == nil {
		t.Error("b was least recently used and should be evicted")
	}
	ids := m.IDs()
	if len(ids) != 2 || ids[0] != a.ID || ids[1] != d.ID {
		t.Errorf("IDs = %v, want [a d]", ids)
	}
}

func TestCloseStopsEverything(t *testing.T) {
	m := NewManager(Options{})
	a, _ := m.Create(testViewer(t))
	b, _ := m.Create(testViewer(t))

	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	for _, s := range []*Session{a, b} {
		select {
		case <-s.Loop().Done():
		default:
			t.Errorf("session %s still running", s.ID)
		}
	}
	if _, err := m.Create(testViewer(t)); err == nil {
		t.Error("Create after Close should fail")
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"canonical", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", true},
		{"generated", uuid.NewString(), true},

		{"uppercase", "6BA7B810-9DAD-11D1-80B4-00C04FD430C8", false},
		{"urn", "urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8", false},
		{"braces", "{6ba7b810-9dad-11d1-80b4-00c04fd430c8}", false},
		{"no dashes", "6ba7b8109dad11d180b400c04fd430c8", false},
		{"empty", "", false},
		{"bad hex", "6ba7b810-9dad-11d1-80b4-00c04fd430zz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidID(tt.input); got != tt.want {
				t.Errorf("ValidID(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
