package mcp

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// session is one logical connection over the HTTP transport, identified by
// the ID handed out during initialize. done is closed exactly once when the
// session ends, which also terminates any event stream attached to it.
type session struct {
	id       string
	state    ConnState
	lastSeen atomic.Int64

	done      chan struct{}
	closeOnce sync.Once
}

func (s *session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// sessionStore tracks live sessions and evicts the ones no request has
// touched within the idle timeout. An idle timeout of zero disables
// eviction; sessions then live until deleted or the store closes.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session

	idle time.Duration
	log  *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

func newSessionStore(idle time.Duration, log *slog.Logger) *sessionStore {
	st := &sessionStore{
		sessions: make(map[string]*session),
		idle:     idle,
		log:      log,
		stop:     make(chan struct{}),
	}

	if idle > 0 {
		go st.janitor()
	}

	return st
}

func (st *sessionStore) create() *session {
	s := &session{
		id:   uuid.NewString(),
		done: make(chan struct{}),
	}
	s.touch()

	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()

	return s
}

// get returns the session and refreshes its idle clock.
func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()

	if ok {
		s.touch()
	}

	return s, ok
}

func (st *sessionStore) delete(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	if ok {
		s.close()
	}

	return ok
}

func (st *sessionStore) len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return len(st.sessions)
}

// close ends every session and stops the janitor. Safe to call more than once.
func (st *sessionStore) close() {
	st.stopOnce.Do(func() {
		close(st.stop)
	})

	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*session)
	st.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

func (st *sessionStore) janitor() {
	interval := st.idle / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-st.stop:
			return
		case <-ticker.C:
			st.evictIdle()
		}
	}
}

func (st *sessionStore) evictIdle() {
	cutoff := time.Now().Add(-st.idle).UnixNano()

	var expired []*session
	st.mu.Lock()
	for id, s := range st.sessions {
		if s.lastSeen.Load() < cutoff {
			delete(st.sessions, id)
			expired = append(expired, s)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.close()
		st.log.Info("session expired", "sid", s.id, "idle", st.idle.String())
	}
}
