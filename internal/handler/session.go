package handler

import (
	"net/http"
	"sync"
	"time"

	"taskboard/internal/notify"
	"taskboard/internal/taskform"
	"taskboard/internal/tasklist"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const SessionCookie = "taskboard_session"

// Session is one browser's view state: its list page and the form it has open.
// Requests of the same session are served one at a time.
type Session struct {
	ID   string
	mu   sync.Mutex
	List *tasklist.List
	Form *taskform.Form

	// listFresh marks a list that a POST action just refreshed or left
	// untouched. It holds for the next request only, which is the page load
	// following the redirect; reuseList is its value for the current request.
	listFresh bool
	reuseList bool

	notifier notify.Sink
	lastSeen time.Time
}

func (s *Session) Notifier() notify.Sink { return s.notifier }

type SessionStore struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time

	repo  TaskRepository
	flash *notify.FlashStore
	log   logrus.FieldLogger
}

func NewSessionStore(repo TaskRepository, flash *notify.FlashStore, ttl time.Duration, log logrus.FieldLogger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		repo:     repo,
		flash:    flash,
		log:      log,
	}
}

// Acquire returns the caller's session, creating it and setting the cookie
// when needed, and locks it. The caller must call Release.
func (s *SessionStore) Acquire(c *gin.Context) *Session {
	id, err := c.Cookie(SessionCookie)
	if err != nil || uuid.Validate(id) != nil {
		id = ""
	}

	s.mu.Lock()
	now := s.now()
	s.sweep(now)

	sess, ok := s.sessions[id]
	if !ok {
		id = uuid.NewString()
		sess = s.newSession(id)
		s.sessions[id] = sess
		s.log.WithField("session", id).Debug("session created")
	}
	sess.lastSeen = now
	s.mu.Unlock()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, int(s.ttl.Seconds()), "/", "", false, true)

	sess.mu.Lock()
	sess.reuseList = sess.listFresh
	sess.listFresh = false
	return sess
}

func (s *SessionStore) Release(sess *Session) {
	sess.mu.Unlock()
}

func (s *SessionStore) newSession(id string) *Session {
	sink := notify.Multi(notify.Log(s.log), s.flash.For(id))
	return &Session{
		ID:       id,
		List:     tasklist.New(s.repo, sink, nil, s.log),
		notifier: sink,
	}
}

// sweep drops idle sessions at most once per minute. s.mu must be held.
func (s *SessionStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < time.Minute {
		return
	}
	s.lastSweep = now
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
			s.flash.Forget(id)
		}
	}
}

// Len is the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// redirect is the per-request navigator: components record where the user
// should go and the handler answers with a 303.
type redirect struct {
	path string
}

func (r *redirect) Navigate(path string) { r.path = path }
