package session

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	DefaultCookieName = "sid"
	contextKey        = "session"
)

type ManagerConfig struct {
	Store      Store
	Secret     string
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager binds a Store to the request cycle through a signed cookie.
type Manager struct {
	store      Store
	codec      *Codec
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

func NewManager(cfg ManagerConfig) *Manager {
	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Manager{
		store:      cfg.Store,
		codec:      NewCodec(cfg.Secret),
		cookieName: name,
		ttl:        ttl,
		secure:     cfg.Secure,
		now:        time.Now,
	}
}

// Middleware loads the session named by the cookie, if any, into the context.
// Requests without a usable cookie proceed anonymously.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(m.cookieName)
		if err != nil || raw == "" {
			c.Next()
			return
		}

		id, err := m.codec.Decode(raw)
		if err != nil {
			m.clearCookie(c)
			c.Next()
			return
		}

		sess, err := m.store.Get(c.Request.Context(), id)
		switch {
		case errors.Is(err, ErrNotFound):
			m.clearCookie(c)
		case err != nil:
			log.Println("[SESSION] [ERROR] load failed:", err)
		default:
			c.Set(contextKey, sess)
		}
		c.Next()
	}
}

// Current returns the session loaded for this request, or nil.
func Current(c *gin.Context) *Session {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*Session)
	return sess
}

// CurrentUser returns the session user, or nil.
func CurrentUser(c *gin.Context) *User {
	if sess := Current(c); sess != nil {
		return sess.User
	}
	return nil
}

// Start replaces any existing session with a fresh, unsaved one. Ids are never
// reused across logins.
func (m *Manager) Start(c *gin.Context) *Session {
	if old := Current(c); old != nil {
		if err := m.store.Destroy(c.Request.Context(), old.ID); err != nil {
			log.Println("[SESSION] [WARN] destroy previous session failed:", err)
		}
	}
	now := m.now().UTC()
	sess := &Session{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	c.Set(contextKey, sess)
	return sess
}

// Save writes the session and refreshes the cookie. The store write finishes
// before Save returns, so a redirect issued afterwards observes it.
func (m *Manager) Save(c *gin.Context, sess *Session) error {
	if err := m.Persist(c.Request.Context(), sess); err != nil {
		return err
	}
	return m.Attach(c, sess)
}

// Persist extends the session lifetime and writes it to the store.
func (m *Manager) Persist(ctx context.Context, sess *Session) error {
	now := m.now().UTC()
	sess.UpdatedAt = now
	sess.ExpiresAt = now.Add(m.ttl)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return m.store.Save(ctx, sess)
}

// Attach issues the cookie for an already persisted session and makes it the
// current one for this request.
func (m *Manager) Attach(c *gin.Context, sess *Session) error {
	value, err := m.codec.Encode(sess.ID, sess.ExpiresAt)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, value, int(m.ttl.Seconds()), "/", "", m.secure, true)
	c.Set(contextKey, sess)
	return nil
}

// Destroy removes the current session and expires the cookie.
func (m *Manager) Destroy(c *gin.Context) error {
	var err error
	if sess := Current(c); sess != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 5*time.Second)
		defer cancel()
		err = m.store.Destroy(ctx, sess.ID)
	}
	m.clearCookie(c)
	c.Set(contextKey, (*Session)(nil))
	return err
}

func (m *Manager) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, "", -1, "/", "", m.secure, true)
}
