package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"storefront/internal/identity"
	"storefront/internal/models"
	"storefront/internal/session"
)

const loginPath = "/login"

// AuthGuard admits requests whose session still holds a token pair the
// provider accepts, refreshing the pair when needed.
type AuthGuard struct {
	sessions   *session.Manager
	provider   identity.Provider
	adminEmail string
	flights    singleflight.Group
}

func NewAuthGuard(sessions *session.Manager, provider identity.Provider, adminEmail string) *AuthGuard {
	return &AuthGuard{sessions: sessions, provider: provider, adminEmail: adminEmail}
}

// Handler runs the guard. Concurrent requests carrying the same session id
// share a single provider call and a single store write.
func (g *AuthGuard) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := session.Current(c)
		if !sess.Authenticated() || sess.User == nil {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		ctx := context.WithoutCancel(c.Request.Context())
		v, err, _ := g.flights.Do(sess.ID, func() (any, error) {
			return g.revalidate(ctx, sess)
		})
		if err != nil {
			log.Println("[AUTH] [WARN] session rejected:", err)
			if err := g.sessions.Destroy(c); err != nil {
				log.Println("[SESSION] [ERROR] destroy failed:", err)
			}
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		refreshed := v.(*session.Session).Clone()
		if err := g.sessions.Attach(c, refreshed); err != nil {
			log.Println("[SESSION] [ERROR] cookie refresh failed:", err)
		}
		c.Next()
	}
}

func (g *AuthGuard) revalidate(ctx context.Context, sess *session.Session) (*session.Session, error) {
	granted, err := g.provider.SetSession(ctx, *sess.Tokens)
	if err != nil {
		return nil, err
	}
	if granted.User == nil {
		return nil, identity.ErrNoUser
	}

	next := sess.Clone()
	next.Tokens = &identity.Tokens{
		AccessToken:  granted.AccessToken,
		RefreshToken: granted.RefreshToken,
	}
	next.User.ID = granted.User.ID
	next.User.Email = granted.User.Email
	next.User.Name = granted.User.DisplayName()
	next.User.IsAdmin = models.IsAdminEmail(granted.User.Email, g.adminEmail)

	if err := g.sessions.Persist(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}
