package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/identity"
	"storefront/internal/models"
	"storefront/internal/repository"
)

const (
	flowLogin    = "login"
	flowRegister = "register"

	defaultNext = "/profile"
)

// verifierCookie holds the PKCE verifier between the redirect to the
// provider and the callback.
type verifierCookie struct {
	secure bool
}

const (
	verifierCookieName   = "oauth_verifier"
	verifierCookieMaxAge = 10 * 60
)

func (v verifierCookie) set(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(verifierCookieName, value, verifierCookieMaxAge, "/auth/callback", "", v.secure, true)
}

// take returns the verifier and expires the cookie.
func (v verifierCookie) take(c *gin.Context) string {
	value, _ := c.Cookie(verifierCookieName)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(verifierCookieName, "", -1, "/auth/callback", "", v.secure, true)
	return value
}

// safeNext accepts only same-origin relative paths.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultNext
	}
	parsed, err := url.Parse(next)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return defaultNext
	}
	return next
}

// OAuthStart sends the browser to the provider's Google consent screen. flow
// is carried through the callback URL.
func OAuthStart(deps AuthDeps, flow string) gin.HandlerFunc {
	cookie := verifierCookie{secure: deps.SecureCookie}
	return func(c *gin.Context) {
		params := url.Values{
			"flow": {flow},
			"next": {safeNext(c.Query("next"))},
		}
		redirectTo := deps.BaseURL + "/auth/callback?" + params.Encode()

		redirect, err := deps.Provider.BeginOAuth(c.Request.Context(), "google", redirectTo)
		if err != nil {
			log.Printf("[OAUTH] [ERROR] begin %s failed: %v", flow, err)
			c.Redirect(http.StatusFound, "/"+flow+"?error=oauth_failed")
			return
		}

		cookie.set(c, redirect.CodeVerifier)
		c.Redirect(http.StatusFound, redirect.URL)
	}
}

// OAuthCallback completes the code exchange. The login flow never creates a
// user record; unknown identities are sent to registration.
func OAuthCallback(deps AuthDeps) gin.HandlerFunc {
	cookie := verifierCookie{secure: deps.SecureCookie}
	return func(c *gin.Context) {
		verifier := cookie.take(c)
		code := c.Query("code")
		flow := c.DefaultQuery("flow", flowLogin)
		next := safeNext(c.Query("next"))
		ctx := c.Request.Context()

		if code == "" || verifier == "" {
			log.Println("[OAUTH] [WARN] callback without code or verifier")
			c.Redirect(http.StatusFound, "/login?error=oauth_failed")
			return
		}

		granted, err := deps.Provider.ExchangeCodeForSession(ctx, code, verifier)
		if err != nil {
			log.Println("[OAUTH] [ERROR] exchange failed:", err)
			c.Redirect(http.StatusFound, "/login?error=oauth_failed")
			return
		}

		user, err := deps.Provider.GetUser(ctx, granted.AccessToken)
		if err != nil || user == nil {
			log.Println("[OAUTH] [ERROR] provider user unavailable:", err)
			c.Redirect(http.StatusFound, "/login?error=invalid_user")
			return
		}

		var record *models.User
		if flow == flowRegister {
			phone, _ := models.NormalizePhone(user.RawPhone())
			record, err = deps.Users.Upsert(ctx, models.User{
				ID:      user.ID,
				Name:    user.Name(),
				Email:   user.Email,
				Phone:   phone,
				Address: user.Address(),
				Role:    models.RoleUser,
			})
			if err != nil {
				log.Println("[OAUTH] [ERROR] user upsert failed:", err)
				c.Redirect(http.StatusFound, "/register?error=server_error")
				return
			}
		} else {
			record, err = deps.Users.Get(ctx, user.ID)
			if errors.Is(err, repository.ErrNotFound) {
				c.Redirect(http.StatusFound, "/register?error=not_registered&email="+url.QueryEscape(user.Email))
				return
			}
			if err != nil {
				log.Println("[OAUTH] [ERROR] user lookup failed:", err)
				c.Redirect(http.StatusFound, "/login?error=server_error")
				return
			}
		}

		sess := deps.Sessions.Start(c)
		sess.User = userFromRecord(record, user, deps.AdminEmail)
		sess.Tokens = &identity.Tokens{AccessToken: granted.AccessToken, RefreshToken: granted.RefreshToken}
		if err := deps.Sessions.Save(c, sess); err != nil {
			log.Println("[SESSION] [ERROR] save after oauth failed:", err)
			c.Redirect(http.StatusFound, "/login?error=server_error")
			return
		}

		c.Redirect(http.StatusFound, next)
	}
}
