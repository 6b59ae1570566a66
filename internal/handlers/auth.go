package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/identity"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/session"
)

// AuthDeps is shared by the sign-up, sign-in and OAuth routes.
type AuthDeps struct {
	Provider   identity.Provider
	Sessions   *session.Manager
	Users      repository.Users
	AdminEmail string
	// BaseURL is the public origin used to build OAuth callback URLs.
	BaseURL      string
	SecureCookie bool
}

type RegisterForm struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
	Phone    string `form:"phone"`
	Address  string `form:"address"`
}

type LoginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

var pageErrors = map[string]string{
	"oauth_failed":   "Google sign-in failed. Please try again.",
	"invalid_user":   "We could not read your account details. Please try again.",
	"not_registered": "No account found for this Google address. Please register first.",
	"server_error":   "Something went wrong. Please try again.",
}

func pageError(code string) any {
	if code == "" {
		return nil
	}
	if msg, ok := pageErrors[code]; ok {
		return msg
	}
	return "Something went wrong. Please try again."
}

func RegisterPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		render(c, http.StatusOK, "register", "register", gin.H{
			"error":        pageError(c.Query("error")),
			"emailPrefill": c.Query("email"),
		})
	}
}

func Register(deps AuthDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form RegisterForm
		if err := c.ShouldBind(&form); err != nil ||
			strings.TrimSpace(form.Name) == "" || strings.TrimSpace(form.Email) == "" {
			render(c, http.StatusBadRequest, "register", "register", gin.H{"error": "Name, email, and password are required."})
			return
		}

		phone, ok := models.NormalizePhone(form.Phone)
		if !ok {
			render(c, http.StatusBadRequest, "register", "register", gin.H{"error": "Invalid phone number"})
			return
		}

		profile := identity.Profile{
			Name:    strings.TrimSpace(form.Name),
			Phone:   phone,
			Address: models.OptionalString(form.Address),
		}
		email := strings.TrimSpace(form.Email)
		if err := deps.Provider.SignUp(c.Request.Context(), email, form.Password, profile); err != nil {
			log.Println("[AUTH] [ERROR] sign up failed:", err)
			render(c, http.StatusBadRequest, "register", "register", gin.H{
				"error":        "Registration failed. Please check your details and try again.",
				"emailPrefill": email,
			})
			return
		}

		log.Println("[AUTH] [INFO] sign up accepted, verification pending")
		c.Redirect(http.StatusFound, "/login?msg=verify")
	}
}

func LoginPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg any
		if c.Query("msg") == "verify" {
			msg = "Check your inbox to verify your email, then log in."
		}
		render(c, http.StatusOK, "login", "login", gin.H{
			"msg":   msg,
			"error": pageError(c.Query("error")),
		})
	}
}

func Login(deps AuthDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form LoginForm
		if err := c.ShouldBind(&form); err != nil {
			log.Println("[AUTH] [WARN] login form rejected:", err)
			render(c, http.StatusBadRequest, "login", "login", gin.H{"error": "Invalid credentials"})
			return
		}

		email := strings.TrimSpace(form.Email)
		if email == "" || form.Password == "" {
			render(c, http.StatusBadRequest, "login", "login", gin.H{"error": "Invalid credentials"})
			return
		}

		granted, err := deps.Provider.SignInWithPassword(c.Request.Context(), email, form.Password)
		if err != nil {
			log.Println("[AUTH] [WARN] sign in rejected:", err)
			render(c, http.StatusBadRequest, "login", "login", gin.H{"error": "Invalid credentials"})
			return
		}
		if granted == nil || granted.User == nil || granted.AccessToken == "" {
			render(c, http.StatusBadRequest, "login", "login", gin.H{"error": "Login failed. Try again."})
			return
		}

		sess := deps.Sessions.Start(c)
		sess.User = userFromProvider(granted.User, deps.AdminEmail)
		sess.Tokens = &identity.Tokens{AccessToken: granted.AccessToken, RefreshToken: granted.RefreshToken}
		if err := deps.Sessions.Save(c, sess); err != nil {
			log.Println("[SESSION] [ERROR] save after login failed:", err)
			render(c, http.StatusInternalServerError, "login", "login", gin.H{"error": "Login failed"})
			return
		}

		c.Redirect(http.StatusFound, "/profile")
	}
}

// SessionInfo reports the signed-in user for client-side scripts.
func SessionInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, session.CurrentUser(c))
	}
}

// Logout always ends the local session; provider sign-out is best effort.
func Logout(deps AuthDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess := session.Current(c); sess.Authenticated() {
			if err := deps.Provider.SignOut(c.Request.Context(), sess.Tokens.AccessToken); err != nil {
				log.Println("[AUTH] [WARN] provider sign out failed:", err)
			}
		}
		if err := deps.Sessions.Destroy(c); err != nil {
			log.Println("[SESSION] [ERROR] destroy failed:", err)
		}
		c.Redirect(http.StatusFound, "/")
	}
}

func userFromProvider(u *identity.User, adminEmail string) *session.User {
	phone, _ := models.NormalizePhone(u.RawPhone())
	return &session.User{
		ID:      u.ID,
		Email:   u.Email,
		Name:    u.DisplayName(),
		Phone:   phone,
		Address: u.Address(),
		IsAdmin: models.IsAdminEmail(u.Email, adminEmail),
	}
}

// userFromRecord prefers the stored profile but takes the email, and so the
// admin flag, from the provider.
func userFromRecord(record *models.User, provider *identity.User, adminEmail string) *session.User {
	name := provider.DisplayName()
	if record.Name != nil && *record.Name != "" {
		name = *record.Name
	}
	return &session.User{
		ID:      record.ID,
		Email:   provider.Email,
		Name:    name,
		Phone:   record.Phone,
		Address: record.Address,
		IsAdmin: models.IsAdminEmail(provider.Email, adminEmail),
	}
}
