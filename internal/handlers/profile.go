package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/identity"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/session"
)

// maxProfileBody bounds the whole multipart request: one image plus fields.
const maxProfileBody = maxImageSize + 512<<10

type ProfileDeps struct {
	Sessions *session.Manager
	Users    repository.Users
	Provider identity.Provider
	Uploads  *UploadStore
}

// UpdateProfile edits the session profile, and the stored user record when
// there is one. The login email and admin flag are owned by the provider and
// are re-read on the next revalidation.
func UpdateProfile(deps ProfileDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /update-profile"
		defer handlePanic(c, route)

		sess := session.Current(c)
		if sess == nil || sess.User == nil {
			respondWithError(c, http.StatusUnauthorized, route, "Not authenticated")
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxProfileBody)
		if err := c.Request.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondWithError(c, http.StatusBadRequest, route, ErrImageTooLarge.Error())
				return
			}
			respondWithError(c, http.StatusBadRequest, route, "invalid form")
			return
		}

		phone, ok := models.NormalizePhone(c.PostForm("phone"))
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "Invalid phone number")
			return
		}

		// validate the upload before anything is written
		var (
			newImage  string
			extension string
		)
		file, err := c.FormFile("profile_image")
		switch {
		case err == nil:
			extension, err = checkImage(file)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, imageErrorMessage(err))
				return
			}
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			file = nil
		default:
			respondWithError(c, http.StatusBadRequest, route, "invalid form")
			return
		}

		next := sess.Clone()
		user := next.User

		if file != nil {
			newImage, err = deps.Uploads.SaveProfileImage(user.ID, file, extension)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "Failed to update profile")
				return
			}
		}

		var oldImage *string
		if c.PostForm("remove_profile_image") == "1" || newImage != "" {
			oldImage = user.ProfileImage
			user.ProfileImage = nil
		}
		if newImage != "" {
			user.ProfileImage = &newImage
		}

		if name := strings.TrimSpace(c.PostForm("username")); name != "" {
			user.Name = name
		}
		if email := strings.TrimSpace(c.PostForm("email")); email != "" {
			user.Email = email
		}
		if address := models.OptionalString(c.PostForm("address")); address != nil {
			user.Address = address
		}
		if phone != nil {
			user.Phone = phone
		}
		user.DesignStyle = models.OptionalString(c.PostForm("design_style"))

		// nothing outside the session is touched until it is written
		if err := deps.Sessions.Save(c, next); err != nil {
			log.Println("[SESSION] [ERROR] profile save failed:", err)
			if newImage != "" {
				if err := deps.Uploads.Delete(newImage); err != nil {
					log.Println("[PROFILE] [WARN] new image cleanup failed:", err)
				}
			}
			respondWithError(c, http.StatusInternalServerError, route, "Failed to save session")
			return
		}

		if oldImage != nil && *oldImage != newImage {
			if err := deps.Uploads.Delete(*oldImage); err != nil {
				log.Println("[PROFILE] [WARN] old image delete failed:", err)
			}
		}

		ctx := c.Request.Context()
		syncUserRecord(ctx, deps.Users, user)
		syncProviderMetadata(ctx, deps.Provider, user)

		c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
	}
}

func imageErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrImageTooLarge):
		return "Image file too large (max 5MB)"
	case errors.Is(err, ErrImageType):
		return "Only image files are allowed"
	default:
		return "Failed to read image"
	}
}

func syncUserRecord(ctx context.Context, users repository.Users, user *session.User) {
	_, err := users.Update(ctx, user.ID, models.UserUpdate{
		Name:    models.StringPtr(user.Name),
		Phone:   user.Phone,
		Address: user.Address,
	})
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Println("[PROFILE] [ERROR] user record update failed:", err)
	}
}

// syncProviderMetadata keeps the provider's copy of the display name in step,
// otherwise the next token refresh would restore the old one.
func syncProviderMetadata(ctx context.Context, provider identity.Provider, user *session.User) {
	metadata := map[string]any{
		"name":      user.Name,
		"full_name": user.Name,
	}
	if user.Phone != nil {
		metadata["phone"] = *user.Phone
	}
	if user.Address != nil {
		metadata["address"] = *user.Address
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := provider.UpdateUserMetadata(ctx, user.ID, metadata); err != nil {
		log.Println("[PROFILE] [WARN] provider metadata sync failed:", err)
	}
}
