package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"

	"storefront/internal/identity/mock_identity"
	"storefront/internal/models"
	"storefront/internal/session"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// failingStore lets a test make session writes fail after seeding.
type failingStore struct {
	*session.MemoryStore
	failSave bool
}

func (s *failingStore) Save(ctx context.Context, sess *session.Session) error {
	if s.failSave {
		return errBoom
	}
	return s.MemoryStore.Save(ctx, sess)
}

type profileFixture struct {
	router   *gin.Engine
	store    *failingStore
	provider *mock_identity.MockProvider
	users    *fakeUsers
	dir      string
	cookie   *http.Cookie
}

func newProfileFixture(t *testing.T, user *session.User) *profileFixture {
	t.Helper()
	store := &failingStore{MemoryStore: session.NewMemoryStore()}
	manager := session.NewManager(session.ManagerConfig{Store: store, Secret: testSecret, TTL: time.Hour})
	provider := mock_identity.NewMockProvider(gomock.NewController(t))
	users := newFakeUsers(models.User{ID: user.ID, Email: user.Email, Role: models.RoleUser})
	dir := t.TempDir()
	uploads, err := NewUploadStore(dir)
	if err != nil {
		t.Fatalf("NewUploadStore returned error: %v", err)
	}

	r := newTestEngine(t, manager)
	r.POST("/update-profile", UpdateProfile(ProfileDeps{
		Sessions: manager,
		Users:    users,
		Provider: provider,
		Uploads:  uploads,
	}))

	return &profileFixture{
		router:   r,
		store:    store,
		provider: provider,
		users:    users,
		dir:      dir,
		cookie:   seedSession(t, store.MemoryStore, user),
	}
}

func multipartRequest(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}
	if filename != "" {
		part, err := writer.CreateFormFile("profile_image", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = part.Write(content)
	}
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/update-profile", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func (f *profileFixture) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		t.Fatalf("read uploads dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func (f *profileFixture) session(t *testing.T, id string) *session.Session {
	t.Helper()
	sess, err := f.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return sess
}

func TestUpdateProfileRejectsLargeImage(t *testing.T) {
	f := newProfileFixture(t, &session.User{ID: "u1", Email: "ada@example.com", Name: "Ada"})

	content := append(append([]byte{}, pngHeader...), make([]byte, maxImageSize)...)
	rec := serve(f.router, multipartRequest(t, map[string]string{"username": "Changed"}, "big.png", content), f.cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", rec.Code, rec.Body.String())
	}
	if files := f.files(t); len(files) != 0 {
		t.Fatalf("expected no file written, got %v", files)
	}
	if got := f.session(t, "sess-u1").User.Name; got != "Ada" {
		t.Fatalf("expected profile untouched, got name %q", got)
	}
}

func TestUpdateProfileRejectsDisguisedImage(t *testing.T) {
	f := newProfileFixture(t, &session.User{ID: "u1", Email: "ada@example.com", Name: "Ada"})

	rec := serve(f.router, multipartRequest(t, nil, "avatar.png", []byte("#!/bin/sh\necho not an image\n")), f.cookie)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Only image files are allowed") {
		t.Fatalf("expected image type rejection, got %d %s", rec.Code, rec.Body.String())
	}
	if files := f.files(t); len(files) != 0 {
		t.Fatalf("expected no file written, got %v", files)
	}
}

func TestUpdateProfileRejectsExtension(t *testing.T) {
	f := newProfileFixture(t, &session.User{ID: "u1", Email: "ada@example.com", Name: "Ada"})

	rec := serve(f.router, multipartRequest(t, nil, "avatar.svg", pngHeader), f.cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateProfileStoresImageAndFields(t *testing.T) {
	old := "profile_u1_1-1.png"
	f := newProfileFixture(t, &session.User{ID: "u1", Email: "ada@example.com", Name: "Ada", ProfileImage: &old})
	if err := os.WriteFile(filepath.Join(f.dir, old), pngHeader, 0o644); err != nil {
		t.Fatalf("write old image: %v", err)
	}

	f.provider.EXPECT().
		UpdateUserMetadata(gomock.Any(), "u1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, metadata map[string]any) error {
			if metadata["full_name"] != "Ada Lovelace" || metadata["phone"] != "5550100" {
				t.Errorf("unexpected metadata %v", metadata)
			}
			return nil
		})

	rec := serve(f.router, multipartRequest(t, map[string]string{
		"username":     "Ada Lovelace",
		"phone":        "555-0100",
		"design_style": "bold",
	}, "avatar.PNG", pngHeader), f.cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Profile updated successfully") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	files := f.files(t)
	if len(files) != 1 || files[0] == old {
		t.Fatalf("expected old image replaced, got %v", files)
	}
	if !strings.HasPrefix(files[0], "profile_u1_") || !strings.HasSuffix(files[0], ".png") {
		t.Fatalf("unexpected stored name %s", files[0])
	}

	user := f.session(t, "sess-u1").User
	if user.Name != "Ada Lovelace" || user.ProfileImage == nil || *user.ProfileImage != files[0] {
		t.Fatalf("unexpected session user %+v", user)
	}
	if user.DesignStyle == nil || *user.DesignStyle != "bold" {
		t.Fatalf("expected design style, got %v", user.DesignStyle)
	}
	if row := f.users.rows["u1"]; row.Name == nil || *row.Name != "Ada Lovelace" {
		t.Fatalf("expected user record updated, got %+v", row)
	}
}

func TestUpdateProfileRemovesImage(t *testing.T) {
	old := "profile_u1_1-1.gif"
	f := newProfileFixture(t, &session.User{ID: "u1", Email: "ada@example.com", Name: "Ada", ProfileImage: &old})
	if err := os.WriteFile(filepath.Join(f.dir, old), []byte("GIF89a"), 0o644); err != nil {
		t.Fatalf("write old image: %v", err)
	}
	f.provider.EXPECT().UpdateUserMetadata(gomock.Any(), "u1", gomock.Any()).Return(nil)

	rec := serve(f.router, multipartRequest(t, map[string]string{"remove_profile_image": "1"}, "", nil), f.cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	if files := f.files(t); len(files) != 0 {
		t.Fatalf("expected image deleted, got %v", files)
	}
	if f.session(t, "sess-u1").User.ProfileImage != nil {
		t.Fatal("expected profile image cleared")
	}
}

func TestUpdateProfileSessionSaveFailureKeepsState(t *testing.T) {
	old := "profile_u1_old.png"
	f := newProfileFixture(t, &session.User{ID: "u1", Email: "ada@example.com", Name: "Ada", ProfileImage: &old})
	if err := os.WriteFile(filepath.Join(f.dir, old), pngHeader, 0o644); err != nil {
		t.Fatalf("write old image: %v", err)
	}
	f.store.failSave = true

	rec := serve(f.router, multipartRequest(t, map[string]string{"username": "Changed"}, "avatar.png", pngHeader), f.cookie)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "Failed to save session") {
		t.Fatalf("expected 500 session failure, got %d %s", rec.Code, rec.Body.String())
	}

	if files := f.files(t); len(files) != 1 || files[0] != old {
		t.Fatalf("expected only the old image on disk, got %v", files)
	}
	user := f.session(t, "sess-u1").User
	if user.Name != "Ada" || user.ProfileImage == nil || *user.ProfileImage != old {
		t.Fatalf("expected stored session unchanged, got %+v", user)
	}
	if row := f.users.rows["u1"]; row.Name != nil {
		t.Fatalf("expected user record unchanged, got name %q", *row.Name)
	}
}

func TestUploadStoreDeleteRefusesTraversal(t *testing.T) {
	uploads, err := NewUploadStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewUploadStore returned error: %v", err)
	}
	if err := uploads.Delete("../secret.txt"); err == nil {
		t.Fatal("expected traversal to be refused")
	}
	if err := uploads.Delete("missing.png"); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}
