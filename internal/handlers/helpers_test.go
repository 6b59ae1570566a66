package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/identity"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/session"
	"storefront/web"
)

const testSecret = "test-secret"

var errBoom = errors.New("boom")

func newTestEngine(t *testing.T, manager *session.Manager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(template.Must(web.Templates()))
	r.Use(manager.Middleware())
	return r
}

func newTestManager() (*session.Manager, *session.MemoryStore) {
	store := session.NewMemoryStore()
	manager := session.NewManager(session.ManagerConfig{Store: store, Secret: testSecret, TTL: time.Hour})
	return manager, store
}

func seedSession(t *testing.T, store *session.MemoryStore, user *session.User) *http.Cookie {
	t.Helper()
	sess := &session.Session{
		ID:        "sess-" + user.ID,
		User:      user,
		Tokens:    &identity.Tokens{AccessToken: "access", RefreshToken: "refresh"},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := store.Save(context.Background(), sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	value, err := session.NewCodec(testSecret).Encode(sess.ID, sess.ExpiresAt)
	if err != nil {
		t.Fatalf("encode cookie: %v", err)
	}
	return &http.Cookie{Name: session.DefaultCookieName, Value: value}
}

func serve(r *gin.Engine, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type fakeUsers struct {
	mu     sync.Mutex
	rows   map[string]models.User
	writes int
	err    error
}

func newFakeUsers(rows ...models.User) *fakeUsers {
	f := &fakeUsers{rows: map[string]models.User{}}
	for _, u := range rows {
		f.rows[u.ID] = u
	}
	return f
}

func (f *fakeUsers) List(context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.User, 0, len(f.rows))
	for _, u := range f.rows {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) Get(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) Upsert(_ context.Context, u models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.writes++
	if existing, ok := f.rows[u.ID]; ok {
		u.CreatedAt = existing.CreatedAt
	} else {
		u.CreatedAt = time.Now()
	}
	f.rows[u.ID] = u
	return &u, nil
}

func (f *fakeUsers) Update(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	f.writes++
	if upd.Name != nil {
		u.Name = upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Phone != nil {
		u.Phone = upd.Phone
	}
	if upd.Address != nil {
		u.Address = upd.Address
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	f.rows[id] = u
	return &u, nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	f.writes++
	delete(f.rows, id)
	return nil
}

func (f *fakeUsers) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rows)), f.err
}

type fakeProducts struct {
	mu   sync.Mutex
	rows map[string]models.Product
	err  error
}

func newFakeProducts(rows ...models.Product) *fakeProducts {
	f := &fakeProducts{rows: map[string]models.Product{}}
	for _, p := range rows {
		f.rows[p.ID] = p
	}
	return f
}

func (f *fakeProducts) list(activeOnly bool) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Product{}
	for _, p := range f.rows {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeProducts) List(context.Context) ([]models.Product, error)       { return f.list(false) }
func (f *fakeProducts) ListActive(context.Context) ([]models.Product, error) { return f.list(true) }

func (f *fakeProducts) Get(_ context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProducts) Create(_ context.Context, p models.Product) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p.CreatedAt = time.Now()
	f.rows[p.ID] = p
	return &p, nil
}

func (f *fakeProducts) Update(_ context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = upd.Description
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Stock != nil {
		p.Stock = *upd.Stock
	}
	if upd.IsActive != nil {
		p.IsActive = *upd.IsActive
	}
	now := time.Now()
	p.UpdatedAt = &now
	f.rows[id] = p
	return &p, nil
}

func (f *fakeProducts) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeProducts) Count(ctx context.Context) (int64, error) {
	list, err := f.list(false)
	return int64(len(list)), err
}

func (f *fakeProducts) CountActive(ctx context.Context) (int64, error) {
	list, err := f.list(true)
	return int64(len(list)), err
}

type fakeOrders struct {
	mu   sync.Mutex
	rows map[string]models.Order
}

func newFakeOrders(rows ...models.Order) *fakeOrders {
	f := &fakeOrders{rows: map[string]models.Order{}}
	for _, o := range rows {
		f.rows[o.ID] = o
	}
	return f
}

func (f *fakeOrders) List(context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Order, 0, len(f.rows))
	for _, o := range f.rows {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrders) Get(_ context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o.Status = status
	f.rows[id] = o
	return &o, nil
}

func (f *fakeOrders) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rows)), nil
}

func (f *fakeOrders) Revenue(context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	for _, o := range f.rows {
		total += o.TotalPrice
	}
	return total, nil
}
