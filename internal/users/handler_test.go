package users

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/conduit/backend/internal/auth"
	"github.com/ayush/conduit/backend/internal/models"
	"github.com/ayush/conduit/backend/internal/store"
)

type fakeUsers struct {
	user *models.User
	last models.UserUpdate
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, store.ErrNotFound
	}
	return f.user, nil
}

func (f *fakeUsers) UpdateUser(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	f.last = upd
	u := *f.user
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Bio != nil {
		u.Bio = upd.Bio
	}
	if upd.Image != nil {
		u.Image = upd.Image
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	f.user = &u
	return &u, nil
}

type object struct {
	data        []byte
	contentType string
}

type fakeFiles struct {
	objects map[string]object
}

func (f *fakeFiles) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = object{data, contentType}
	return nil
}

func (f *fakeFiles) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	obj, ok := f.objects[key]
	if !ok {
		return nil, "", store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

func (f *fakeFiles) Remove(_ context.Context, key string) error {
	if _, ok := f.objects[key]; !ok {
		return store.ErrNotFound
	}
	delete(f.objects, key)
	return nil
}

type fakeActivity struct {
	events []models.AuditEvent
}

func (f *fakeActivity) Record(_ context.Context, ev models.AuditEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeActivity) ListByActor(_ context.Context, actorID string, _ int64) ([]models.AuditEvent, error) {
	var out []models.AuditEvent
	for _, ev := range f.events {
		if ev.ActorID == actorID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fixture struct {
	users    *fakeUsers
	files    *fakeFiles
	activity *fakeActivity
	router   http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		users:    &fakeUsers{user: &models.User{ID: "u1", Username: "jake", Email: "jake@jake.jake"}},
		files:    &fakeFiles{objects: map[string]object{}},
		activity: &fakeActivity{},
	}
	h := NewHandler(f.users, f.files, f.activity)
	r := chi.NewRouter()
	r.Get("/user", h.Current)
	r.Put("/user", h.Update)
	r.Post("/user/avatar", h.UploadAvatar)
	r.Get("/user/activity", h.Activity)
	r.Get("/api/avatars/{key}", h.Avatar)
	f.router = r
	return f
}

func as(r *http.Request) *http.Request {
	r.Header.Set("Authorization", "Token tok")
	return r.WithContext(auth.WithIdentity(r.Context(), &auth.Identity{ID: "u1", Username: "jake"}))
}

func decodeUser(t *testing.T, rec *httptest.ResponseRecorder) auth.UserView {
	t.Helper()
	var resp auth.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.User
}

func TestCurrent(t *testing.T) {
	f := newFixture()

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodGet, "/user", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	u := decodeUser(t, rec)
	assert.Equal(t, "jake", u.Username)
	assert.Equal(t, "tok", u.Token)

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdate(t *testing.T) {
	t.Run("BioAndPassword", func(t *testing.T) {
		f := newFixture()
		req := httptest.NewRequest(http.MethodPut, "/user",
			strings.NewReader(`{"user":{"bio":"I like to skateboard","password":"n3wpass"}}`))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, as(req))

		require.Equal(t, http.StatusOK, rec.Code)
		u := decodeUser(t, rec)
		require.NotNil(t, u.Bio)
		assert.Equal(t, "I like to skateboard", *u.Bio)

		assert.Nil(t, f.users.last.Email)
		require.NotNil(t, f.users.last.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*f.users.last.PasswordHash), []byte("n3wpass")))
		require.Len(t, f.activity.events, 1)
		assert.Equal(t, models.AuditUserUpdated, f.activity.events[0].Action)
	})

	t.Run("BlankUsername", func(t *testing.T) {
		f := newFixture()
		req := httptest.NewRequest(http.MethodPut, "/user", strings.NewReader(`{"user":{"username":"  "}}`))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, as(req))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func multipartImage(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="me.PNG"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestAvatarRoundTrip(t *testing.T) {
	f := newFixture()
	png := []byte("\x89PNG fake image bytes")

	body, ct := multipartImage(t, "image/png", png)
	req := httptest.NewRequest(http.MethodPost, "/user/avatar", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, as(req))

	require.Equal(t, http.StatusOK, rec.Code)
	u := decodeUser(t, rec)
	require.NotNil(t, u.Image)
	assert.True(t, strings.HasPrefix(*u.Image, AvatarPath+"u1-"))
	assert.True(t, strings.HasSuffix(*u.Image, ".png"))

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, *u.Image, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, png, rec.Body.Bytes())
}

func uploadAvatar(t *testing.T, f *fixture) string {
	t.Helper()
	body, ct := multipartImage(t, "image/png", []byte("\x89PNG"))
	req := httptest.NewRequest(http.MethodPost, "/user/avatar", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, as(req))
	require.Equal(t, http.StatusOK, rec.Code)
	u := decodeUser(t, rec)
	require.NotNil(t, u.Image)
	return *u.Image
}

func TestAvatarReplaceRemovesPrevious(t *testing.T) {
	f := newFixture()

	first := uploadAvatar(t, f)
	second := uploadAvatar(t, f)

	require.NotEqual(t, first, second)
	assert.NotContains(t, f.files.objects, strings.TrimPrefix(first, AvatarPath))
	assert.Contains(t, f.files.objects, strings.TrimPrefix(second, AvatarPath))
}

func TestAvatarKeepsExternalImage(t *testing.T) {
	f := newFixture()
	external := "https://i.stack.imgur.com/xHWG8.jpg"
	f.users.user.Image = &external
	f.files.objects["unrelated"] = object{data: []byte("x")}

	uploadAvatar(t, f)

	assert.Len(t, f.files.objects, 2)
}

func TestAvatarRejectsNonImage(t *testing.T) {
	f := newFixture()

	body, ct := multipartImage(t, "text/plain", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/user/avatar", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, as(req))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.files.objects)
}

func TestAvatarMissing(t *testing.T) {
	f := newFixture()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/avatars/nope.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActivity(t *testing.T) {
	f := newFixture()
	f.activity.events = []models.AuditEvent{
		{Action: models.AuditArticleCreated, ActorID: "u1", Subject: "dragon"},
		{Action: models.AuditArticleCreated, ActorID: "u2", Subject: "other"},
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodGet, "/user/activity", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ActivityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "dragon", resp.Events[0].Subject)
}
