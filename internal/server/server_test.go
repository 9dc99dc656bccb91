package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"jobtracker/internal/config"
	"jobtracker/internal/database"
	"jobtracker/internal/models"
	"jobtracker/internal/repository"
	"jobtracker/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	return newTestAppWithStore(t, newTestStore(t))
}

func newTestStore(t *testing.T) *repository.SQLStore {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(context.Background(), db))
	store := repository.NewSQLStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestAppWithStore(t *testing.T, store repository.Store) *fiber.App {
	t.Helper()
	cfg := &config.Config{Env: "test", Port: "0", JWTSecret: testSecret, MaxUploadMB: 1}
	s := NewServerWithDeps(cfg, store, nil, storage.NewLocal(t.TempDir()))
	s.auth.WithCost(bcrypt.MinCost)
	return s.App()
}

// unavailableUsers fails every user delete as if the backend were down.
type unavailableUsers struct {
	repository.UserRepository
}

func (unavailableUsers) Delete(context.Context, uint) (int64, error) {
	return 0, models.NewBackendError(errors.New("connection refused"))
}

type failingDeleteStore struct {
	repository.Store
}

func (s failingDeleteStore) Users() repository.UserRepository {
	return unavailableUsers{s.Store.Users()}
}

type apiResponse struct {
	Status int
	Body   []byte
}

func (r apiResponse) JSON(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &m), string(r.Body))
	return m
}

func (r apiResponse) List(t *testing.T) []map[string]any {
	t.Helper()
	var l []map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &l), string(r.Body))
	return l
}

func send(t *testing.T, app *fiber.App, req *http.Request, token string) apiResponse {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return apiResponse{Status: resp.StatusCode, Body: body}
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload any) apiResponse {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return send(t, app, req, token)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func register(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	res := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))
	token, _ := res.JSON(t)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t)
	res := doJSON(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, res.Status)
	body := res.JSON(t)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "sqlite", body["backend"])
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)
	register(t, app, "alice")

	res := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, res.Status)
	assert.Equal(t, "CONFLICT", res.JSON(t)["code"])

	res = doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "bob", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, res.Status)

	res = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Incorrect password.", res.JSON(t)["error"])

	res = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "nobody", "password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, res.Status)
	token, _ := res.JSON(t)["token"].(string)
	assert.NotEmpty(t, token)

	res = doJSON(t, app, http.MethodPut, "/api/auth/password", token, map[string]string{
		"current_password": "secret123", "new_password": "evenmoresecret",
	})
	assert.Equal(t, http.StatusOK, res.Status)

	res = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "evenmoresecret",
	})
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)
	for _, path := range []string{"/api/jobs", "/api/documents", "/api/profile", "/api/stats"} {
		res := doJSON(t, app, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, res.Status, path)
	}
}

func TestJobsAPI(t *testing.T) {
	app := newTestApp(t)
	alice := register(t, app, "alice")
	bob := register(t, app, "bob")

	res := doJSON(t, app, http.MethodPost, "/api/jobs", alice, map[string]string{"job_title": "Engineer"})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "VALIDATION_ERROR", res.JSON(t)["code"])

	res = doJSON(t, app, http.MethodPost, "/api/jobs", alice, map[string]string{
		"company_name": "Acme", "job_title": "Engineer", "status": "Applied",
	})
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))
	id := int(res.JSON(t)["id"].(float64))
	path := "/api/jobs/" + itoa(id)

	res = doJSON(t, app, http.MethodGet, path, bob, nil)
	assert.Equal(t, http.StatusNotFound, res.Status)

	res = doJSON(t, app, http.MethodGet, "/api/jobs/abc", alice, nil)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Invalid ID", res.JSON(t)["error"])

	res = doJSON(t, app, http.MethodPut, path, alice, map[string]string{
		"company_name": "Acme", "job_title": "Lead", "status": "Interviewing",
	})
	assert.Equal(t, http.StatusOK, res.Status)

	res = doJSON(t, app, http.MethodGet, path, alice, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Lead", res.JSON(t)["job_title"])

	res = doJSON(t, app, http.MethodGet, "/api/stats", alice, nil)
	require.Equal(t, http.StatusOK, res.Status)
	stats := res.JSON(t)
	assert.Equal(t, float64(1), stats["total_applications"])
	assert.Equal(t, float64(1), stats["status_counts"].(map[string]any)["Interviewing"])

	res = doJSON(t, app, http.MethodGet, "/api/stats", bob, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, float64(0), res.JSON(t)["total_applications"])

	res = doJSON(t, app, http.MethodGet, "/api/dashboard", alice, nil)
	require.Equal(t, http.StatusOK, res.Status)
	metrics := res.JSON(t)["metrics"].(map[string]any)
	assert.Equal(t, float64(1), metrics["interview_count"])

	res = doJSON(t, app, http.MethodPut, "/api/jobs", alice, []map[string]any{
		{"id": id, "company_name": "Acme", "job_title": "Lead"},
		{"company_name": "Globex", "job_title": "Engineer"},
	})
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	result := res.JSON(t)["result"].(map[string]any)
	assert.Equal(t, float64(1), result["inserted"])
	assert.Equal(t, float64(1), result["updated"])

	res = doJSON(t, app, http.MethodGet, "/api/jobs", alice, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Len(t, res.List(t), 2)

	res = doJSON(t, app, http.MethodDelete, path, bob, nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
	res = doJSON(t, app, http.MethodDelete, path, alice, nil)
	assert.Equal(t, http.StatusOK, res.Status)
}

func uploadRequest(t *testing.T, name, docType, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("document_name", name))
	require.NoError(t, w.WriteField("document_type", docType))
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestDocumentsAPI(t *testing.T) {
	app := newTestApp(t)
	alice := register(t, app, "alice")

	res := send(t, app, uploadRequest(t, "CV A", "Resume", "a.txt", "Resume A"), alice)
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))
	a := int(res.JSON(t)["id"].(float64))
	assert.Equal(t, float64(0), res.JSON(t)["preferred_resume"])

	res = send(t, app, uploadRequest(t, "CV B", "Resume", "b.txt", "Resume B"), alice)
	require.Equal(t, http.StatusCreated, res.Status)
	b := int(res.JSON(t)["id"].(float64))

	res = send(t, app, uploadRequest(t, "Letter", "Cover Letter", "c.txt", "Dear"), alice)
	require.Equal(t, http.StatusCreated, res.Status)

	res = send(t, app, uploadRequest(t, "Bad", "Portfolio", "d.txt", "x"), alice)
	assert.Equal(t, http.StatusBadRequest, res.Status)

	res = doJSON(t, app, http.MethodGet, "/api/documents?type=Resume", alice, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Len(t, res.List(t), 2)

	res = doJSON(t, app, http.MethodGet, "/api/documents/preferred", alice, nil)
	assert.Equal(t, http.StatusNotFound, res.Status)

	res = doJSON(t, app, http.MethodPut, "/api/documents/preferences", alice, []map[string]any{
		{"id": a, "preferred_resume": 1}, {"id": b, "preferred_resume": 1},
	})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "INVARIANT_VIOLATION", res.JSON(t)["code"])

	res = doJSON(t, app, http.MethodPut, "/api/documents/preferences", alice, []map[string]any{
		{"id": a, "preferred_resume": 0}, {"id": b, "preferred_resume": 1},
	})
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))

	res = doJSON(t, app, http.MethodGet, "/api/documents/preferred", alice, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, float64(b), res.JSON(t)["id"])

	res = doJSON(t, app, http.MethodGet, "/api/documents/"+itoa(a)+"/content", alice, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Resume A", res.JSON(t)["content"])

	res = doJSON(t, app, http.MethodDelete, "/api/documents/"+itoa(a), alice, nil)
	assert.Equal(t, http.StatusOK, res.Status)
	res = doJSON(t, app, http.MethodGet, "/api/documents/"+itoa(a)+"/content", alice, nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
}

func TestProfileAndGoalsAPI(t *testing.T) {
	app := newTestApp(t)
	alice := register(t, app, "alice")

	res := doJSON(t, app, http.MethodGet, "/api/profile", alice, nil)
	assert.Equal(t, http.StatusNotFound, res.Status)

	res = doJSON(t, app, http.MethodPut, "/api/profile", alice, map[string]string{"selected_resume": "cv.pdf"})
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "cv.pdf", res.JSON(t)["selected_resume"])

	res = doJSON(t, app, http.MethodPost, "/api/career-goals", alice, map[string]string{"goals": "  "})
	assert.Equal(t, http.StatusBadRequest, res.Status)

	res = doJSON(t, app, http.MethodPost, "/api/career-goals", alice, map[string]string{"goals": "Ship things"})
	require.Equal(t, http.StatusCreated, res.Status)

	res = doJSON(t, app, http.MethodGet, "/api/career-goals/current", alice, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Ship things", res.JSON(t)["goals"])

	res = doJSON(t, app, http.MethodGet, "/api/career-goals", alice, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Len(t, res.List(t), 1)
}

func TestDeleteAccountAPI(t *testing.T) {
	app := newTestApp(t)
	alice := register(t, app, "alice")

	res := doJSON(t, app, http.MethodPost, "/api/jobs", alice, map[string]string{"company_name": "Acme", "job_title": "Engineer"})
	require.Equal(t, http.StatusCreated, res.Status)

	res = doJSON(t, app, http.MethodDelete, "/api/users/me", alice, nil)
	require.Equal(t, http.StatusOK, res.Status)

	res = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = doJSON(t, app, http.MethodDelete, "/api/users/me", alice, nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
}

func TestDeleteAccountAPI_RemovesFiles(t *testing.T) {
	app := newTestApp(t)
	alice := register(t, app, "alice")

	res := send(t, app, uploadRequest(t, "CV", "Resume", "cv.txt", "Resume"), alice)
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))
	path := res.JSON(t)["file_path"].(string)
	require.FileExists(t, path)

	res = doJSON(t, app, http.MethodDelete, "/api/users/me", alice, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.NoFileExists(t, path)
}

func TestDeleteAccountAPI_KeepsFilesWhenDeleteFails(t *testing.T) {
	app := newTestAppWithStore(t, failingDeleteStore{newTestStore(t)})
	alice := register(t, app, "alice")

	res := send(t, app, uploadRequest(t, "CV", "Resume", "cv.txt", "Resume"), alice)
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))
	path := res.JSON(t)["file_path"].(string)

	res = doJSON(t, app, http.MethodDelete, "/api/users/me", alice, nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.Status)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Resume", string(data))

	res = doJSON(t, app, http.MethodGet, "/api/documents", alice, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Len(t, res.List(t), 1)
}

func TestGetMeAPI(t *testing.T) {
	app := newTestApp(t)
	alice := register(t, app, "alice")

	res := doJSON(t, app, http.MethodGet, "/api/users/me", alice, nil)
	require.Equal(t, http.StatusOK, res.Status)
	body := res.JSON(t)
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, body, "password_hash")

	res = doJSON(t, app, http.MethodDelete, "/api/users/me", alice, nil)
	require.Equal(t, http.StatusOK, res.Status)
	res = doJSON(t, app, http.MethodGet, "/api/users/me", alice, nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
}
