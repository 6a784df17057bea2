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
	"net/textproto"
	"testing"

	"miniblog/internal/config"
	"miniblog/internal/models"
	"miniblog/internal/repository"
	"miniblog/internal/service"
	"miniblog/internal/storage"
	"miniblog/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testApp struct {
	app       *fiber.App
	server    *Server
	uploadDir string
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret",
		Port:            "0",
		Env:             "test",
		DBDriver:        config.DriverSQLite,
		AllowedOrigins:  "*",
		UploadDir:       t.TempDir(),
		UploadMaxSizeMB: 5,
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := testConfig(t)
	s, err := NewServerWithDeps(cfg, testutil.NewSQLiteDB(t), nil)
	require.NoError(t, err)
	s.authService.WithHashCost(bcrypt.MinCost)

	return &testApp{app: s.NewApp(), server: s, uploadDir: cfg.UploadDir}
}

// send performs a request and decodes a JSON object response.
func (ta *testApp) send(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	body := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), "body: %s", raw)
	}
	return resp.StatusCode, body
}

func jsonRequest(method, path string, payload any, token string) *http.Request {
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

type filePart struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, file *filePart, token string) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+file.field+`"; filename="`+file.filename+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// register creates an account through the API and returns its token.
func (ta *testApp) register(t *testing.T, username string) string {
	t.Helper()
	status, body := ta.send(t, jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret1",
	}, ""))
	require.Equal(t, http.StatusCreated, status, body)
	return body["token"].(string)
}

func TestHealthChecks(t *testing.T) {
	ta := newTestApp(t)

	status, body := ta.send(t, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "up", body["status"])

	status, body = ta.send(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "disabled", checks["redis"])
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	ta := newTestApp(t)

	status, body := ta.send(t, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, body["message"])
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.NewValidationError("bad"), fiber.StatusBadRequest},
		{models.NewConflictError("dup"), fiber.StatusBadRequest},
		{models.NewUnauthorizedError("no"), fiber.StatusUnauthorized},
		{models.NewForbiddenError("mine"), fiber.StatusForbidden},
		{models.NewNotFoundError("Post"), fiber.StatusNotFound},
		{models.NewMethodNotAllowedError("use POST"), fiber.StatusMethodNotAllowed},
		{models.NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{errors.New("plain"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapServiceError(tt.err), tt.err.Error())
	}
}

// MockPostRepository is a mock of the PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) List(ctx context.Context, filter repository.PostFilter) ([]models.Post, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Post), args.Get(1).(int64), args.Error(2)
}

func (m *MockPostRepository) Update(ctx context.Context, id uint, changes repository.PostChanges) error {
	return m.Called(ctx, id, changes).Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPostRepository) ToggleLike(ctx context.Context, postID, userID uint) (bool, error) {
	args := m.Called(ctx, postID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func TestInternalErrorsDoNotLeakDetails(t *testing.T) {
	cfg := testConfig(t)
	uploads, err := storage.NewStore(cfg.UploadDir, cfg.UploadMaxBytes())
	require.NoError(t, err)

	mockRepo := new(MockPostRepository)
	mockRepo.On("List", mock.Anything, mock.Anything).
		Return(nil, int64(0), errors.New("pq: relation \"posts\" does not exist"))

	s := &Server{
		config:      cfg,
		postService: service.NewPostService(mockRepo),
		uploads:     uploads,
	}
	s.authService = service.NewAuthService(nil, service.NewTokenManager(cfg.JWTSecret))
	app := s.NewApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts?search=x", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Internal server error","code":"INTERNAL_ERROR"}`, string(raw))
	mockRepo.AssertExpectations(t)
}
