package profileimages

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"

	localstore "learning-backend/internal/shared/storage/object/local"
	"learning-backend/internal/users"
)

func newUploadRouter(t *testing.T, username string, staff bool) (*gin.Engine, *users.MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userRepo := users.NewMemoryRepo()
	userSvc := users.NewService(userRepo)
	svc := &Service{Store: localstore.New(t.TempDir())}
	handler := NewHandler(svc, userSvc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", "user:"+username)
		c.Set("username", username)
		c.Set("isStaff", staff)
		c.Next()
	})
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	return router, userRepo
}

func seedUser(t *testing.T, repo *users.MemoryRepo, username string) {
	t.Helper()
	err := repo.Upsert(context.Background(), users.User{
		ID:       "user:" + username,
		Username: username,
		Email:    username + "@example.com",
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
}

func multipartUpload(t *testing.T, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestUploadOwnerSucceeds(t *testing.T) {
	router, repo := newUploadRouter(t, "alice", false)
	seedUser(t, repo, "alice")

	body, contentType := multipartUpload(t, "avatar.png", "image/png", testPNG(t, 200, 100))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/alice/profile-image", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Status string   `json:"status"`
		Paths  []string `json:"paths"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "success" {
		t.Fatalf("expected status success, got %q", payload.Status)
	}
	if len(payload.Paths) != len(ThumbnailSizes) {
		t.Fatalf("expected %d paths, got %d", len(ThumbnailSizes), len(payload.Paths))
	}
}

func TestUploadForOtherUserForbidden(t *testing.T) {
	router, repo := newUploadRouter(t, "mallory", false)
	seedUser(t, repo, "alice")

	body, contentType := multipartUpload(t, "avatar.png", "image/png", testPNG(t, 200, 100))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/alice/profile-image", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestUploadStaffMayActForOtherUser(t *testing.T) {
	router, repo := newUploadRouter(t, "admin", true)
	seedUser(t, repo, "alice")

	body, contentType := multipartUpload(t, "avatar.png", "image/png", testPNG(t, 200, 100))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/alice/profile-image", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUploadUnknownUserNotFound(t *testing.T) {
	router, _ := newUploadRouter(t, "alice", false)

	body, contentType := multipartUpload(t, "avatar.png", "image/png", testPNG(t, 200, 100))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/alice/profile-image", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestUploadRejectionMapsReasonToErrorCode(t *testing.T) {
	router, repo := newUploadRouter(t, "alice", false)
	seedUser(t, repo, "alice")

	// Declared PNG name over JPEG bytes fails the magic check.
	body, contentType := multipartUpload(t, "avatar.png", "image/png", padded(jpegMagic, 200))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/alice/profile-image", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error.Code != string(ReasonBadExt) {
		t.Fatalf("expected code %q, got %q", ReasonBadExt, payload.Error.Code)
	}
	if payload.Error.Message != ReasonBadExt.Message() {
		t.Fatalf("expected message %q, got %q", ReasonBadExt.Message(), payload.Error.Message)
	}
}

func TestUploadMissingFileIsBadRequest(t *testing.T) {
	router, repo := newUploadRouter(t, "alice", false)
	seedUser(t, repo, "alice")

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/alice/profile-image", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
