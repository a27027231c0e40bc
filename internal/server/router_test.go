package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/coursekit/scormlite-backend/internal/http/handlers"
	"github.com/coursekit/scormlite-backend/internal/http/middleware"
	"github.com/coursekit/scormlite-backend/internal/platform/logger"
	"github.com/coursekit/scormlite-backend/internal/repos"
	"github.com/coursekit/scormlite-backend/internal/scorm"
	"github.com/coursekit/scormlite-backend/internal/services"
	"github.com/coursekit/scormlite-backend/internal/types"
)

const routerTestManifest = `<?xml version="1.0"?>
<manifest identifier="course-e2e" version="1.2">
  <organizations default="org-a">
    <organization identifier="org-a">
      <title>E2E Course</title>
      <item identifier="item-1" identifierref="res-1">
        <title>Lesson One</title>
      </item>
    </organization>
  </organizations>
  <resources>
    <resource identifier="res-1" type="webcontent" href="index.html">
      <file href="index.html"/>
    </resource>
  </resources>
</manifest>`

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.User{}, &types.UserToken{}, &types.Package{}, &types.PackageFile{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	userRepo := repos.NewUserRepo(db, log)
	tokenRepo := repos.NewUserTokenRepo(db, log)
	packageRepo := repos.NewPackageRepo(db, log)
	fileRepo := repos.NewPackageFileRepo(db, log)

	fallback := services.NewFallbackCatalog(filepath.Join(t.TempDir(), "catalog.json"), log)
	packages := services.NewPackageStore(db, log, packageRepo, fileRepo, fallback)
	auth := services.NewAuthService(log, userRepo, tokenRepo, "router-test-secret", time.Minute, time.Hour)
	sessions := services.NewSessionService(log, packages, scorm.NewBridge())

	return NewRouter(RouterConfig{
		Log:            log,
		AuthMiddleware: middleware.NewAuthMiddleware(log, auth),
		HealthHandler:  handlers.NewHealthHandler(),
		AuthHandler:    handlers.NewAuthHandler(auth),
		PackageHandler: handlers.NewPackageHandler(log, packages),
		ContentHandler: handlers.NewContentHandler(log, packages),
		SessionHandler: handlers.NewSessionHandler(log, sessions),
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, url, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestRouterFullCourseFlow(t *testing.T) {
	router := newTestRouter(t)

	// Health is public.
	w := doJSON(t, router, http.MethodGet, "/healthcheck", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthcheck status = %d", w.Code)
	}

	// Protected surface rejects anonymous callers.
	w = doJSON(t, router, http.MethodGet, "/api/packages", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list status = %d", w.Code)
	}

	// Register + login.
	w = doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{
		"email": "ada@example.com", "password": "hunter2", "name": "Ada Lovelace",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register status = %d body = %s", w.Code, w.Body.String())
	}
	w = doJSON(t, router, http.MethodPost, "/api/login", "", gin.H{
		"email": "ada@example.com", "password": "hunter2",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body = %s", w.Code, w.Body.String())
	}
	token, _ := decodeBody(t, w)["access_token"].(string)
	if token == "" {
		t.Fatal("login returned no access token")
	}

	// Upload a package.
	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	for name, body := range map[string]string{
		"imsmanifest.xml": routerTestManifest,
		"index.html":      "<html><head><title>L1</title></head><body>lesson</body></html>",
	} {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := f.Write([]byte(body)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	var formBuf bytes.Buffer
	mw := multipart.NewWriter(&formBuf)
	part, err := mw.CreateFormFile("file", "course.zip")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write(zipBuf.Bytes()); err != nil {
		t.Fatalf("form write: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("form close: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/packages", &formBuf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d body = %s", w.Code, w.Body.String())
	}
	packageID, _ := decodeBody(t, w)["id"].(string)
	if packageID == "" {
		t.Fatal("upload returned no package id")
	}

	// Outline shows the resolved play-list.
	w = doJSON(t, router, http.MethodGet, "/api/packages/"+packageID+"/outline", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("outline status = %d body = %s", w.Code, w.Body.String())
	}
	outline := decodeBody(t, w)
	entries, _ := outline["entries"].([]any)
	if len(entries) != 1 {
		t.Fatalf("outline entries = %v", outline["entries"])
	}

	// Launch the first item.
	w = doJSON(t, router, http.MethodPost, "/api/packages/"+packageID+"/sessions", token, gin.H{"item_index": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("launch status = %d body = %s", w.Code, w.Body.String())
	}
	launch := decodeBody(t, w)
	sessionID, _ := launch["session_id"].(string)
	if sessionID == "" {
		t.Fatal("launch returned no session id")
	}
	if launch["href"] != "index.html" {
		t.Fatalf("launch href = %v", launch["href"])
	}

	// Drive the protocol through the invoke endpoint.
	invoke := func(method string, args ...string) string {
		t.Helper()
		w := doJSON(t, router, http.MethodPost, "/api/sessions/"+sessionID+"/invoke", token, gin.H{
			"method": method, "args": args,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("invoke %s status = %d body = %s", method, w.Code, w.Body.String())
		}
		result, _ := decodeBody(t, w)["result"].(string)
		return result
	}
	if got := invoke("LMSInitialize", ""); got != "true" {
		t.Fatalf("LMSInitialize = %q", got)
	}
	if got := invoke("LMSGetValue", "cmi.core.student_name"); got != "Ada Lovelace" {
		t.Fatalf("student_name = %q", got)
	}
	if got := invoke("LMSSetValue", "cmi.core.lesson_status", "completed"); got != "true" {
		t.Fatalf("LMSSetValue = %q", got)
	}
	if got := invoke("LMSFinish", ""); got != "true" {
		t.Fatalf("LMSFinish = %q", got)
	}

	// Content serving injects the bootstrap when a session is named.
	contentURL := "/content/" + packageID + "/index.html?session_id=" + sessionID + "&token=" + token
	req = httptest.NewRequest(http.MethodGet, contentURL, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("content status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "scormlite-api-bootstrap") {
		t.Fatal("served HTML is missing the bootstrap script")
	}
	if !strings.Contains(w.Body.String(), "lesson") {
		t.Fatal("served HTML lost the original body")
	}

	// HTML fetched without a session (a sub-frame navigation that dropped
	// the query string) still gets discovery wiring.
	req = httptest.NewRequest(http.MethodGet, "/content/"+packageID+"/index.html?token="+token, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("sessionless content status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "scormlite-api-bootstrap") {
		t.Fatal("sessionless HTML is missing the bootstrap script")
	}

	// End the session.
	w = doJSON(t, router, http.MethodDelete, "/api/sessions/"+sessionID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("end session status = %d", w.Code)
	}

	// Delete the package.
	w = doJSON(t, router, http.MethodDelete, "/api/packages/"+packageID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/api/packages/"+packageID, token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", w.Code)
	}
}
