package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"minitube/cmd/config"
	"minitube/pkg/handlers"
	"minitube/pkg/pipeline"
	"minitube/pkg/store"
)

type fakeThumbnailer struct {
	err error
}

func (f *fakeThumbnailer) Generate(videoPath, thumbPath string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(thumbPath, []byte("png"), 0o644)
}

type testServer struct {
	router *gin.Engine
	store  *store.Store
	thumbs *fakeThumbnailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.JWTSecret = "test-secret"

	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "data"))
	require.NoError(t, err)

	thumbs := &fakeThumbnailer{}
	p, err := pipeline.New(st, thumbs, nil, filepath.Join(dir, "videos"), filepath.Join(dir, "thumbnails"))
	require.NoError(t, err)

	r := gin.New()
	handlers.RegisterRoutes(r, handlers.New(st, p))
	return &testServer{router: r, store: st, thumbs: thumbs}
}

func (ts *testServer) doJSON(t *testing.T, method, path, body string, session *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if session != nil {
		req.AddCookie(session)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) doUpload(t *testing.T, path, field, filename, content string, session *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if session != nil {
		req.AddCookie(session)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// signup registers and logs in a user, returning the session cookie.
func (ts *testServer) signup(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	creds := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	w := ts.doJSON(t, http.MethodPost, "/api/register", creds, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.doJSON(t, http.MethodPost, "/api/login", creds, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("login set no session cookie")
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doJSON(t, http.MethodPost, "/api/register", `{"username":"alice","password":"pw"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	// Same name again.
	w = ts.doJSON(t, http.MethodPost, "/api/register", `{"username":"alice","password":"other"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username taken", decode(t, w)["error"])

	// Wrong password.
	w = ts.doJSON(t, http.MethodPost, "/api/login", `{"username":"alice","password":"nope"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid login", decode(t, w)["error"])

	// Unknown user fails the same way.
	w = ts.doJSON(t, http.MethodPost, "/api/login", `{"username":"ghost","password":"pw"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.doJSON(t, http.MethodPost, "/api/login", `{"username":"alice","password":"pw"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "alice", body["username"])
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doJSON(t, http.MethodPost, "/api/register", `{"username":"alice"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadRequiresLogin(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doUpload(t, "/api/upload", "video", "clip.mp4", "bytes", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Login required", decode(t, w)["error"])
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	ts := newTestServer(t)
	session := ts.signup(t, "alice", "pw")

	w := ts.doUpload(t, "/api/upload", "video", "clip.avi", "bytes", session)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Only .mp4 and .webm allowed", decode(t, w)["error"])
	assert.Empty(t, ts.store.Videos())
}

func TestUploadRejectsMissingFile(t *testing.T) {
	ts := newTestServer(t)
	session := ts.signup(t, "alice", "pw")

	w := ts.doUpload(t, "/api/upload", "wrongfield", "clip.mp4", "bytes", session)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ts.store.Videos())
}

func TestUploadThumbnailFailure(t *testing.T) {
	ts := newTestServer(t)
	session := ts.signup(t, "alice", "pw")
	ts.thumbs.err = errors.New("ffmpeg exploded")

	w := ts.doUpload(t, "/api/upload", "video", "clip.mp4", "bytes", session)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Video uploaded but thumbnail generation failed.", decode(t, w)["error"])

	// No record appeared.
	w = ts.doJSON(t, http.MethodGet, "/api/videos", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

// The scenario end to end: alice uploads, bob toggles a like twice.
func TestUploadLikeCommentFlow(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice", "pw")

	w := ts.doUpload(t, "/api/upload", "video", "clip.mp4", "movie bytes", alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	video := decode(t, w)["video"].(map[string]any)
	assert.Equal(t, "clip.mp4", video["title"])
	assert.Equal(t, "alice", video["uploader"])
	assert.Equal(t, []any{}, video["likes"])
	assert.Equal(t, []any{}, video["comments"])
	id := int64(video["id"].(float64))

	// Immediately retrievable, by list and by id.
	w = ts.doJSON(t, http.MethodGet, "/api/videos", "", nil)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0]["uploader"])

	w = ts.doJSON(t, http.MethodGet, fmt.Sprintf("/api/videos/%d", id), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	bob := ts.signup(t, "bob", "pw")

	w = ts.doJSON(t, http.MethodPost, fmt.Sprintf("/api/videos/%d/like", id), "", bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"likes":1}`, w.Body.String())

	// Second toggle by the same user returns to the original state.
	w = ts.doJSON(t, http.MethodPost, fmt.Sprintf("/api/videos/%d/like", id), "", bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"likes":0}`, w.Body.String())

	w = ts.doJSON(t, http.MethodPost, fmt.Sprintf("/api/videos/%d/comment", id), `{"text":"nice"}`, bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"bob","text":"nice"}`, w.Body.String())

	w = ts.doJSON(t, http.MethodGet, fmt.Sprintf("/api/videos/%d", id), "", nil)
	got := decode(t, w)
	require.Len(t, got["comments"], 1)

	// Comments require a text field.
	w = ts.doJSON(t, http.MethodPost, fmt.Sprintf("/api/videos/%d/comment", id), `{}`, bob)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLikeUnknownVideo(t *testing.T) {
	ts := newTestServer(t)
	session := ts.signup(t, "alice", "pw")

	w := ts.doJSON(t, http.MethodPost, "/api/videos/999/like", "", session)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetUnknownVideo(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doJSON(t, http.MethodGet, "/api/videos/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", decode(t, w)["error"])
}

func TestReplaceThumbnailOwnership(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice", "pw")

	w := ts.doUpload(t, "/api/upload", "video", "clip.mp4", "bytes", alice)
	require.Equal(t, http.StatusOK, w.Code)
	video := decode(t, w)["video"].(map[string]any)
	id := int64(video["id"].(float64))
	original := video["thumbnail"].(string)

	bob := ts.signup(t, "bob", "pw")
	w = ts.doUpload(t, fmt.Sprintf("/api/videos/%d/thumbnail", id), "thumbnail", "new.png", "img", bob)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Not your video", decode(t, w)["error"])

	// Unchanged after the rejected attempt.
	v, err := ts.store.FindVideo(id)
	require.NoError(t, err)
	assert.Equal(t, original, v.Thumbnail)

	// The owner can replace it, but not with a disallowed type.
	w = ts.doUpload(t, fmt.Sprintf("/api/videos/%d/thumbnail", id), "thumbnail", "anim.gif", "img", alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.doUpload(t, fmt.Sprintf("/api/videos/%d/thumbnail", id), "thumbnail", "new.jpg", "img", alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	replaced := decode(t, w)["thumbnail"].(string)
	assert.NotEqual(t, original, replaced)

	v, err = ts.store.FindVideo(id)
	require.NoError(t, err)
	assert.Equal(t, replaced, v.Thumbnail)
}

func TestUserPageAndSubscribe(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice", "pw")

	w := ts.doUpload(t, "/api/upload", "video", "clip.mp4", "bytes", alice)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.doJSON(t, http.MethodGet, "/api/user/alice", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.Equal(t, "alice", page["username"])
	assert.Equal(t, float64(0), page["subscribers"])
	assert.Len(t, page["videos"], 1)

	w = ts.doJSON(t, http.MethodGet, "/api/user/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	bob := ts.signup(t, "bob", "pw")
	w = ts.doJSON(t, http.MethodPost, "/api/subscribe/alice", "", bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"subscribers":1}`, w.Body.String())

	// Toggle off.
	w = ts.doJSON(t, http.MethodPost, "/api/subscribe/alice", "", bob)
	assert.JSONEq(t, `{"success":true,"subscribers":0}`, w.Body.String())

	// Self-subscription is not prevented.
	w = ts.doJSON(t, http.MethodPost, "/api/subscribe/alice", "", alice)
	assert.JSONEq(t, `{"success":true,"subscribers":1}`, w.Body.String())

	w = ts.doJSON(t, http.MethodPost, "/api/subscribe/ghost", "", bob)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	ts := newTestServer(t)
	session := ts.signup(t, "alice", "pw")

	w := ts.doJSON(t, http.MethodPost, "/api/logout", "", session)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}
