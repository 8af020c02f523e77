package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"label-cabinet/backstage/internal/constants"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestValidate_AcceptsImageForAvatar(t *testing.T) {
	ct, err := Validate(constants.BucketAvatars, pngHeader)
	require.NoError(t, err)
	require.Equal(t, "image/png", ct)
}

func TestValidate_RejectsTextForAvatar(t *testing.T) {
	_, err := Validate(constants.BucketAvatars, []byte("just some text"))
	require.True(t, errors.Is(err, constants.ErrValidation))
}

func TestValidate_AllowsTextAttachment(t *testing.T) {
	ct, err := Validate(constants.BucketTicketAttachments, []byte("log line 1\nlog line 2\n"))
	require.NoError(t, err)
	require.Equal(t, "text/plain", ct)
}

func TestValidate_RejectsOversize(t *testing.T) {
	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, MaxAvatarSize)...)
	_, err := Validate(constants.BucketAvatars, big)
	require.True(t, errors.Is(err, constants.ErrValidation))
}

func TestValidate_UnknownBucket(t *testing.T) {
	_, err := Validate("nope", pngHeader)
	require.Error(t, err)
}

func TestObjectPath_ExtensionFollowsContentType(t *testing.T) {
	p := ObjectPath("user-1", "image/png")
	require.True(t, strings.HasPrefix(p, "user-1/"))
	require.True(t, strings.HasSuffix(p, ".png"))

	p = ObjectPath("user-1", "text/plain")
	require.True(t, strings.HasSuffix(p, ".txt"))
}

func TestFileServer_Headers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), pngHeader, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("<script>alert(1)</script>"), 0o644))
	srv := FileServer(dir)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/a.png", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.Empty(t, rr.Header().Get("Content-Disposition"))

	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/b.txt", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "attachment", rr.Header().Get("Content-Disposition"))
	require.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/plain"))
}

func TestSupabaseStorage_Upload(t *testing.T) {
	var gotPath, gotUpsert, gotAuth, gotType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUpsert = r.Header.Get("x-upsert")
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"Key":"avatars/u/x.png"}`))
	}))
	defer server.Close()

	s := NewSupabaseStorage(server.URL+"/", "svc")
	url, err := s.Upload(context.Background(), "avatars", "u/x.png", pngHeader, "image/png")
	require.NoError(t, err)

	require.Equal(t, "/storage/v1/object/avatars/u/x.png", gotPath)
	require.Equal(t, "true", gotUpsert)
	require.Equal(t, "Bearer svc", gotAuth)
	require.Equal(t, "image/png", gotType)
	require.Equal(t, pngHeader, gotBody)
	require.Equal(t, server.URL+"/storage/v1/object/public/avatars/u/x.png", url)
}

func TestSupabaseStorage_UploadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"bucket not found"}`))
	}))
	defer server.Close()

	s := NewSupabaseStorage(server.URL, "svc")
	_, err := s.Upload(context.Background(), "avatars", "u/x.png", pngHeader, "image/png")
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}

func TestSupabaseStorage_Delete(t *testing.T) {
	var method, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewSupabaseStorage(server.URL, "svc")
	require.NoError(t, s.Delete(context.Background(), "releases", []string{"u/a.png"}))
	require.Equal(t, http.MethodDelete, method)
	require.Equal(t, "/storage/v1/object/releases", path)
}

func TestLocalStorage_UploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "http://localhost:8080/")
	require.NoError(t, err)

	url, err := s.Upload(context.Background(), "avatars", "u/x.png", pngHeader, "image/png")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/files/avatars/u/x.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "avatars", "u", "x.png"))
	require.NoError(t, err)
	require.Equal(t, pngHeader, data)

	require.NoError(t, s.Delete(context.Background(), "avatars", []string{"u/x.png"}))
	_, err = os.Stat(filepath.Join(dir, "avatars", "u", "x.png"))
	require.True(t, os.IsNotExist(err))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "http://localhost")
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), "avatars", "../../etc/passwd", []byte("x"), "text/plain")
	require.Error(t, err)
}
