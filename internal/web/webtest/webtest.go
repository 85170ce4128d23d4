// Package webtest holds helpers shared by handler tests.
package webtest

import (
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"estudio/internal/web"
)

const Secret = "test-secret"

func Renderer(t *testing.T) *web.Renderer {
	t.Helper()
	rn, err := web.NewRenderer(Secret)
	require.NoError(t, err)
	return rn
}

func PostForm(path string, v url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// File is one part of a multipart upload.
type File struct {
	Field   string
	Name    string
	Content string
}

func PostMultipart(t *testing.T, path string, fields url.Values, files ...File) *http.Request {
	t.Helper()
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		for k, vs := range fields {
			for _, v := range vs {
				_ = mw.WriteField(k, v)
			}
		}
		for _, f := range files {
			fw, err := mw.CreateFormFile(f.Field, f.Name)
			if err != nil {
				_ = pw.CloseWithError(err)
				return
			}
			_, _ = io.WriteString(fw, f.Content)
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	req := httptest.NewRequest(http.MethodPost, path, pr)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// Flashes returns the notices a redirect queued.
func Flashes(t *testing.T, rec *httptest.ResponseRecorder) []web.Flash {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return web.NewFlashStore(Secret).Pop(httptest.NewRecorder(), req)
}

// FlashMessage returns the first queued notice, or "" when none.
func FlashMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	fl := Flashes(t, rec)
	if len(fl) == 0 {
		return ""
	}
	return fl[0].Message
}
