package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func uploadRequest(t *testing.T, field, name string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	root := t.TempDir()
	uc := NewUploadController(root, 1, zap.NewNop())
	uc.now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }
	r := gin.New()
	r.POST("/upload", uc.UploadImage)

	t.Run("png accepted", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, "file", "cover.txt", pngHeader))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var env struct {
			Data struct {
				URL  string `json:"url"`
				Mime string `json:"mime"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, "image/png", env.Data.Mime)
		assert.True(t, strings.HasPrefix(env.Data.URL, "/static/uploads/2024/03/09/"))
		assert.True(t, strings.HasSuffix(env.Data.URL, ".png"))

		stored := filepath.Join(root, "2024", "03", "09", filepath.Base(env.Data.URL))
		got, err := os.ReadFile(stored)
		require.NoError(t, err)
		assert.Equal(t, pngHeader, got)
	})

	t.Run("non image rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, "file", "evil.png", []byte("<html><script>alert(1)</script></html>")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("too large", func(t *testing.T) {
		big := append(append([]byte{}, pngHeader...), make([]byte, 1<<20)...)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, "file", "big.png", big))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, "other", "x.png", pngHeader))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
