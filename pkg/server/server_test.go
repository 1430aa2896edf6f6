// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/clusterrc/pkg/config"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func testServer(t *testing.T, mutate func(cfg *config.Config)) *Server {
	t.Helper()
	cfg := &config.Config{ScratchDir: t.TempDir()}
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	srv, err := New(Options{Config: cfg, Registry: prometheus.NewRegistry()})
	require.NoError(t, err)
	return srv
}

// 🧪 zipBytes builds an in-memory archive from name/content pairs
func zipBytes(t *testing.T, entries ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i := 0; i < len(entries); i += 2 {
		w, err := zw.Create(entries[i])
		require.NoError(t, err)
		_, err = io.WriteString(w, entries[i+1])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type uploadForm struct {
	filename string
	file     []byte
	value    *string
}

// 🧪 uploadRequest builds a multipart POST /upload request
func uploadRequest(t *testing.T, ctx context.Context, form uploadForm) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if form.value != nil {
		require.NoError(t, mw.WriteField(FieldValue, *form.value))
	}
	if form.file != nil {
		fw, err := mw.CreateFormFile(FieldFile, form.filename)
		require.NoError(t, err)
		_, err = fw.Write(form.file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body).WithContext(ctx)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func ptr(s string) *string { return &s }

func readZipBody(t *testing.T, body []byte) map[string]string {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	out := map[string]string{}
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = string(data)
	}
	return out
}

func TestHandleUpload(t *testing.T) {
	ctx := testContext(t)
	srv := testServer(t, nil)

	input := zipBytes(t,
		"presets/a.xmp", `<x crs:Cluster="Blue"/>`,
		"presets/b.xmp", `<x/>`,
		"presets/readme.txt", "hi",
	)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, ctx, uploadForm{filename: "mine.zip", file: input, value: ptr("Red")}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="edited_presets.zip"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "1", rec.Header().Get(HeaderRewritten))
	assert.Equal(t, "0", rec.Header().Get(HeaderFailed))
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	assert.Equal(t, map[string]string{
		"presets/":      "",
		"presets/a.xmp": `<x crs:Cluster="Red"/>`,
	}, readZipBody(t, rec.Body.Bytes()))

	leftovers, err := filepath.Glob(filepath.Join(srv.cfg.ScratchDir, "*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "request and run scratch roots are removed")
}

func TestHandleUpload_DownloadName(t *testing.T) {
	tests := []struct {
		name         string
		downloadName string
		archiveName  string
		want         string
	}{
		{name: "archive_default", downloadName: "", want: `attachment; filename="edited_presets.zip"`},
		{name: "archive_custom", downloadName: config.DownloadArchive, archiveName: "bundle", want: `attachment; filename="bundle.zip"`},
		{name: "legacy_upload_name", downloadName: config.DownloadUpload, want: `attachment; filename="mine.zip"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			srv := testServer(t, func(cfg *config.Config) {
				cfg.DownloadName = tt.downloadName
				cfg.ArchiveName = tt.archiveName
			})

			rec := httptest.NewRecorder()
			req := uploadRequest(t, ctx, uploadForm{filename: `C:\Users\me\mine.zip`, file: zipBytes(t, "a.xmp", `crs:Cluster="x"`), value: ptr("y")})
			srv.Handler().ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, rec.Header().Get("Content-Disposition"))
		})
	}
}

func TestHandleUpload_Errors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		mutate   func(cfg *config.Config)
		form     uploadForm
		wantCode int
	}{
		{
			name:     "missing_value",
			form:     uploadForm{filename: "a.zip", file: zipBytes(t)},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing_file",
			form:     uploadForm{value: ptr("Red")},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "value_with_quote",
			form:     uploadForm{filename: "a.zip", file: zipBytes(t), value: ptr(`Red"`)},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "not_a_zip",
			form:     uploadForm{filename: "a.zip", file: []byte("plain text"), value: ptr("Red")},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "zip_slip",
			form:     uploadForm{filename: "a.zip", file: zipBytes(t, "../evil.xmp", "x"), value: ptr("Red")},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "entry_too_large",
			mutate:   func(cfg *config.Config) { cfg.MaxEntryBytes = 8 },
			form:     uploadForm{filename: "a.zip", file: zipBytes(t, "a.xmp", strings.Repeat("x", 64)), value: ptr("Red")},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "upload_too_large",
			mutate:   func(cfg *config.Config) { cfg.MaxUploadBytes = 512 },
			form:     uploadForm{filename: "a.zip", file: bytes.Repeat([]byte("z"), 4096), value: ptr("Red")},
			wantCode: http.StatusRequestEntityTooLarge,
		},
		{
			name:     "wrong_method",
			method:   http.MethodGet,
			wantCode: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			srv := testServer(t, tt.mutate)

			req := uploadRequest(t, ctx, tt.form)
			if tt.method != "" {
				req = httptest.NewRequest(tt.method, "/upload", nil).WithContext(ctx)
			}

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.NotEqual(t, "application/zip", rec.Header().Get("Content-Type"))
		})
	}
}

func TestHandleUpload_CancelledRequestLeavesNoScratch(t *testing.T) {
	srv := testServer(t, nil)

	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	req := uploadRequest(t, ctx, uploadForm{
		filename: "presets.zip",
		file:     zipBytes(t, "a.xmp", `crs:Cluster="Blue"`),
		value:    ptr("Red"),
	})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	entries, err := os.ReadDir(srv.cfg.ScratchDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "every scratch root is removed once the handler returns")
}

func TestHealthAndMetrics(t *testing.T) {
	ctx := testContext(t)
	srv := testServer(t, nil)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, ctx, uploadForm{filename: "a.zip", file: zipBytes(t, "a.xmp", `crs:Cluster="x"`), value: ptr("y")}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, ctx, uploadForm{filename: "a.zip", file: []byte("nope"), value: ptr("y")}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `clusterrc_uploads_total{result="success"} 1`)
	assert.Contains(t, body, `clusterrc_uploads_total{result="invalid_archive"} 1`)
	assert.Contains(t, body, `clusterrc_files_total{status="rewritten"} 1`)
	assert.Contains(t, body, `clusterrc_uploads_in_flight 0`)
	assert.Contains(t, body, `clusterrc_upload_duration_seconds_count 2`)
}

func TestClassifyStatus(t *testing.T) {
	tests := map[int]string{
		http.StatusOK:                    "success",
		http.StatusBadRequest:            "bad_request",
		http.StatusMethodNotAllowed:      "bad_request",
		http.StatusRequestEntityTooLarge: "too_large",
		http.StatusUnprocessableEntity:   "invalid_archive",
		http.StatusInternalServerError:   "error",
	}
	for code, want := range tests {
		assert.Equal(t, want, classifyStatus(code), "status %d", code)
	}
}

func TestUploadFilename(t *testing.T) {
	assert.Equal(t, "a.zip", uploadFilename("a.zip"))
	assert.Equal(t, "a.zip", uploadFilename("../../a.zip"))
	assert.Equal(t, "a.zip", uploadFilename(`C:\tmp\a.zip`))
	assert.Equal(t, "upload.zip", uploadFilename(""))
	assert.Equal(t, "upload.zip", uploadFilename(".."))
}

func TestServe_Shutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()
	srv := testServer(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "graceful shutdown is not an error")
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}
