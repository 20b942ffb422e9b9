package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardscan/internal/contact"
	"cardscan/internal/imgio"
	"cardscan/internal/pipeline"
)

type fakeProcessor struct {
	records  []contact.Record
	err      error
	lastOpts pipeline.Options
	lastData []byte
}

func (f *fakeProcessor) ProcessImageWithOptions(data []byte, opts pipeline.Options) ([]contact.Record, error) {
	f.lastData = data
	f.lastOpts = opts
	return f.records, f.err
}

func newTestServer(p Processor) *Server {
	return New(DefaultConfig(), p, nil)
}

func multipartScan(t *testing.T, fields map[string]string, imageData []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if imageData != nil {
		part, err := writer.CreateFormFile("image", "card.jpg")
		require.NoError(t, err)
		_, err = part.Write(imageData)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/scan", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestScanSuccess(t *testing.T) {
	proc := &fakeProcessor{records: []contact.Record{{FullName: "John Smith"}}}
	srv := newTestServer(proc)

	req := multipartScan(t, map[string]string{"lang": "deu", "enrich": "false"}, []byte("fake-image"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "John Smith", resp.Contacts[0].FullName)

	assert.Equal(t, []byte("fake-image"), proc.lastData)
	assert.Equal(t, "deu", proc.lastOpts.Lang)
	require.NotNil(t, proc.lastOpts.Enrich)
	assert.False(t, *proc.lastOpts.Enrich)
}

func TestScanDefaultsOmitOverrides(t *testing.T) {
	proc := &fakeProcessor{}
	srv := newTestServer(proc)

	req := multipartScan(t, nil, []byte("img"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, proc.lastOpts.Lang)
	assert.Nil(t, proc.lastOpts.Enrich)
}

func TestScanMissingImage(t *testing.T) {
	srv := newTestServer(&fakeProcessor{})

	req := multipartScan(t, map[string]string{"lang": "eng"}, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing image file")
}

func TestScanInvalidEnrichValue(t *testing.T) {
	srv := newTestServer(&fakeProcessor{})

	req := multipartScan(t, map[string]string{"enrich": "maybe"}, []byte("img"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanDecodeErrorIsBadRequest(t *testing.T) {
	proc := &fakeProcessor{err: &imgio.DecodeError{Operation: "decode", Err: errors.New("bad header")}}
	srv := newTestServer(proc)

	req := multipartScan(t, nil, []byte("not an image"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanInternalError(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("tesseract exploded")}
	srv := newTestServer(proc)

	req := multipartScan(t, nil, []byte("img"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "tesseract") // internals stay private
}

func TestScanWrongMethod(t *testing.T) {
	srv := newTestServer(&fakeProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/scan", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&fakeProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["version"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&fakeProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cardscan_http_requests_total")
}
