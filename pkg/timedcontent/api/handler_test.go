package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/timed-content/pkg/timedcontent"
	"github.com/tendant/timed-content/pkg/timedcontent/columnstore/memory"
	"github.com/tendant/timed-content/pkg/timedcontent/generator"
	"github.com/tendant/timed-content/pkg/timedcontent/reading"
	blobmemory "github.com/tendant/timed-content/pkg/timedcontent/storage/memory"
)

type stubReading struct {
	contents reading.Contents
	gen      reading.Generation
	err      error
	genErr   error
	lastKey  string
}

func (s *stubReading) Get(ctx context.Context) (reading.Contents, error) {
	return s.contents, s.err
}

func (s *stubReading) Generation(ctx context.Context, key string) (reading.Generation, error) {
	s.lastKey = key
	return s.gen, s.genErr
}

func serve(t *testing.T, h *Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHandler_Health(t *testing.T) {
	rec := serve(t, NewHandler(&stubReading{}), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestHandler_ReadingContents(t *testing.T) {
	stub := &stubReading{contents: reading.Contents{Title: "T", Story: "S", Questions: []string{"Q1"}}}

	rec := serve(t, NewHandler(stub), "/reading_contents")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"title":"T","story":"S","questions":["Q1"]}`, rec.Body.String())
}

func TestHandler_ReadingContentsErrorsAreGeneric(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"storage", timedcontent.NewStorageError("s3", "list", "reading/", errors.New("secret bucket detail"))},
		{"generation", &timedcontent.GenerationError{Prompt: "reading_comprehension", Err: errors.New("model said no")}},
		{"configuration", timedcontent.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, NewHandler(&stubReading{err: tt.err}), "/reading_contents")
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
		})
	}
}

func TestHandler_GetGeneration(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	stub := &stubReading{gen: reading.Generation{Key: "reading/2024-03-05-14/a.json", Model: "gpt-4o-mini", Prompt: "reading_comprehension", GeneratedAt: at}}

	rec := serve(t, NewHandler(stub), "/generations/reading/2024-03-05-14/a.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reading/2024-03-05-14/a.json", stub.lastKey)

	var got reading.Generation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, stub.gen, got)
}

func TestHandler_GetGenerationErrors(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		stub := &stubReading{genErr: timedcontent.NewStorageError("memory", "get", "k", timedcontent.ErrNotFound)}
		rec := serve(t, NewHandler(stub), "/generations/reading/x.json")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("StorageFailure", func(t *testing.T) {
		stub := &stubReading{genErr: timedcontent.NewStorageError("redis", "get", "k", errors.New("down"))}
		rec := serve(t, NewHandler(stub), "/generations/reading/x.json")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	})

	t.Run("MissingKey", func(t *testing.T) {
		rec := serve(t, NewHandler(&stubReading{}), "/generations/")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_StaticPages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "home.html"), []byte("<h1>home</h1>"), 0644))

	h := NewHandler(&stubReading{}, WithStaticDir(dir))

	for _, path := range []string{"/", "/home"} {
		rec := serve(t, h, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "<h1>home</h1>", rec.Body.String())
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	}

	rec := serve(t, h, "/reading")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, NewHandler(&stubReading{}), "/home")
	assert.Equal(t, http.StatusNotFound, rec.Code, "pages are not routed without a static directory")
}

func TestHandler_EndToEnd(t *testing.T) {
	cache, err := timedcontent.NewCache[reading.Contents](blobmemory.New(), timedcontent.WithCapacity(1))
	require.NoError(t, err)
	svc, err := reading.New(cache,
		generator.Static{Text: `{"title":"T","story":"S","questions":["Q1"]}`},
		reading.WithColumnStore(memory.New()),
	)
	require.NoError(t, err)

	h := NewHandler(svc)
	for i := 0; i < 2; i++ {
		rec := serve(t, h, "/reading_contents")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"title":"T","story":"S","questions":["Q1"]}`, rec.Body.String())
	}
}
