package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bookkeeper/internal/book"
	"bookkeeper/internal/config"
	"bookkeeper/internal/database"
	"bookkeeper/internal/httpx"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestServer boots the full stack (store, service, routes, middleware)
// against a throwaway SQLite file, exactly as main wires it.
func newTestServer(t *testing.T, seed bool) *httptest.Server {
	t.Helper()

	cfg := config.Config{
		DBMode:         config.ModeSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "books.db"),
		MaxConns:       4,
		ConnectTimeout: 500 * time.Millisecond,
		SeedOnStart:    seed,
	}

	logger := zap.NewNop().Sugar()
	store, err := database.Bootstrap(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	service := book.NewService(newRepository(store))
	srv := httptest.NewServer(newHandler(service, store, logger, prometheus.NewRegistry()))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeJSON(t *testing.T, raw []byte, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, out), "body: %s", raw)
}

func apiErrorCode(t *testing.T, raw []byte) string {
	t.Helper()
	var resp httpx.ErrorResponse
	decodeJSON(t, raw, &resp)
	return resp.Error.Code
}

func validCreateBody(n int) map[string]any {
	return map[string]any{
		"title":  fmt.Sprintf("Book %02d", n),
		"author": fmt.Sprintf("Author %02d", n),
		"isbn":   fmt.Sprintf("978-%010d", n),
	}
}

func TestAPI_InfoAndHealth(t *testing.T) {
	srv := newTestServer(t, false)

	t.Run("root reports endpoints", func(t *testing.T) {
		resp, raw := doJSON(t, http.MethodGet, srv.URL+"/", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var info map[string]string
		decodeJSON(t, raw, &info)
		assert.Equal(t, "Welcome to the Book Management API", info["message"])
		assert.Equal(t, "/books/", info["books"])
	})

	t.Run("health and healthz agree", func(t *testing.T) {
		for _, path := range []string{"/health", "/healthz"} {
			resp, raw := doJSON(t, http.MethodGet, srv.URL+path, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode, path)

			var health map[string]string
			decodeJSON(t, raw, &health)
			assert.Equal(t, "healthy", health["status"], path)
			assert.Equal(t, "connected", health["database"], path)
		}
	})

	t.Run("responses carry request id and security headers", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/health", nil)
		assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
		assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	})

	t.Run("metrics expose request counts", func(t *testing.T) {
		// The health requests above have already been counted.
		resp, raw := doJSON(t, http.MethodGet, srv.URL+"/metrics", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), "bookkeeper_http_requests_total")
	})

	t.Run("embedded ui is served", func(t *testing.T) {
		resp, raw := doJSON(t, http.MethodGet, srv.URL+"/ui/", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
		assert.Contains(t, string(raw), "<title>Bookkeeper</title>")

		resp, _ = doJSON(t, http.MethodGet, srv.URL+"/ui/app.js", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestAPI_BookLifecycle(t *testing.T) {
	srv := newTestServer(t, false)

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/books/", map[string]any{
		"title":          "Clean Code",
		"author":         "Robert C. Martin",
		"isbn":           "978-0132350884",
		"description":    "A Handbook of Agile Software Craftsmanship",
		"pages":          464,
		"published_year": 2008,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)

	var created book.Book
	decodeJSON(t, raw, &created)
	require.NotEmpty(t, created.ID)
	assert.Contains(t, string(raw), `"published_year"`)

	bookURL := srv.URL + "/books/" + created.ID.String()

	t.Run("get returns the stored book", func(t *testing.T) {
		resp, raw := doJSON(t, http.MethodGet, bookURL, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got book.Book
		decodeJSON(t, raw, &got)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Clean Code", got.Title)
	})

	t.Run("duplicate isbn is rejected", func(t *testing.T) {
		resp, raw := doJSON(t, http.MethodPost, srv.URL+"/books/", map[string]any{
			"title":  "Someone Else's Clean Code",
			"author": "Somebody",
			"isbn":   "978-0132350884",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "DUPLICATE_ISBN", apiErrorCode(t, raw))
	})

	t.Run("put replaces the whole record", func(t *testing.T) {
		resp, raw := doJSON(t, http.MethodPut, bookURL, map[string]any{
			"title":  "Clean Code, Second Edition",
			"author": "Robert C. Martin",
			"isbn":   "978-0132350884",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)

		var updated book.Book
		decodeJSON(t, raw, &updated)
		assert.Equal(t, "Clean Code, Second Edition", updated.Title)
		assert.Empty(t, updated.Description)
		assert.Nil(t, updated.Pages)
	})

	t.Run("patch touches only the named fields", func(t *testing.T) {
		resp, raw := doJSON(t, http.MethodPatch, bookURL, map[string]any{"pages": 512})
		require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)

		var patched book.Book
		decodeJSON(t, raw, &patched)
		require.NotNil(t, patched.Pages)
		assert.Equal(t, 512, *patched.Pages)
		assert.Equal(t, "Clean Code, Second Edition", patched.Title)
	})

	t.Run("delete then get is 404", func(t *testing.T) {
		resp, raw := doJSON(t, http.MethodDelete, bookURL, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, raw)

		resp, raw = doJSON(t, http.MethodGet, bookURL, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", apiErrorCode(t, raw))

		resp, _ = doJSON(t, http.MethodDelete, bookURL, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed id is 404", func(t *testing.T) {
		resp, raw := doJSON(t, http.MethodGet, srv.URL+"/books/not-a-uuid", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", apiErrorCode(t, raw))
	})
}

func TestAPI_Validation(t *testing.T) {
	srv := newTestServer(t, false)

	t.Run("missing title", func(t *testing.T) {
		resp, raw := doJSON(t, http.MethodPost, srv.URL+"/books/", map[string]any{
			"author": "Robert C. Martin",
			"isbn":   "978-0132350884",
		})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var errResp httpx.ErrorResponse
		decodeJSON(t, raw, &errResp)
		assert.Equal(t, "VALIDATION_ERROR", errResp.Error.Code)
		require.Len(t, errResp.Error.Details, 1)
		assert.Equal(t, "title", errResp.Error.Details[0].Field)
	})

	t.Run("zero pages", func(t *testing.T) {
		body := validCreateBody(1)
		body["pages"] = 0
		resp, raw := doJSON(t, http.MethodPost, srv.URL+"/books/", body)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", apiErrorCode(t, raw))
	})

	t.Run("malformed json", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/books/", "application/json", strings.NewReader("{oops"))
		require.NoError(t, err)
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "BAD_REQUEST", apiErrorCode(t, raw))
	})

	t.Run("oversized body", func(t *testing.T) {
		body := validCreateBody(2)
		body["description"] = strings.Repeat("a", 2<<20)
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/books/", body)
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	})
}

func TestAPI_ListAndSearch(t *testing.T) {
	srv := newTestServer(t, false)

	for i := 1; i <= 15; i++ {
		resp, raw := doJSON(t, http.MethodPost, srv.URL+"/books/", validCreateBody(i))
		require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)
	}

	t.Run("both list spellings work", func(t *testing.T) {
		for _, path := range []string{"/books", "/books/"} {
			resp, raw := doJSON(t, http.MethodGet, srv.URL+path, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode, path)

			var page book.Page
			decodeJSON(t, raw, &page)
			assert.Equal(t, 15, page.TotalRecords, path)
		}
	})

	t.Run("second page holds the remainder", func(t *testing.T) {
		resp, raw := doJSON(t, http.MethodGet, srv.URL+"/books/?page=2&page_size=10", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page book.Page
		decodeJSON(t, raw, &page)
		assert.Equal(t, 2, page.CurrentPage)
		assert.Equal(t, 2, page.TotalPages)
		assert.Len(t, page.Data, 5)
	})

	t.Run("search narrows by title", func(t *testing.T) {
		resp, raw := doJSON(t, http.MethodGet, srv.URL+"/books/search?q=Book+07", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page book.Page
		decodeJSON(t, raw, &page)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "Book 07", page.Data[0].Title)
	})

	t.Run("method not registered on collection", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/books", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestAPI_SeededBootstrap(t *testing.T) {
	srv := newTestServer(t, true)

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/books/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page book.Page
	decodeJSON(t, raw, &page)
	assert.Equal(t, 6, page.TotalRecords)

	found := false
	for _, b := range page.Data {
		if b.Title == "The Mythical Man-Month" {
			found = true
		}
	}
	assert.True(t, found, "seed data should include the sample books")
}
