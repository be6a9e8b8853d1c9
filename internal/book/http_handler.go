package book

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bookkeeper/internal/httpx"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// createBookRequest is the body for POST and, being a full representation,
// for PUT as well.
type createBookRequest struct {
	Title         string `json:"title" validate:"required,min=1,max=255"`
	Author        string `json:"author" validate:"required,min=1,max=255"`
	ISBN          string `json:"isbn" validate:"required,min=10,max=20"`
	Description   string `json:"description"`
	Pages         *int   `json:"pages" validate:"omitnil,gt=0"`
	PublishedYear *int   `json:"published_year"`
}

// patchBookRequest is the body for PATCH. Absent fields stay nil and leave
// the stored values alone.
type patchBookRequest struct {
	Title         *string `json:"title" validate:"omitnil,min=1,max=255"`
	Author        *string `json:"author" validate:"omitnil,min=1,max=255"`
	ISBN          *string `json:"isbn" validate:"omitnil,min=10,max=20"`
	Description   *string `json:"description"`
	Pages         *int    `json:"pages" validate:"omitnil,gt=0"`
	PublishedYear *int    `json:"published_year"`
}

// List handles GET /books/
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	result, err := h.service.List(r.Context(), page, pageSize)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// Search handles GET /books/search
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	result, err := h.service.Search(r.Context(), r.URL.Query().Get("q"), page, pageSize)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// Get handles GET /books/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

// Create handles POST /books/
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCreateBody(w, r)
	if !ok {
		return
	}

	b, err := h.service.Create(r.Context(), createParams(req))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

// Update handles PUT /books/{id} as a full replace.
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	req, ok := decodeCreateBody(w, r)
	if !ok {
		return
	}

	b, err := h.service.Update(r.Context(), id, createParams(req))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

// Patch handles PATCH /books/{id} as a partial update.
func (h *HTTPHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	var req patchBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "request validation failed", details)
		return
	}

	b, err := h.service.Patch(r.Context(), id, UpdateParams{
		Title:         req.Title,
		Author:        req.Author,
		ISBN:          req.ISBN,
		Description:   req.Description,
		Pages:         req.Pages,
		PublishedYear: req.PublishedYear,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

// Delete handles DELETE /books/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	httpx.NoContent(w)
}

func decodeCreateBody(w http.ResponseWriter, r *http.Request) (createBookRequest, bool) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return createBookRequest{}, false
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "request validation failed", details)
		return createBookRequest{}, false
	}
	return req, true
}

func createParams(req createBookRequest) CreateParams {
	return CreateParams{
		Title:         req.Title,
		Author:        req.Author,
		ISBN:          req.ISBN,
		Description:   req.Description,
		Pages:         req.Pages,
		PublishedYear: req.PublishedYear,
	}
}

func pageParams(r *http.Request) (page, pageSize int) {
	query := r.URL.Query()

	page, _ = strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(query.Get("page_size"))
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize
}

// bookID parses the {id} path segment. An unparseable ID cannot name an
// existing book, so it answers 404 rather than 400.
func bookID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "book not found", nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "book not found", nil)
	case errors.Is(err, ErrDuplicateISBN):
		httpx.JSONError(w, http.StatusBadRequest, "DUPLICATE_ISBN", "a book with this ISBN already exists", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}
