package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/embedworks/vidembed/internal/domain/model"
	"github.com/embedworks/vidembed/internal/domain/repository"
	"github.com/embedworks/vidembed/internal/usecase"
)

// Request/Response types

type FormatRequest struct {
	PageID int    `json:"page_id"`
	Field  string `json:"field"`
	Value  string `json:"value"`
}

type FormatResponse struct {
	Value   string `json:"value"`
	Changed bool   `json:"changed"`
}

type EmbedResponse struct {
	VideoID      string `json:"video_id"`
	VideoURL     string `json:"video_url"`
	Valid        bool   `json:"valid"`
	HTTPStatus   int    `json:"http_status,omitempty"`
	Title        string `json:"title,omitempty"`
	AuthorName   string `json:"author_name,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	PageID       int    `json:"page_id,omitempty"`
	Field        string `json:"field,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type EmbedListResponse struct {
	Embeds []EmbedResponse `json:"embeds"`
	Count  int             `json:"count"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

type RefreshResponse struct {
	TaskID string `json:"task_id"`
}

// EmbedHandler handles embed formatting and cache administration requests.
type EmbedHandler struct {
	embeds    usecase.EmbedService
	formatter usecase.FormatService
}

// NewEmbedHandler creates a new EmbedHandler.
func NewEmbedHandler(embeds usecase.EmbedService, formatter usecase.FormatService) *EmbedHandler {
	return &EmbedHandler{
		embeds:    embeds,
		formatter: formatter,
	}
}

// Format handles POST /v1/format
func (h *EmbedHandler) Format(w http.ResponseWriter, r *http.Request) {
	var req FormatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	output, err := h.formatter.FormatValue(r.Context(), usecase.FormatInput{
		Owner: model.OwnerRef{PageID: req.PageID, Field: req.Field},
		Value: req.Value,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, FormatResponse{
		Value:   output.Value,
		Changed: output.Changed,
	})
}

// List handles GET /v1/embeds
func (h *EmbedHandler) List(w http.ResponseWriter, r *http.Request) {
	params := repository.ListParams{
		Sort: repository.ParseSortOrder(r.URL.Query().Get("sort")),
	}

	if v := r.URL.Query().Get("start"); v != "" {
		start, err := strconv.Atoi(v)
		if err != nil || start < 0 {
			Error(w, http.StatusBadRequest, "invalid_start", "start must be a non-negative integer")
			return
		}
		params.Start = start
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			Error(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		params.Limit = limit
	}

	records, err := h.embeds.List(r.Context(), params)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	embeds := make([]EmbedResponse, 0, len(records))
	for _, rec := range records {
		embeds = append(embeds, toEmbedResponse(rec))
	}

	JSON(w, http.StatusOK, EmbedListResponse{
		Embeds: embeds,
		Count:  len(embeds),
	})
}

// Count handles GET /v1/embeds/count
func (h *EmbedHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.embeds.Count(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, CountResponse{Count: count})
}

// DeleteOne handles DELETE /v1/embeds/{videoID}
func (h *EmbedHandler) DeleteOne(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	deleted, err := h.embeds.Invalidate(r.Context(), videoID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, DeleteResponse{Deleted: deleted})
}

// DeleteAll handles DELETE /v1/embeds
func (h *EmbedHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.embeds.InvalidateAll(r.Context()); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Refresh handles POST /v1/embeds/{videoID}/refresh
func (h *EmbedHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	taskID, err := h.embeds.Refresh(r.Context(), videoID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusAccepted, RefreshResponse{TaskID: taskID.String()})
}

// Thumbnail handles GET /v1/embeds/{videoID}/thumbnail
func (h *EmbedHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	url, err := h.embeds.ThumbnailURL(r.Context(), videoID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (h *EmbedHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrEmbedNotFound):
		Error(w, http.StatusNotFound, "embed_not_found", "No cached embed for this video id")
	case errors.Is(err, usecase.ErrNoThumbnail):
		Error(w, http.StatusNotFound, "no_thumbnail", "The cached embed has no thumbnail")
	case errors.Is(err, usecase.ErrUnknownProvider):
		Error(w, http.StatusUnprocessableEntity, "unknown_provider", "No provider recognizes the stored video URL")
	case errors.Is(err, repository.ErrPutRetriesExhausted):
		Error(w, http.StatusServiceUnavailable, "cache_write_failed", "The cache write did not complete")
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

func toEmbedResponse(rec *model.EmbedRecord) EmbedResponse {
	return EmbedResponse{
		VideoID:      rec.VideoID,
		VideoURL:     rec.VideoURL,
		Valid:        rec.Valid,
		HTTPStatus:   rec.HTTPStatus,
		Title:        rec.Title,
		AuthorName:   rec.AuthorName,
		ProviderName: rec.ProviderName,
		Width:        rec.Width,
		Height:       rec.Height,
		ThumbnailURL: rec.ThumbnailURL,
		PageID:       rec.Owner.PageID,
		Field:        rec.Owner.Field,
		CreatedAt:    rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
