package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/minutelab/minuted/internal/conversation"
	"github.com/minutelab/minuted/internal/ingest"
	"github.com/minutelab/minuted/internal/linkmeta"
	"github.com/minutelab/minuted/internal/search"
	"github.com/minutelab/minuted/internal/store"
)

// Ingestor is the slice of the ingestion service the handlers need.
type Ingestor interface {
	BuildPreview(ctx context.Context, req ingest.PreviewRequest) (ingest.Preview, error)
}

// MinutesHandler serves minutes, their blocks, and the conversation
// ingestion endpoints.
type MinutesHandler struct {
	Store   *store.Store
	Ingest  Ingestor
	Links   *linkmeta.Fetcher
	Titles  *conversation.TitleGenerator
	Search  *search.Index
	Timeout time.Duration
}

func (h *MinutesHandler) Register(g *echo.Group, secret []byte) {
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	g.POST("", h.createMinute)
	g.GET("", h.listMinutes)
	g.GET("/:id", h.getMinute)
	g.PUT("/:id", h.renameMinute)
	g.DELETE("/:id", h.deleteMinute)
	g.GET("/:id/blocks", h.listBlocks)
	g.POST("/:id/blocks/link/preview", h.previewLink)
	g.POST("/:id/blocks/link", h.attachLink)
	g.POST("/:id/blocks/conversation", h.attachConversation)
	g.PUT("/:id/blocks/:blockID", h.updateBlock)
	g.DELETE("/:id/blocks/:blockID", h.deleteBlock)
}

// RegisterFlows mounts the flow endpoints, which operate on segments the
// client holds and are not scoped to a minute.
func (h *MinutesHandler) RegisterFlows(g *echo.Group, secret []byte) {
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	g.POST("/titles", h.flowTitles)
}

func userID(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}

func (h *MinutesHandler) requestTimeout() time.Duration {
	if h.Timeout > 0 {
		return h.Timeout
	}
	return 2 * time.Minute
}

func (h *MinutesHandler) createMinute(c echo.Context) error {
	var req CreateMinuteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.Store.CreateMinute(c.Request().Context(), userID(c), strings.TrimSpace(req.Title))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, minuteResponse(rec))
}

func (h *MinutesHandler) listMinutes(c echo.Context) error {
	recs, err := h.Store.ListMinutes(c.Request().Context(), userID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]MinuteResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, minuteResponse(rec))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MinutesHandler) getMinute(c echo.Context) error {
	rec, ok, err := h.Store.GetMinute(c.Request().Context(), c.Param("id"), userID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "minute not found")
	}
	return c.JSON(http.StatusOK, minuteResponse(rec))
}

func (h *MinutesHandler) renameMinute(c echo.Context) error {
	var req CreateMinuteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.Store.UpdateMinuteTitle(c.Request().Context(), c.Param("id"), userID(c), strings.TrimSpace(req.Title)); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "minute not found")
	}
	return c.NoContent(http.StatusOK)
}

func (h *MinutesHandler) deleteMinute(c echo.Context) error {
	if err := h.Store.DeleteMinute(c.Request().Context(), c.Param("id"), userID(c)); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "minute not found")
	}
	return c.NoContent(http.StatusOK)
}

func (h *MinutesHandler) listBlocks(c echo.Context) error {
	if err := h.requireMinute(c); err != nil {
		return err
	}
	recs, err := h.Store.ListBlocks(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]BlockResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, blockResponse(rec))
	}
	return c.JSON(http.StatusOK, out)
}

// previewLink runs the ingestion pipeline without persisting anything.
// ChatGPT share links go through the render cascade; a pasted transcript
// bypasses it. The response is a draft the user reviews before saving.
func (h *MinutesHandler) previewLink(c echo.Context) error {
	if err := h.requireMinute(c); err != nil {
		return err
	}
	var req LinkPreviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.requestTimeout())
	defer cancel()

	// Plain website links get a metadata card, not the full pipeline.
	if strings.TrimSpace(req.URL) != "" && strings.TrimSpace(req.ManualTranscript) == "" && !ingest.IsShareURL(req.URL) {
		meta, err := h.Links.Fetch(ctx, req.URL)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]any{"kind": store.BlockKindLink, "meta": meta})
	}

	preview, err := h.Ingest.BuildPreview(ctx, ingest.PreviewRequest{
		URL:              req.URL,
		ManualTranscript: req.ManualTranscript,
	})
	if err != nil {
		var manual *ingest.ManualInputError
		if errors.As(err, &manual) {
			return c.JSON(http.StatusUnprocessableEntity, ManualInputResponse{
				NeedsManualInput: true,
				Reasons:          manual.Reasons,
				Instructions:     manual.Instructions,
			})
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, ConversationPreviewResponse{
		Kind:     store.BlockKindConversation,
		Title:    preview.Title,
		Messages: preview.Messages,
		Pairs:    preview.Pairs,
		Segments: preview.Segments,
	})
}

func (h *MinutesHandler) attachLink(c echo.Context) error {
	if err := h.requireMinute(c); err != nil {
		return err
	}
	var req AttachLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.requestTimeout())
	defer cancel()

	meta, err := h.Links.Fetch(ctx, req.URL)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	content, err := json.Marshal(meta)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	rec, err := h.Store.CreateBlock(ctx, c.Param("id"), store.BlockKindLink, content)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, blockResponse(rec))
}

// attachConversation persists a reviewed conversation draft. The client
// sends back the (possibly edited) pairs and segments from preview.
func (h *MinutesHandler) attachConversation(c echo.Context) error {
	if err := h.requireMinute(c); err != nil {
		return err
	}
	var req AttachConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Pairs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation has no pairs")
	}
	for _, seg := range req.Segments {
		if conversation.NormalizeCategory(string(seg.Category)) != seg.Category {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown flow category")
		}
	}

	content, err := json.Marshal(map[string]any{
		"title":    req.Title,
		"pairs":    req.Pairs,
		"segments": req.Segments,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	rec, err := h.Store.CreateBlock(c.Request().Context(), c.Param("id"), store.BlockKindConversation, content)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if h.Search != nil {
		_ = h.Search.IndexBlock(rec)
	}
	return c.JSON(http.StatusCreated, blockResponse(rec))
}

func (h *MinutesHandler) updateBlock(c echo.Context) error {
	if err := h.requireMinute(c); err != nil {
		return err
	}
	var req UpdateBlockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	blockID := c.Param("blockID")
	if err := h.Store.UpdateBlockContent(c.Request().Context(), blockID, req.Content); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "block not found")
	}
	if h.Search != nil {
		if rec, ok, err := h.Store.GetBlock(c.Request().Context(), blockID); err == nil && ok {
			_ = h.Search.IndexBlock(rec)
		}
	}
	return c.NoContent(http.StatusOK)
}

func (h *MinutesHandler) deleteBlock(c echo.Context) error {
	if err := h.requireMinute(c); err != nil {
		return err
	}
	blockID := c.Param("blockID")
	if err := h.Store.DeleteBlock(c.Request().Context(), blockID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "block not found")
	}
	if h.Search != nil {
		_ = h.Search.DeleteBlock(blockID)
	}
	return c.NoContent(http.StatusOK)
}

// flowTitles generates titles for segments whose title the client left
// empty, e.g. after a reviewer split a segment.
func (h *MinutesHandler) flowTitles(c echo.Context) error {
	var req FlowTitlesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.requestTimeout())
	defer cancel()

	if h.Titles != nil {
		for i := range req.Segments {
			if req.Segments[i].Title != "" || len(req.Segments[i].TurnPairs) == 0 {
				continue
			}
			req.Segments[i].Title = h.Titles.TitleFor(ctx, req.Segments[i].TurnPairs[0].UserText)
		}
	}
	return c.JSON(http.StatusOK, FlowTitlesResponse{Segments: req.Segments})
}

// requireMinute confirms the minute exists and belongs to the caller.
func (h *MinutesHandler) requireMinute(c echo.Context) error {
	_, ok, err := h.Store.GetMinute(c.Request().Context(), c.Param("id"), userID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "minute not found")
	}
	return nil
}

func minuteResponse(rec store.MinuteRecord) MinuteResponse {
	return MinuteResponse{
		ID:        rec.ID,
		Title:     rec.Title,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}
}

func blockResponse(rec store.BlockRecord) BlockResponse {
	return BlockResponse{
		ID:       rec.ID,
		MinuteID: rec.MinuteID,
		Kind:     rec.Kind,
		Position: rec.Position,
		Content:  rec.Content,
	}
}
