package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/minutelab/minuted/internal/search"
)

// SearchHandler serves full-text search over attached conversations.
type SearchHandler struct {
	Index *search.Index
}

func (h *SearchHandler) Register(g *echo.Group, secret []byte) {
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	g.GET("", h.query)
}

func (h *SearchHandler) query(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	hits, err := h.Index.Query(q, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := SearchResponse{Hits: make([]SearchHit, 0, len(hits))}
	for _, hit := range hits {
		out.Hits = append(out.Hits, SearchHit{
			BlockID:  hit.BlockID,
			MinuteID: hit.MinuteID,
			Title:    hit.Title,
			Score:    hit.Score,
		})
	}
	return c.JSON(http.StatusOK, out)
}
