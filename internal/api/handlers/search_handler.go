package handlers

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"spatialprefix/internal/grid"
	"spatialprefix/internal/index"
	"spatialprefix/internal/shape"
)

type SearchHandler struct {
	index *index.Service
}

func NewSearchHandler(svc *index.Service) *SearchHandler {
	return &SearchHandler{index: svc}
}

type SearchRequest struct {
	ShapeRequest
	Op       string `json:"op"`
	Strategy string `json:"strategy"`
	Limit    int    `json:"limit" binding:"min=0"`
}

// Search handles POST /search
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	op, err := index.ParseOperation(req.Op)
	if err != nil {
		badRequest(c, err)
		return
	}
	strategy, err := index.ParseStrategy(req.Strategy)
	if err != nil {
		badRequest(c, err)
		return
	}
	sh, err := req.Shape(h.index.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.index.Search(c.Request.Context(), index.SearchRequest{
		Shape:    sh,
		Op:       op,
		Strategy: strategy,
		Limit:    req.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type NearbyQuery struct {
	Lat *float64 `form:"lat" binding:"required"`
	Lon *float64 `form:"lon" binding:"required"`
	// RadiusKm needs a geo context. Radius is in context units.
	RadiusKm float64 `form:"radius_km" binding:"min=0"`
	Radius   float64 `form:"radius" binding:"min=0"`
	Limit    int     `form:"limit" binding:"min=0"`
}

// Nearby handles GET /nearby?lat=..&lon=..&radius_km=..
func (h *SearchHandler) Nearby(c *gin.Context) {
	var q NearbyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	ctx := h.index.Context()

	radius := q.Radius
	if q.RadiusKm > 0 {
		deg, err := ctx.Calculator().DistanceToDegrees(q.RadiusKm)
		if err != nil {
			writeError(c, err)
			return
		}
		radius = deg
	}
	if radius <= 0 {
		writeError(c, errors.Wrap(shape.ErrInvalidShape, "radius_km or radius must be positive"))
		return
	}
	p, err := ctx.MakePoint(*q.Lon, *q.Lat)
	if err != nil {
		writeError(c, err)
		return
	}

	hits, err := h.index.Nearby(c.Request.Context(), p, radius, q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(hits),
		"radius":  radius,
		"results": hits,
	})
}

type LevelResponse struct {
	Level        int      `json:"level"`
	Covers       []string `json:"covers,omitempty"`
	Intersects   []string `json:"intersects,omitempty"`
	DepthLimited []string `json:"depth_limited,omitempty"`
}

type TokensResponse struct {
	Grid       string          `json:"grid"`
	BBoxLevel  int             `json:"bbox_level"`
	MaxLevel   int             `json:"max_level"`
	CoverCount int             `json:"cover_count"`
	Levels     []LevelResponse `json:"levels"`
	Tokens     []string        `json:"tokens"`
}

func newTokensResponse(g grid.Grid, info *grid.MatchInfo) TokensResponse {
	resp := TokensResponse{
		Grid:       g.Name(),
		BBoxLevel:  info.BBoxLevel,
		MaxLevel:   info.MaxLevel,
		CoverCount: info.CoverCount(),
		Levels:     make([]LevelResponse, 0, len(info.Levels)),
		Tokens:     info.Tokens,
	}
	for _, l := range info.Levels {
		resp.Levels = append(resp.Levels, LevelResponse{
			Level:        l.Level,
			Covers:       l.Covers,
			Intersects:   l.Intersects,
			DepthLimited: l.DepthLimited,
		})
	}
	return resp
}

// Tokens handles POST /tokens. It shows how a shape would be indexed
// without storing it.
func (h *SearchHandler) Tokens(c *gin.Context) {
	var req ShapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sh, err := req.Shape(h.index.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	g := h.index.Grid()
	c.JSON(http.StatusOK, newTokensResponse(g, g.Read(sh)))
}
