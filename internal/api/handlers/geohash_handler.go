package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"spatialprefix/internal/geo"
)

type GeohashHandler struct{}

func NewGeohashHandler() *GeohashHandler {
	return &GeohashHandler{}
}

type EncodeQuery struct {
	Lat       *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lon       *float64 `form:"lon" binding:"required,min=-180,max=180"`
	Precision int      `form:"precision" binding:"min=0,max=24"`
}

type BoxResponse struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

func newBoxResponse(b geo.Box) BoxResponse {
	return BoxResponse{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLon: b.MinLon, MaxLon: b.MaxLon}
}

// Encode handles GET /geohash/encode?lat=..&lon=..&precision=..
func (h *GeohashHandler) Encode(c *gin.Context) {
	var q EncodeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	hash := geo.Encode(*q.Lat, *q.Lon, q.Precision)
	box, err := geo.DecodeBoundary(hash)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"geohash": hash,
		"box":     newBoxResponse(box),
	})
}

// Decode handles GET /geohash/decode/:hash
func (h *GeohashHandler) Decode(c *gin.Context) {
	hash := strings.ToLower(c.Param("hash"))
	box, err := geo.DecodeBoundary(hash)
	if err != nil {
		writeError(c, err)
		return
	}
	lat, lon := box.Center()
	resp := gin.H{
		"geohash":   hash,
		"lat":       lat,
		"lon":       lon,
		"box":       newBoxResponse(box),
		"neighbors": geo.AllNeighbors(hash)[1:],
	}
	if len(hash) < geo.MaxPrecision {
		resp["children"] = geo.SubHashes(hash)
	}
	c.JSON(http.StatusOK, resp)
}
