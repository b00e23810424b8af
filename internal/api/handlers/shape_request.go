package handlers

import (
	"encoding/json"

	"github.com/cockroachdb/errors"

	"spatialprefix/internal/shape"
	"spatialprefix/internal/shapeio"
)

// ShapeRequest carries a shape as GeoJSON or as WKT. Exactly one must be
// set.
type ShapeRequest struct {
	GeoJSON json.RawMessage `json:"geojson,omitempty"`
	WKT     string          `json:"wkt,omitempty"`
}

// Shape parses the request in ctx.
func (r ShapeRequest) Shape(ctx *shape.Context) (shape.Shape, error) {
	hasJSON := len(r.GeoJSON) > 0 && string(r.GeoJSON) != "null"
	switch {
	case hasJSON && r.WKT != "":
		return nil, errors.Wrap(shape.ErrInvalidShape, "give either geojson or wkt, not both")
	case hasJSON:
		return shapeio.FromGeoJSON(ctx, r.GeoJSON)
	case r.WKT != "":
		return shapeio.FromWKT(ctx, r.WKT)
	}
	return nil, errors.Wrap(shape.ErrInvalidShape, "missing geojson or wkt")
}
