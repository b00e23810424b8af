// Package shapeio converts shapes to and from GeoJSON and WKT using
// paulmach/orb.
//
// Only points are kept exactly. Line strings and polygons become their
// bounding rectangles, multi-geometries become collections, and a GeoJSON
// Point feature with a "radius" property (in degrees) becomes a circle. A
// collection holding circles is written as a FeatureCollection with one
// feature per member, since a geometry collection cannot carry a radius. WKT
// additionally understands ENVELOPE(minX, maxX, maxY, minY) and
// BUFFER(POINT(x y), d) for rectangles and circles.
package shapeio

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"spatialprefix/internal/shape"
)

// RadiusProperty is the GeoJSON feature property holding a circle radius.
const RadiusProperty = "radius"

// FromGeometry builds a shape from an orb geometry.
func FromGeometry(ctx *shape.Context, g orb.Geometry) (shape.Shape, error) {
	switch g := g.(type) {
	case nil:
		return nil, errors.Wrap(shape.ErrInvalidShape, "empty geometry")
	case orb.Point:
		return ctx.MakePoint(g[0], g[1])
	case orb.MultiPoint:
		members := make([]shape.Shape, 0, len(g))
		for _, p := range g {
			s, err := ctx.MakePoint(p[0], p[1])
			if err != nil {
				return nil, err
			}
			members = append(members, s)
		}
		return collection(ctx, members)
	case orb.Bound:
		return boundToRect(ctx, g)
	case orb.LineString, orb.Ring, orb.Polygon, orb.MultiLineString:
		return boundToRect(ctx, g.Bound())
	case orb.MultiPolygon:
		if r, ok := splitRectangle(ctx, g); ok {
			return r, nil
		}
		members := make([]shape.Shape, 0, len(g))
		for _, p := range g {
			r, err := boundToRect(ctx, p.Bound())
			if err != nil {
				return nil, err
			}
			members = append(members, r)
		}
		return collection(ctx, members)
	case orb.Collection:
		members := make([]shape.Shape, 0, len(g))
		for _, m := range g {
			s, err := FromGeometry(ctx, m)
			if err != nil {
				return nil, err
			}
			members = append(members, s)
		}
		return collection(ctx, members)
	}
	return nil, errors.Wrapf(shape.ErrUnsupportedOperation, "geometry type %s", g.GeoJSONType())
}

// ToGeometry converts s to an orb geometry. A rectangle crossing the
// dateline becomes a multi-polygon split at 180. Circles have no geometry
// form and return ErrUnsupportedOperation.
func ToGeometry(s shape.Shape) (orb.Geometry, error) {
	switch s := s.(type) {
	case shape.Point:
		return orb.Point{s.X(), s.Y()}, nil
	case *shape.Point:
		return ToGeometry(*s)
	case shape.Rectangle:
		return rectToGeometry(s), nil
	case *shape.Rectangle:
		return ToGeometry(*s)
	case shape.Collection:
		out := make(orb.Collection, 0, s.Len())
		for _, m := range s.Shapes() {
			g, err := ToGeometry(m)
			if err != nil {
				return nil, err
			}
			out = append(out, g)
		}
		return out, nil
	case *shape.Collection:
		return ToGeometry(*s)
	}
	return nil, errors.Wrapf(shape.ErrUnsupportedOperation, "no geometry for %v", s)
}

// FromGeoJSON parses a GeoJSON geometry, feature or feature collection.
func FromGeoJSON(ctx *shape.Context, data []byte) (shape.Shape, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.Wrap(shape.ErrInvalidShape, err.Error())
	}
	switch head.Type {
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, errors.Wrap(shape.ErrInvalidShape, err.Error())
		}
		return fromFeature(ctx, f)
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, errors.Wrap(shape.ErrInvalidShape, err.Error())
		}
		if len(fc.Features) == 0 {
			return nil, errors.Wrap(shape.ErrInvalidShape, "empty feature collection")
		}
		members := make([]shape.Shape, 0, len(fc.Features))
		for _, f := range fc.Features {
			m, err := fromFeature(ctx, f)
			if err != nil {
				return nil, err
			}
			members = append(members, m)
		}
		return collection(ctx, members)
	}
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, errors.Wrap(shape.ErrInvalidShape, err.Error())
	}
	return FromGeometry(ctx, g.Geometry())
}

func fromFeature(ctx *shape.Context, f *geojson.Feature) (shape.Shape, error) {
	if p, ok := f.Geometry.(orb.Point); ok {
		if _, has := f.Properties[RadiusProperty]; has {
			r, ok := f.Properties[RadiusProperty].(float64)
			if !ok {
				return nil, errors.Wrapf(shape.ErrInvalidShape, "%s must be a number", RadiusProperty)
			}
			return ctx.MakeCircleXY(p[0], p[1], r)
		}
	}
	return FromGeometry(ctx, f.Geometry)
}

// ToGeoJSON encodes s. Circles are written as Point features carrying the
// radius property and collections holding circles as feature collections;
// everything else is a bare geometry.
func ToGeoJSON(s shape.Shape) ([]byte, error) {
	if c, ok := asCircle(s); ok {
		return circleFeature(c).MarshalJSON()
	}
	if c, ok := asCollection(s); ok && hasCircle(c) {
		fc := geojson.NewFeatureCollection()
		if err := appendFeatures(fc, c); err != nil {
			return nil, err
		}
		return fc.MarshalJSON()
	}
	g, err := ToGeometry(s)
	if err != nil {
		return nil, err
	}
	return geojson.NewGeometry(g).MarshalJSON()
}

func circleFeature(c shape.Circle) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{c.Center().X(), c.Center().Y()})
	f.Properties[RadiusProperty] = c.Radius()
	return f
}

// appendFeatures adds one feature per member of c. Nested collections are
// flattened.
func appendFeatures(fc *geojson.FeatureCollection, c shape.Collection) error {
	for _, m := range c.Shapes() {
		if circle, ok := asCircle(m); ok {
			fc.Append(circleFeature(circle))
			continue
		}
		if inner, ok := asCollection(m); ok {
			if err := appendFeatures(fc, inner); err != nil {
				return err
			}
			continue
		}
		g, err := ToGeometry(m)
		if err != nil {
			return err
		}
		fc.Append(geojson.NewFeature(g))
	}
	return nil
}

func hasCircle(c shape.Collection) bool {
	for _, m := range c.Shapes() {
		if _, ok := asCircle(m); ok {
			return true
		}
		if inner, ok := asCollection(m); ok && hasCircle(inner) {
			return true
		}
	}
	return false
}

func asCollection(s shape.Shape) (shape.Collection, bool) {
	switch c := s.(type) {
	case shape.Collection:
		return c, true
	case *shape.Collection:
		return *c, true
	}
	return shape.Collection{}, false
}

func asCircle(s shape.Shape) (shape.Circle, bool) {
	switch c := s.(type) {
	case shape.Circle:
		return c, true
	case *shape.Circle:
		return *c, true
	}
	return shape.Circle{}, false
}

func collection(ctx *shape.Context, members []shape.Shape) (shape.Shape, error) {
	if len(members) == 1 {
		return members[0], nil
	}
	return ctx.MakeCollection(members...)
}

func boundToRect(ctx *shape.Context, b orb.Bound) (shape.Shape, error) {
	if b.Min == b.Max {
		return ctx.MakePoint(b.Min[0], b.Min[1])
	}
	return ctx.MakeRectangle(b.Min[0], b.Max[0], b.Min[1], b.Max[1])
}

// splitRectangle recognises the two halves ToGeometry writes for a
// rectangle crossing the dateline.
func splitRectangle(ctx *shape.Context, mp orb.MultiPolygon) (shape.Shape, bool) {
	if !ctx.IsGeo() || len(mp) != 2 {
		return nil, false
	}
	west, east := mp[0].Bound(), mp[1].Bound()
	if west.Max[0] != 180 || east.Min[0] != -180 ||
		west.Min[1] != east.Min[1] || west.Max[1] != east.Max[1] {
		return nil, false
	}
	r, err := ctx.MakeRectangle(west.Min[0], east.Max[0], west.Min[1], west.Max[1])
	if err != nil {
		return nil, false
	}
	return r, true
}

func rectToGeometry(r shape.Rectangle) orb.Geometry {
	if !r.CrossesDateline() {
		return orb.Bound{Min: orb.Point{r.MinX(), r.MinY()}, Max: orb.Point{r.MaxX(), r.MaxY()}}.ToPolygon()
	}
	west := orb.Bound{Min: orb.Point{r.MinX(), r.MinY()}, Max: orb.Point{180, r.MaxY()}}
	east := orb.Bound{Min: orb.Point{-180, r.MinY()}, Max: orb.Point{r.MaxX(), r.MaxY()}}
	return orb.MultiPolygon{west.ToPolygon(), east.ToPolygon()}
}
