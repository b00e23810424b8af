package shapeio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb/encoding/wkt"

	"spatialprefix/internal/shape"
)

// FromWKT parses standard WKT plus the ENVELOPE and BUFFER extensions.
func FromWKT(ctx *shape.Context, s string) (shape.Shape, error) {
	s = strings.TrimSpace(s)
	name, args, ok := splitCall(s)
	if ok {
		switch name {
		case "ENVELOPE":
			return parseEnvelope(ctx, args)
		case "BUFFER":
			return parseBuffer(ctx, args)
		}
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, errors.Wrapf(shape.ErrInvalidShape, "wkt %q: %v", s, err)
	}
	return FromGeometry(ctx, g)
}

// ToWKT writes s as WKT. Rectangles use ENVELOPE so a rectangle crossing the
// dateline survives the round trip; circles use BUFFER. Collections are
// written as standard GEOMETRYCOLLECTION text, so they cannot hold circles.
func ToWKT(s shape.Shape) (string, error) {
	switch v := s.(type) {
	case shape.Rectangle:
		return fmt.Sprintf("ENVELOPE(%s, %s, %s, %s)", num(v.MinX()), num(v.MaxX()), num(v.MaxY()), num(v.MinY())), nil
	case *shape.Rectangle:
		return ToWKT(*v)
	}
	if c, ok := asCircle(s); ok {
		return fmt.Sprintf("BUFFER(POINT(%s %s), %s)", num(c.Center().X()), num(c.Center().Y()), num(c.Radius())), nil
	}
	g, err := ToGeometry(s)
	if err != nil {
		return "", err
	}
	return wkt.MarshalString(g), nil
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// splitCall splits "NAME(args)" into its upper-cased name and the text
// between the outer parentheses.
func splitCall(s string) (name, args string, ok bool) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	return strings.ToUpper(strings.TrimSpace(s[:open])), s[open+1 : len(s)-1], true
}

func parseEnvelope(ctx *shape.Context, args string) (shape.Shape, error) {
	vals, err := parseFloats(args, 4)
	if err != nil {
		return nil, errors.Wrapf(err, "ENVELOPE(%s)", args)
	}
	return ctx.MakeRectangle(vals[0], vals[1], vals[3], vals[2])
}

func parseBuffer(ctx *shape.Context, args string) (shape.Shape, error) {
	cut := strings.LastIndexByte(args, ',')
	if cut < 0 {
		return nil, errors.Wrapf(shape.ErrInvalidShape, "BUFFER(%s) needs a distance", args)
	}
	inner, err := FromWKT(ctx, args[:cut])
	if err != nil {
		return nil, err
	}
	p, ok := inner.(shape.Point)
	if !ok {
		return nil, errors.Wrapf(shape.ErrUnsupportedOperation, "BUFFER of %v", inner)
	}
	d, err := parseFloats(args[cut+1:], 1)
	if err != nil {
		return nil, errors.Wrapf(err, "BUFFER(%s)", args)
	}
	return ctx.MakeCircle(p, d[0])
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Split(s, ",")
	if len(fields) != n {
		return nil, errors.Wrapf(shape.ErrInvalidShape, "want %d numbers, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, errors.Wrap(shape.ErrInvalidShape, err.Error())
		}
		out[i] = v
	}
	return out, nil
}
