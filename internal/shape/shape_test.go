package shape

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRect(t *testing.T, ctx *Context, minX, maxX, minY, maxY float64) Rectangle {
	t.Helper()
	r, err := ctx.MakeRectangle(minX, maxX, minY, maxY)
	require.NoError(t, err)
	return r
}

func mustPoint(t *testing.T, ctx *Context, x, y float64) Point {
	t.Helper()
	p, err := ctx.MakePoint(x, y)
	require.NoError(t, err)
	return p
}

func mustCircle(t *testing.T, ctx *Context, x, y, r float64) Circle {
	t.Helper()
	c, err := ctx.MakeCircleXY(x, y, r)
	require.NoError(t, err)
	return c
}

func TestRectangleRelate(t *testing.T) {
	ctx := NewGeoContext()
	tests := []struct {
		name string
		a, b [4]float64
		want Relation
	}{
		{"contains", [4]float64{-10, 10, -10, 10}, [4]float64{-5, 5, -5, 5}, Contains},
		{"within", [4]float64{-5, 5, -5, 5}, [4]float64{-10, 10, -10, 10}, Within},
		{"disjoint", [4]float64{0, 10, 0, 10}, [4]float64{20, 30, 0, 10}, Disjoint},
		{"touching edges intersect", [4]float64{0, 10, 0, 10}, [4]float64{10, 20, 0, 10}, Intersects},
		{"cross shape", [4]float64{0, 10, 0, 10}, [4]float64{2, 8, -5, 15}, Intersects},
		{"same height defers to x", [4]float64{0, 10, 0, 10}, [4]float64{2, 8, 0, 10}, Contains},
		{"same width defers to y", [4]float64{0, 10, 0, 10}, [4]float64{0, 10, -5, 15}, Within},
		{"equal", [4]float64{0, 10, 0, 10}, [4]float64{0, 10, 0, 10}, Contains},
		{"dateline contains wrapping", [4]float64{170, -170, -10, 10}, [4]float64{175, -175, -5, 5}, Contains},
		{"dateline contains east side", [4]float64{170, -170, -10, 10}, [4]float64{-175, -172, -5, 5}, Contains},
		{"dateline contains west side", [4]float64{170, -170, -10, 10}, [4]float64{172, 178, -5, 5}, Contains},
		{"dateline disjoint", [4]float64{170, -170, -10, 10}, [4]float64{-160, -150, -5, 5}, Disjoint},
		{"dateline intersects", [4]float64{170, -170, -10, 10}, [4]float64{160, 175, -5, 5}, Intersects},
		{"meridian 180 touches -180", [4]float64{170, 180, 0, 10}, [4]float64{-180, -170, 0, 10}, Intersects},
		{"world contains dateline rect", [4]float64{-180, 180, -90, 90}, [4]float64{170, -170, -10, 10}, Contains},
		{"dateline rect within world", [4]float64{170, -170, -10, 10}, [4]float64{-180, 180, -90, 90}, Within},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustRect(t, ctx, tt.a[0], tt.a[1], tt.a[2], tt.a[3])
			b := mustRect(t, ctx, tt.b[0], tt.b[1], tt.b[2], tt.b[3])
			assert.Equal(t, tt.want, a.Relate(b, ctx))
		})
	}
}

func TestRectangleContainsPoint(t *testing.T) {
	ctx := NewGeoContext()
	r := mustRect(t, ctx, 170, -170, -10, 10)

	tests := []struct {
		x, y float64
		want Relation
	}{
		{180, 0, Contains},
		{-180, 0, Contains},
		{175, 5, Contains},
		{-175, -5, Contains},
		{170, 10, Contains},
		{0, 0, Disjoint},
		{169, 0, Disjoint},
		{-169, 0, Disjoint},
		{175, 11, Disjoint},
	}
	for _, tt := range tests {
		p := mustPoint(t, ctx, tt.x, tt.y)
		assert.Equal(t, tt.want, r.Relate(p, ctx), "point %v", p)
		assert.Equal(t, tt.want.Transpose(), p.Relate(r, ctx), "point %v", p)
	}

	// -180 and 180 are the same meridian
	east := mustRect(t, ctx, 170, 180, 0, 10)
	assert.Equal(t, Contains, east.Relate(mustPoint(t, ctx, -180, 5), ctx))
	assert.True(t, r.ContainsXY(-179, 0))
	assert.False(t, r.ContainsXY(0, 0))
}

func TestPointRelate(t *testing.T) {
	ctx := NewGeoContext()
	a := mustPoint(t, ctx, 1, 2)
	assert.Equal(t, Contains, a.Relate(mustPoint(t, ctx, 1, 2), ctx))
	assert.Equal(t, Disjoint, a.Relate(mustPoint(t, ctx, 2, 1), ctx))
	assert.False(t, a.HasArea())
	assert.Equal(t, a, a.Center())
}

func TestCircleRelate(t *testing.T) {
	ctx := NewGeoContext()
	c := mustCircle(t, ctx, 0, 0, 10)

	t.Run("points", func(t *testing.T) {
		assert.Equal(t, Contains, c.Relate(mustPoint(t, ctx, 5, 0), ctx))
		assert.Equal(t, Disjoint, c.Relate(mustPoint(t, ctx, 11, 0), ctx))
		assert.Equal(t, Within, mustPoint(t, ctx, 0, 9.9).Relate(c, ctx))
	})

	t.Run("rectangles", func(t *testing.T) {
		tests := []struct {
			name string
			rect [4]float64
			want Relation
		}{
			{"circle contains", [4]float64{-1, 1, -1, 1}, Contains},
			{"circle within", [4]float64{-20, 20, -20, 20}, Within},
			{"far away", [4]float64{20, 30, 20, 30}, Disjoint},
			{"overlapping edge", [4]float64{5, 15, -1, 1}, Intersects},
			{"inside bbox but past the arc", [4]float64{8, 9, 8, 9}, Disjoint},
			{"corner reaches inside", [4]float64{7, 9, 7, 9}, Intersects},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r := mustRect(t, ctx, tt.rect[0], tt.rect[1], tt.rect[2], tt.rect[3])
				assert.Equal(t, tt.want, c.Relate(r, ctx))
				assert.Equal(t, tt.want.Transpose(), r.Relate(c, ctx))
			})
		}
	})

	t.Run("circles", func(t *testing.T) {
		assert.Equal(t, Contains, c.Relate(mustCircle(t, ctx, 2, 0, 5), ctx))
		assert.Equal(t, Within, mustCircle(t, ctx, 0, 0, 5).Relate(c, ctx))
		assert.Equal(t, Disjoint, c.Relate(mustCircle(t, ctx, 30, 0, 5), ctx))
		assert.Equal(t, Intersects, c.Relate(mustCircle(t, ctx, 12, 0, 5), ctx))
		assert.Equal(t, Contains, c.Relate(mustCircle(t, ctx, 0, 0, 10), ctx))
	})

	t.Run("across the dateline", func(t *testing.T) {
		dc := mustCircle(t, ctx, 180, 0, 10)
		assert.True(t, dc.BoundingBox().CrossesDateline())
		assert.Equal(t, Contains, dc.Relate(mustRect(t, ctx, 175, -175, -2, 2), ctx))
		assert.Equal(t, Contains, dc.Relate(mustPoint(t, ctx, -175, 0), ctx))
		assert.Equal(t, Disjoint, dc.Relate(mustRect(t, ctx, 0, 10, -2, 2), ctx))
	})

	t.Run("around a pole", func(t *testing.T) {
		pc := mustCircle(t, ctx, 0, 85, 10)
		bbox := pc.BoundingBox()
		assert.Equal(t, 360.0, bbox.Width())
		assert.Equal(t, 90.0, bbox.MaxY())
		assert.Equal(t, Contains, pc.Relate(mustPoint(t, ctx, 180, 86), ctx))
		assert.Equal(t, Intersects, pc.Relate(mustRect(t, ctx, 170, -170, 80, 90), ctx))
	})
}

func TestCollection(t *testing.T) {
	ctx := NewGeoContext()

	t.Run("bounding box crosses the dateline", func(t *testing.T) {
		col, err := ctx.MakeCollection(mustPoint(t, ctx, 175, 0), mustPoint(t, ctx, -175, 5))
		require.NoError(t, err)
		bbox := col.BoundingBox()
		assert.Equal(t, 175.0, bbox.MinX())
		assert.Equal(t, -175.0, bbox.MaxX())
		assert.Equal(t, 10.0, bbox.Width())
		assert.Equal(t, 5.0, bbox.MaxY())
	})

	t.Run("bounding box of wrapped members", func(t *testing.T) {
		col, err := ctx.MakeCollection(
			mustRect(t, ctx, -180, -170, 0, 1),
			mustRect(t, ctx, -100, -90, 0, 1),
			mustRect(t, ctx, 170, -160, 0, 1),
		)
		require.NoError(t, err)
		bbox := col.BoundingBox()
		assert.Equal(t, 170.0, bbox.MinX())
		assert.Equal(t, -90.0, bbox.MaxX())
	})

	t.Run("planar bounding box", func(t *testing.T) {
		planar, err := NewContext(ContextOptions{})
		require.NoError(t, err)
		col, err := planar.MakeCollection(mustRect(t, planar, 0, 1, 0, 1), mustCircle(t, planar, 10, 10, 2))
		require.NoError(t, err)
		assert.Equal(t, newRect(0, 12, 0, 12), col.BoundingBox())
	})

	t.Run("a containing member decides", func(t *testing.T) {
		outer := mustRect(t, ctx, 0, 10, 0, 10)
		other := mustRect(t, ctx, 1, 4, 1, 4)
		for _, member := range []Shape{mustRect(t, ctx, 2, 3, 2, 3), mustRect(t, ctx, 3, 6, 3, 6), mustPoint(t, ctx, 2, 2)} {
			col, err := ctx.MakeCollection(member, outer)
			require.NoError(t, err)
			assert.Equal(t, Contains, col.Relate(other, ctx), "member %v", member)
			assert.Equal(t, Within, other.Relate(col, ctx), "member %v", member)
		}
	})

	col, err := ctx.MakeCollection(mustRect(t, ctx, 0, 10, 0, 10), mustRect(t, ctx, 20, 30, 0, 10))
	require.NoError(t, err)

	tests := []struct {
		name  string
		other Shape
		want  Relation
	}{
		{"point in a member", mustPoint(t, ctx, 5, 5), Contains},
		{"point in the gap", mustPoint(t, ctx, 15, 5), Disjoint},
		{"outside the bbox", mustRect(t, ctx, 40, 50, 0, 10), Disjoint},
		{"covering rectangle", mustRect(t, ctx, 0, 30, 0, 10), Within},
		{"larger rectangle", mustRect(t, ctx, -1, 31, -1, 11), Within},
		{"partial overlap", mustRect(t, ctx, 5, 25, 2, 8), Intersects},
		{"inside one member", mustRect(t, ctx, 1, 2, 1, 2), Contains},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, col.Relate(tt.other, ctx))
			assert.Equal(t, tt.want.Transpose(), tt.other.Relate(col, ctx))
		})
	}
	assert.True(t, col.HasArea())
	assert.Equal(t, 2, col.Len())
}

func randomShape(rng *rand.Rand, ctx *Context) Shape {
	x := rng.Float64()*360 - 180
	y := rng.Float64()*160 - 80
	switch rng.Intn(3) {
	case 0:
		p, _ := ctx.MakePoint(x, y)
		return p
	case 1:
		maxX := x + rng.Float64()*60
		if maxX > 180 {
			maxX -= 360
		}
		r, _ := ctx.MakeRectangle(x, maxX, y, y+rng.Float64()*(90-y))
		return r
	default:
		c, _ := ctx.MakeCircleXY(x, y, rng.Float64()*30)
		return c
	}
}

func TestRelateSymmetry(t *testing.T) {
	ctx := NewGeoContext()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 5000; i++ {
		a := randomShape(rng, ctx)
		b := randomShape(rng, ctx)
		if a == b {
			continue
		}
		ab := a.Relate(b, ctx)
		ba := b.Relate(a, ctx)
		if ab != ba.Transpose() {
			t.Fatalf("%v.Relate(%v) = %v but reverse = %v", a, b, ab, ba)
		}
	}
}

func TestPointerShapesRelate(t *testing.T) {
	ctx := NewGeoContext()
	r := mustRect(t, ctx, 0, 10, 0, 10)
	p := mustPoint(t, ctx, 5, 5)
	assert.Equal(t, Contains, r.Relate(&p, ctx))
	assert.Equal(t, Within, p.Relate(&r, ctx))
}
