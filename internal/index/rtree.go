package index

import (
	"github.com/dhconnelly/rtreego"

	"spatialprefix/internal/shape"
)

// rtreePad widens every rectangle handed to the R-tree. rtreego treats
// touching rectangles as disjoint and rejects zero lengths, while shapes
// that only share an edge still intersect.
const rtreePad = 1e-9

// rtreeEntry is one rectangle of a document in the R-tree. A bounding box
// crossing the dateline is stored as two entries.
type rtreeEntry struct {
	id   string
	rect rtreego.Rect
}

func (e *rtreeEntry) Bounds() rtreego.Rect { return e.rect }

// rtreeRects splits r at the dateline and converts the parts to padded
// R-tree rectangles.
func rtreeRects(r shape.Rectangle, ctx *shape.Context) []rtreego.Rect {
	if !r.CrossesDateline() {
		return []rtreego.Rect{padRect(r.MinX(), r.MaxX(), r.MinY(), r.MaxY())}
	}
	world := ctx.WorldBounds()
	return []rtreego.Rect{
		padRect(r.MinX(), world.MaxX(), r.MinY(), r.MaxY()),
		padRect(world.MinX(), r.MaxX(), r.MinY(), r.MaxY()),
	}
}

func padRect(minX, maxX, minY, maxY float64) rtreego.Rect {
	p := rtreego.Point{minX - rtreePad, minY - rtreePad}
	// lengths are positive after padding, so NewRect cannot fail
	rect, _ := rtreego.NewRect(p, []float64{maxX - minX + 2*rtreePad, maxY - minY + 2*rtreePad})
	return rect
}

func newRtree() *rtreego.Rtree { return rtreego.NewTree(2, 25, 50) }

func (s *Service) rtreeInsert(doc *Document) {
	for _, rect := range rtreeRects(doc.Shape.BoundingBox(), s.ctx) {
		e := &rtreeEntry{id: doc.ID, rect: rect}
		doc.entries = append(doc.entries, e)
		s.rtree.Insert(e)
	}
}

func (s *Service) rtreeDelete(doc *Document) {
	for _, e := range doc.entries {
		s.rtree.Delete(e)
	}
	doc.entries = nil
}

// rtreeCandidates returns the ids whose bounding boxes touch the query's.
func (s *Service) rtreeCandidates(query shape.Shape) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, rect := range rtreeRects(query.BoundingBox(), s.ctx) {
		for _, sp := range s.rtree.SearchIntersect(rect) {
			e := sp.(*rtreeEntry)
			if _, ok := seen[e.id]; ok {
				continue
			}
			seen[e.id] = struct{}{}
			ids = append(ids, e.id)
		}
	}
	return ids
}
