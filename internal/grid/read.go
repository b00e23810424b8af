package grid

import (
	"sort"

	"github.com/cockroachdb/errors"

	"spatialprefix/internal/shape"
)

// LevelMatchInfo holds the tokens Read produced at one level, each list in
// token order. A token appears in exactly one list.
type LevelMatchInfo struct {
	Level int
	// Covers are cells entirely inside the shape. Read does not descend
	// below them.
	Covers []string
	// Intersects are cells Read descended into.
	Intersects []string
	// DepthLimited are boundary cells at the maximum level.
	DepthLimited []string
}

// MatchInfo is the result of decomposing one shape.
type MatchInfo struct {
	BBoxLevel int
	MaxLevel  int
	// Levels[i] describes level i+1.
	Levels []LevelMatchInfo
	// Tokens is the list to index: every touched cell as a plain token, plus
	// a marked copy of each cover and depth-limited cell, sorted by level
	// and then lexically.
	Tokens []string
}

// CoverCount returns the number of cover cells over all levels.
func (m *MatchInfo) CoverCount() int {
	n := 0
	for _, l := range m.Levels {
		n += len(l.Covers)
	}
	return n
}

func readShape(g Grid, s shape.Shape) *MatchInfo {
	opts := g.Options()
	bboxLevel := g.BBoxLevel(s)
	maxLevel := clampLevel(max(opts.MinResolution, bboxLevel+opts.ExtraResolution), g.MaxLevels())

	info := &MatchInfo{
		BBoxLevel: bboxLevel,
		MaxLevel:  maxLevel,
		Levels:    make([]LevelMatchInfo, maxLevel),
	}
	for i := range info.Levels {
		info.Levels[i].Level = i + 1
	}

	ctx := g.Context()
	var visit func(parent Node)
	visit = func(parent Node) {
		for _, child := range g.SubNodes(parent) {
			lm := &info.Levels[child.level-1]
			switch s.Relate(child.rect, ctx) {
			case shape.Disjoint:
				continue
			case shape.Contains:
				if parent.rect.Relate(child.rect, ctx) != shape.Contains {
					panic(errors.AssertionFailedf("cell %s is not inside its parent %s", child, parent))
				}
				lm.Covers = append(lm.Covers, child.token)
			default:
				if child.level >= maxLevel {
					lm.DepthLimited = append(lm.DepthLimited, child.token)
					continue
				}
				lm.Intersects = append(lm.Intersects, child.token)
				visit(child)
			}
		}
	}
	visit(g.WorldNode())

	info.Tokens = flattenTokens(info.Levels)
	return info
}

func flattenTokens(levels []LevelMatchInfo) []string {
	var tokens []string
	for _, l := range levels {
		for _, t := range l.Covers {
			tokens = append(tokens, t, t+string(CoverMarker))
		}
		tokens = append(tokens, l.Intersects...)
		for _, t := range l.DepthLimited {
			tokens = append(tokens, t, t+string(DepthLimitedMarker))
		}
	}
	SortTokens(tokens)
	return tokens
}

// SortTokens orders tokens by level and then lexically, so a plain token
// comes right before its marked copies.
func SortTokens(tokens []string) {
	sort.Slice(tokens, func(i, j int) bool {
		a, b := StripMarker(tokens[i]), StripMarker(tokens[j])
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return tokens[i] < tokens[j]
	})
}

func bboxLevel(g Grid, s shape.Shape) int {
	bbox := s.BoundingBox()
	w, h := bbox.Width(), bbox.Height()
	for level := 1; level <= g.MaxLevels(); level++ {
		cw, ch := g.CellSize(level)
		if cw < w || ch < h {
			return level
		}
	}
	return g.MaxLevels()
}

func nodesAtLevel(g Grid, s shape.Shape, level int) []Node {
	level = clampLevel(level, g.MaxLevels())
	ctx := g.Context()
	var nodes []Node
	var visit func(parent Node)
	visit = func(parent Node) {
		for _, child := range g.SubNodes(parent) {
			if s.Relate(child.rect, ctx) == shape.Disjoint {
				continue
			}
			if child.level == level {
				nodes = append(nodes, child)
				continue
			}
			visit(child)
		}
	}
	visit(g.WorldNode())
	return nodes
}
