package shape

// Relation classifies how one shape relates to another. It is always read
// from the receiver's point of view: a.Relate(b) == Contains means a
// contains b.
type Relation int

const (
	// Disjoint means the shapes share no point.
	Disjoint Relation = iota
	// Intersects means the shapes overlap but neither contains the other.
	Intersects
	// Contains means every point of the other shape is inside the receiver.
	Contains
	// Within means every point of the receiver is inside the other shape.
	Within
)

// String returns the upper-case relation name.
func (r Relation) String() string {
	switch r {
	case Disjoint:
		return "DISJOINT"
	case Intersects:
		return "INTERSECTS"
	case Contains:
		return "CONTAINS"
	case Within:
		return "WITHIN"
	default:
		return "UNKNOWN"
	}
}

// Transpose returns the relation seen from the other shape: Contains and
// Within swap, Disjoint and Intersects stay.
func (r Relation) Transpose() Relation {
	switch r {
	case Contains:
		return Within
	case Within:
		return Contains
	default:
		return r
	}
}

// Intersects reports whether the shapes share at least one point.
func (r Relation) Intersects() bool {
	return r != Disjoint
}

// Combine merges the relations of two members of a collection against the
// same shape into the relation of the collection as a whole. A member that
// contains the shape makes the collection contain it. The result does not
// depend on the order of the arguments.
func (r Relation) Combine(other Relation) Relation {
	switch {
	case r == other:
		return r
	case r == Contains || other == Contains:
		return Contains
	}
	return Intersects
}
