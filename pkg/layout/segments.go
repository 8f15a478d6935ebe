package layout

// Segment is the vertical portion of a rendered succession edge: at the
// succession year it drops from the parent chain's lane to the child chain's
// lane. Segments are what the BLOCKER and CUT_THROUGH terms reason about.
type Segment struct {
	Parent string // parent chain ID
	Child  string // child chain ID
	Year   int
	Low    int // min(parent lane, child lane)
	High   int // max(parent lane, child lane)
}

// segments materializes the vertical segments implied by an assignment.
// Relations whose endpoints share a lane produce a degenerate segment that
// no lane can sit strictly inside, so they never contribute to either term.
func (e *Evaluator) segments(a Assignment) []Segment {
	segs := make([]Segment, 0, len(e.rels))
	for _, r := range e.rels {
		py, pok := a[r.Parent]
		cy, cok := a[r.Child]
		if !pok || !cok {
			continue
		}
		lo, hi := py, cy
		if lo > hi {
			lo, hi = hi, lo
		}
		segs = append(segs, Segment{Parent: r.Parent, Child: r.Child, Year: r.Year, Low: lo, High: hi})
	}
	return segs
}

// occupant records one chain's claim on a lane.
type occupant struct {
	id    string
	start int
	end   int
}

// laneIndex maps lanes to the chains occupying them. It is the collision
// checker consulted by the CUT_THROUGH term and the lane-sharing term.
type laneIndex map[int][]occupant

func (e *Evaluator) buildLaneIndex(a Assignment) laneIndex {
	ix := make(laneIndex, len(a))
	for _, id := range e.ids {
		y, ok := a[id]
		if !ok {
			continue
		}
		c := e.chains[id]
		ix[y] = append(ix[y], occupant{id: c.ID, start: c.Start, end: c.End})
	}
	return ix
}

// blocked reports whether any chain other than the two excluded endpoint
// chains occupies lane during year.
func (ix laneIndex) blocked(lane, year int, exclude1, exclude2 string) bool {
	for _, o := range ix[lane] {
		if o.id == exclude1 || o.id == exclude2 {
			continue
		}
		if o.start <= year && year <= o.end {
			return true
		}
	}
	return false
}
