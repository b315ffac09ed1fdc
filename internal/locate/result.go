package locate

// Status tags the outcome of a solve.
type Status int

const (
	// InsufficientData means too few usable observations survived.
	InsufficientData Status = iota
	// Degenerate means the geometry was ill-conditioned or no consensus was found.
	Degenerate
	// Solved carries a usable point.
	Solved
)

func (s Status) String() string {
	switch s {
	case Solved:
		return "solved"
	case Degenerate:
		return "degenerate"
	default:
		return "insufficient_data"
	}
}

// Result is the outcome of Solve or RobustSolve. Point and Inliers are only
// meaningful when Status is Solved.
type Result struct {
	Status  Status
	Point   Vec
	Inliers []int
}

// OK reports whether the result carries a solution.
func (r Result) OK() bool { return r.Status == Solved }
