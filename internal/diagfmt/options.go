package diagfmt

// PathMode selects how file paths are printed.
type PathMode uint8

const (
	PathModeAsIs PathMode = iota
	PathModeBasename
)

// PrettyOpts configures Pretty.
type PrettyOpts struct {
	Color     bool
	Context   int // lines shown before the offending one
	PathMode  PathMode
	ShowNotes bool
}

// JSONOpts configures JSON.
type JSONOpts struct {
	IncludePositions bool
	PathMode         PathMode
	Max              int // 0 prints everything
	IncludeNotes     bool
}
