package host

// ValuePrinter renders produced values and snapshot values as text. The
// engine never propagates a printer failure: a malformed String on a
// user-defined type must not crash the evaluate cycle, so errors (and panics)
// are caught and reported as diagnostics instead.
type ValuePrinter interface {
	// Format renders a value. The verbose flag requests a more detailed
	// rendering, e.g. for an inspector pane rather than the result line.
	Format(value any, verbose bool) (string, error)
}
