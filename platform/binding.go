package platform

// Binding is one entry of a session snapshot: a named top-level binding, its
// declared type, and its current value rendered as text. It is a read-only
// copy and does not alias live session storage.
type Binding struct {
	Name  string
	Type  string
	Value string
}
