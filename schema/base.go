package schema

// Base is a base schema meant to be embedded by typed tool input and
// output structs.
type Base struct{}

// String implements fmt.Stringer with an empty value; embedding types
// usually provide their own.
func (r Base) String() string {
	return ""
}

// Snapshot implements the Schema interface.
func (r Base) Snapshot() Schema {
	return Base{}
}
