package schema

// String is plain text content.
type String string

// NewString returns the text as schema content.
func NewString(s string) String {
	return String(s)
}

func (s String) Snapshot() Schema {
	return s
}

func (s String) String() string {
	return string(s)
}

func (s *String) Unmarshal(bs []byte) error {
	*s = String(bs)
	return nil
}
