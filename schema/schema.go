package schema

import "encoding/json"

// Schema is the message content schema interface. Everything carried in a
// conversation message implements it: plain text, typed tool inputs and
// outputs, raw tool result payloads.
type Schema interface {
	// Snapshot returns a detached value representing the content at the
	// time it was appended to a conversation.
	Snapshot() Schema
}

// Stringify renders content the way the model sees it. Plain strings pass
// through unchanged, everything else is serialized as JSON.
func Stringify(s Schema) string {
	switch v := s.(type) {
	case String:
		return string(v)
	case *String:
		return string(*v)
	}
	bs, _ := json.Marshal(s)
	return string(bs)
}

// ToBytes is Stringify returning the raw bytes.
func ToBytes(s Schema) []byte {
	switch v := s.(type) {
	case String:
		return []byte(v)
	case *String:
		return []byte(*v)
	}
	bs, _ := json.Marshal(s)
	return bs
}
