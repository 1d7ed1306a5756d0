package model

import (
	"bytes"
	"encoding/json"
)

// Equal reports whether t and o are structurally identical once both are in
// canonical form. Every field takes part, timestamps included.
func (t Task) Equal(o Task) bool {
	return jsonEqual(t.Canonical(), o.Canonical())
}

// Equal reports whether s and o are structurally identical once both are in
// canonical form.
func (s Session) Equal(o Session) bool {
	return jsonEqual(s.Canonical(), o.Canonical())
}

// jsonEqual compares the serialized forms of a and b. Struct fields always
// encode in declaration order, so the encoding is canonical for our types.
func jsonEqual(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
