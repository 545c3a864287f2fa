package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Ref is a canonical identifier for a record reference whose stored
// representation is not trusted. It keeps the raw text as written and
// whether that text was a structured identifier: a uuid.UUID, or a string
// already in canonical UUID form.
type Ref struct {
	raw        string
	id         uuid.UUID
	structured bool
}

// NewRef returns a structured reference to id.
func NewRef(id uuid.UUID) Ref {
	return Ref{raw: id.String(), id: id, structured: true}
}

// ParseRef wraps a stored or user-supplied identifier. The result is
// structured only when s is exactly the canonical UUID string.
func ParseRef(s string) Ref {
	r := Ref{raw: s}
	if len(s) == 36 {
		if id, err := uuid.Parse(s); err == nil && id.String() == s {
			r.id = id
			r.structured = true
		}
	}
	return r
}

// String returns the trimmed raw form.
func (r Ref) String() string { return strings.TrimSpace(r.raw) }

// IsZero reports whether the reference is empty.
func (r Ref) IsZero() bool { return r.String() == "" }

// Structured returns the identifier when the reference was stored in
// structured form.
func (r Ref) Structured() (uuid.UUID, bool) {
	return r.id, r.structured
}

// Reparse leniently parses the raw text into a UUID, accepting upper case,
// braces, the urn:uuid: prefix and the dashless form.
func (r Ref) Reparse() (uuid.UUID, bool) {
	if r.structured {
		return r.id, true
	}
	id, err := uuid.Parse(r.String())
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Matches compares two references by canonical UUID when both parse, and by
// case-insensitive string form otherwise.
func (r Ref) Matches(other Ref) bool {
	if r.IsZero() || other.IsZero() {
		return false
	}
	a, aok := r.Reparse()
	b, bok := other.Reparse()
	if aok && bok {
		return a == b
	}
	return strings.EqualFold(r.String(), other.String())
}

// MarshalJSON encodes the raw form as a string.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.raw)
}

// UnmarshalJSON accepts a string, a number, an {"$oid": "..."} wrapper or an
// {"id": "..."} object, which are the shapes upstream writers have used.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = ParseRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*r = ParseRef(n.String())
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err == nil {
		for _, key := range []string{"$oid", "id", "_id"} {
			if raw, ok := obj[key]; ok {
				return r.UnmarshalJSON(raw)
			}
		}
		*r = Ref{}
		return nil
	}
	return fmt.Errorf("unsupported reference value %s", data)
}
