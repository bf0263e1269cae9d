package fetch

import (
	"iter"
	"strings"

	"fetch/transport"
	"fetch/util/rule"
)

// Guard restricts which header mutations are permitted.
// Reference: https://fetch.spec.whatwg.org/#concept-headers-guard
type Guard int

const (
	GuardNone Guard = iota
	GuardImmutable
	GuardRequest
	GuardRequestNoCORS
	GuardResponse
)

func (g Guard) String() string {
	switch g {
	case GuardNone:
		return "none"
	case GuardImmutable:
		return "immutable"
	case GuardRequest:
		return "request"
	case GuardRequestNoCORS:
		return "request-no-cors"
	case GuardResponse:
		return "response"
	}
	return "unknown"
}

type headerEntry struct {
	// name is stored in canonical form; comparisons happen on it directly.
	name  string
	value string
}

// Headers is an ordered, case-insensitive multimap of header fields.
//
// Every mutator validates the field grammar first, then the guard, and
// only then applies the change. A failed mutation leaves the map
// untouched.
type Headers struct {
	entries []headerEntry
	guard   Guard
}

func NewHeaders() *Headers {
	return &Headers{}
}

// HeadersFrom builds Headers from ordered name-value pairs, validating
// each as Append would.
func HeadersFrom(pairs [][2]string) (*Headers, error) {
	h := NewHeaders()
	for _, pair := range pairs {
		if err := h.Append(pair[0], pair[1]); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Guard returns the guard currently applied to h.
func (h *Headers) Guard() Guard { return h.guard }

// Get returns the values for name joined with ", " in insertion order.
// ok is false when no entry exists.
func (h *Headers) Get(name string) (value string, ok bool) {
	values := h.GetAll(name)
	if len(values) == 0 {
		return "", false
	}
	return strings.Join(values, ", "), true
}

// GetAll returns every value for name, in insertion order.
func (h *Headers) GetAll(name string) []string {
	name = rule.CanonicalFieldName(name)

	var values []string
	for _, e := range h.entries {
		if e.name == name {
			values = append(values, e.value)
		}
	}
	return values
}

// GetSetCookie returns the Set-Cookie values as separate strings.
// Set-Cookie is the one field whose values must never be joined.
// Reference: https://fetch.spec.whatwg.org/#dom-headers-getsetcookie
func (h *Headers) GetSetCookie() []string {
	return h.GetAll("Set-Cookie")
}

func (h *Headers) Has(name string) bool {
	name = rule.CanonicalFieldName(name)
	for _, e := range h.entries {
		if e.name == name {
			return true
		}
	}
	return false
}

// Set replaces every entry for name with a single one. The first existing
// occurrence keeps its position; later occurrences are removed.
func (h *Headers) Set(name, value string) error {
	name, value, err := h.checkMutation(name, value)
	if err != nil {
		return err
	}

	replaced := false
	kept := h.entries[:0]
	for _, e := range h.entries {
		if e.name != name {
			kept = append(kept, e)
			continue
		}
		if !replaced {
			kept = append(kept, headerEntry{name: name, value: value})
			replaced = true
		}
	}
	h.entries = kept

	if !replaced {
		h.entries = append(h.entries, headerEntry{name: name, value: value})
	}
	return nil
}

// Append adds a new entry for name at the end.
func (h *Headers) Append(name, value string) error {
	name, value, err := h.checkMutation(name, value)
	if err != nil {
		return err
	}

	h.entries = append(h.entries, headerEntry{name: name, value: value})
	return nil
}

// Delete removes every entry for name. Removing a missing name is a no-op,
// but grammar and guard checks still apply.
func (h *Headers) Delete(name string) error {
	name, _, err := h.checkMutation(name, "")
	if err != nil {
		return err
	}

	kept := h.entries[:0]
	for _, e := range h.entries {
		if e.name != name {
			kept = append(kept, e)
		}
	}
	h.entries = kept
	return nil
}

// Entries iterates over (name, value) pairs in insertion order. The
// sequence is a snapshot: restarting it or mutating h mid-iteration is
// safe.
func (h *Headers) Entries() iter.Seq2[string, string] {
	snapshot := append([]headerEntry(nil), h.entries...)
	return func(yield func(string, string) bool) {
		for _, e := range snapshot {
			if !yield(e.name, e.value) {
				return
			}
		}
	}
}

// Len returns the number of entries.
func (h *Headers) Len() int { return len(h.entries) }

func (h *Headers) checkMutation(name, value string) (string, string, error) {
	if !rule.IsValidToken(name) {
		return "", "", newValidationError("invalid header name %q", name)
	}
	value = rule.TrimFieldValue(value)
	if !rule.IsValidFieldValue(value) {
		return "", "", newValidationError("invalid header value for %q", name)
	}

	if err := h.checkGuard(name); err != nil {
		return "", "", err
	}

	return rule.CanonicalFieldName(name), value, nil
}

func (h *Headers) checkGuard(name string) error {
	switch h.guard {
	case GuardImmutable:
		return newValidationError("headers are immutable")
	case GuardRequest:
		if rule.IsForbiddenRequestHeader(name) {
			return newValidationError("header %q is forbidden for requests", name)
		}
	case GuardRequestNoCORS:
		if !rule.IsCORSSafelistedRequestHeader(name) {
			return newValidationError("header %q is not allowed for no-cors requests", name)
		}
	case GuardResponse:
		if rule.IsForbiddenResponseHeader(name) {
			return newValidationError("header %q is forbidden for responses", name)
		}
	}
	return nil
}

// deleteRaw removes entries for name without grammar or guard checks. The
// redirect machinery uses it for its internal header rewrites, which the
// guard must not veto.
func (h *Headers) deleteRaw(name string) {
	name = rule.CanonicalFieldName(name)
	kept := h.entries[:0]
	for _, e := range h.entries {
		if e.name != name {
			kept = append(kept, e)
		}
	}
	h.entries = kept
}

// clone deep-copies the entries and applies guard to the copy.
func (h *Headers) clone(guard Guard) *Headers {
	return &Headers{
		entries: append([]headerEntry(nil), h.entries...),
		guard:   guard,
	}
}

// setGuard is used by Request/Response construction; user code never
// changes a guard after the fact.
func (h *Headers) setGuard(guard Guard) { h.guard = guard }

// wireFields flattens the headers for the transport, preserving order.
func (h *Headers) wireFields() []transport.Field {
	fields := make([]transport.Field, 0, len(h.entries))
	for _, e := range h.entries {
		fields = append(fields, transport.Field{Name: e.name, Value: e.value})
	}
	return fields
}

// headersFromWire normalizes received fields into Headers. Field names
// that fail the token grammar are dropped rather than failing the whole
// response; values arrive unvalidated from the network and are trimmed
// only.
func headersFromWire(fields []transport.Field, guard Guard) *Headers {
	h := &Headers{entries: make([]headerEntry, 0, len(fields))}
	for _, f := range fields {
		if !rule.IsValidToken(f.Name) {
			continue
		}
		h.entries = append(h.entries, headerEntry{
			name:  rule.CanonicalFieldName(f.Name),
			value: rule.TrimFieldValue(f.Value),
		})
	}
	h.guard = guard
	return h
}
