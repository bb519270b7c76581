package protocol

import (
	"slices"
	"strings"
)

// Field is a single response header as received.
type Field struct {
	Name  string
	Value string
}

// Header is an ordered set of response headers. Names keep the case the
// server sent; lookups ignore case, and setting an existing name replaces
// its value in place. The zero value is an empty Header ready to use.
type Header struct {
	fields []Field
}

func (h *Header) index(name string) int {
	for i := range h.fields {
		if strings.EqualFold(h.fields[i].Name, name) {
			return i
		}
	}
	return -1
}

// Set stores value under name, replacing any earlier value for the name.
func (h *Header) Set(name, value string) {
	if i := h.index(name); i >= 0 {
		h.fields[i] = Field{Name: name, Value: value}
		return
	}
	h.fields = append(h.fields, Field{Name: name, Value: value})
}

// Get returns the value for name, or "" if absent.
func (h *Header) Get(name string) string {
	v, _ := h.Lookup(name)
	return v
}

// Lookup returns the value for name and whether it was present.
func (h *Header) Lookup(name string) (string, bool) {
	if i := h.index(name); i >= 0 {
		return h.fields[i].Value, true
	}
	return "", false
}

// Del removes name. Copies of h taken earlier are left unchanged.
func (h *Header) Del(name string) {
	if i := h.index(name); i >= 0 {
		h.fields = slices.Delete(slices.Clone(h.fields), i, i+1)
	}
}

// Len returns the number of distinct header names.
func (h *Header) Len() int {
	return len(h.fields)
}

// Fields returns a copy of the headers in arrival order.
func (h *Header) Fields() []Field {
	out := make([]Field, len(h.fields))
	copy(out, h.fields)
	return out
}
