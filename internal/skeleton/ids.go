// Package skeleton converts an armature's bind pose into parent-relative
// bones and allocates the bone ids shared by skinning and animation.
package skeleton

// IDs maps bone names to dense integer ids in allocation order. One table
// is used per exported object: the skeleton pass assigns, the skin and
// animation passes only look up.
type IDs struct {
	byName map[string]int
	names  []string
}

// NewIDs returns an empty id table.
func NewIDs() *IDs {
	return &IDs{byName: make(map[string]int)}
}

// Assign returns the id of name, allocating the next one on first use.
func (t *IDs) Assign(name string) int {
	if id, ok := t.byName[name]; ok {
		return id
	}
	id := len(t.names)
	t.byName[name] = id
	t.names = append(t.names, name)
	return id
}

// Lookup returns the id of name without allocating.
func (t *IDs) Lookup(name string) (int, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// Name returns the bone name of id, or "" if unallocated.
func (t *IDs) Name(id int) string {
	if id < 0 || id >= len(t.names) {
		return ""
	}
	return t.names[id]
}

// Len returns the number of allocated ids.
func (t *IDs) Len() int {
	return len(t.names)
}
