package model

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// Hierarchy field spellings. The misspelled key is what existing engine
// loaders read.
const (
	HierarchyKeyLegacy = "bone_hierachy"
	HierarchyKeyFixed  = "bone_hierarchy"
)

// EncodeOptions controls the document layout.
type EncodeOptions struct {
	Indent       string // "" writes compact JSON
	HierarchyKey string // defaults to HierarchyKeyLegacy
}

// DefaultEncodeOptions returns tab-indented output with the legacy hierarchy key.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Indent:       "\t",
		HierarchyKey: HierarchyKeyLegacy,
	}
}

// MarshalJSON writes bones as an object keyed by id in ascending numeric order.
func (s Skeleton) MarshalJSON() ([]byte, error) {
	return marshalIntKeyed(len(s), func(i int) (int, interface{}) {
		return s[i].ID, s[i]
	})
}

// MarshalJSON writes children lists as an object keyed by bone id.
func (h Hierarchy) MarshalJSON() ([]byte, error) {
	return marshalIntKeyed(len(h), func(i int) (int, interface{}) {
		children := h[i].Children
		if children == nil {
			children = []int{}
		}
		return h[i].ID, children
	})
}

func marshalIntKeyed(n int, entry func(i int) (int, interface{})) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		id, v := entry(i)
		buf.WriteString(strconv.Quote(strconv.Itoa(id)))
		buf.WriteByte(':')
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// fields lays a model out under the wire field names. Map keys are written
// in sorted order by encoding/json.
func (m *Model) fields(hierarchyKey string) map[string]interface{} {
	out := map[string]interface{}{
		"vertices":  nonNilVertices(m.Vertices),
		"submeshes": nonNilSubmeshes(m.Submeshes),
	}
	if m.Skinned() {
		out["skeleton"] = m.Skeleton
		out[hierarchyKey] = m.Hierarchy
		anims := m.Animations
		if anims == nil {
			anims = map[string]*Animation{}
		}
		out["animations"] = anims
	}
	return out
}

func nonNilVertices(v []Vertex) []Vertex {
	if v == nil {
		return []Vertex{}
	}
	return v
}

func nonNilSubmeshes(s map[string]*Submesh) map[string]*Submesh {
	if s == nil {
		return map[string]*Submesh{}
	}
	return s
}

// Encode writes the document as JSON.
func Encode(w io.Writer, doc Document, opts EncodeOptions) error {
	if opts.HierarchyKey == "" {
		opts.HierarchyKey = HierarchyKeyLegacy
	}

	out := make(map[string]interface{}, len(doc))
	for name, m := range doc {
		out[name] = m.fields(opts.HierarchyKey)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if opts.Indent != "" {
		enc.SetIndent("", opts.Indent)
	}
	return enc.Encode(out)
}

// Marshal returns the encoded document.
func Marshal(doc Document, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes the whole document in memory, then replaces path
// atomically. A failure leaves any existing file at path untouched.
func WriteFile(path string, doc Document, opts EncodeOptions) error {
	data, err := Marshal(doc, opts)
	if err != nil {
		return errors.Wrapf(ErrIO, "encoding document: %v", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(ErrIO, "opening %s: %v", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(ErrIO, "writing %s: %v", path, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(ErrIO, "writing %s: %v", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return errors.Wrapf(ErrIO, "writing %s: %v", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(ErrIO, "replacing %s: %v", path, err)
	}
	return nil
}
