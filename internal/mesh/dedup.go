// Package mesh turns a host mesh into a deduplicated vertex buffer with
// per-material triangle lists and optional skin weights.
package mesh

import "github.com/Faultbox/zmdl/internal/model"

// vertexKey is the deduplication identity. Skin data is deliberately not
// part of it: loops agreeing on position, texcoord and normal share one
// vertex and keep the first loop's weights.
type vertexKey struct {
	position [3]float64
	texcoord [2]float64
	normal   [3]float64
}

// Deduplicator folds vertices with identical attributes into one buffer
// entry. Emission order is insertion order.
type Deduplicator struct {
	index    map[vertexKey]int
	vertices []model.Vertex
}

// NewDeduplicator returns an empty deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{index: make(map[vertexKey]int)}
}

// Add returns the buffer index of v, appending it when its attribute tuple
// is new. fresh reports whether v was appended.
func (d *Deduplicator) Add(v model.Vertex) (idx int, fresh bool) {
	k := vertexKey{position: v.Position, texcoord: v.Texcoord, normal: v.Normal}
	if idx, ok := d.index[k]; ok {
		return idx, false
	}
	idx = len(d.vertices)
	d.index[k] = idx
	d.vertices = append(d.vertices, v)
	return idx, true
}

// SetSkin attaches skin data to an emitted vertex.
func (d *Deduplicator) SetSkin(idx int, indices []int, weights []float64) {
	d.vertices[idx].Indices = indices
	d.vertices[idx].Weights = weights
}

// Len returns the number of unique vertices.
func (d *Deduplicator) Len() int {
	return len(d.vertices)
}

// Vertices returns the buffer in emission order.
func (d *Deduplicator) Vertices() []model.Vertex {
	if d.vertices == nil {
		return []model.Vertex{}
	}
	return d.vertices
}
