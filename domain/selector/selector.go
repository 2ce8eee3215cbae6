// Package selector picks the single detection closest to a reference point.
package selector

import (
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/soocke/pixel-tracker-go/domain/tensor"
)

// candidate is a detection center tagged with its position in the input list.
type candidate struct {
	x, y float64
	idx  int
}

func (c candidate) Compare(o kdtree.Comparable, d kdtree.Dim) float64 {
	q := o.(candidate)
	if d == 0 {
		return c.x - q.x
	}
	return c.y - q.y
}

func (c candidate) Dims() int { return 2 }

// Distance is the squared Euclidean distance.
func (c candidate) Distance(o kdtree.Comparable) float64 {
	q := o.(candidate)
	dx, dy := c.x-q.x, c.y-q.y
	return dx*dx + dy*dy
}

type candidates []candidate

func (p candidates) Index(i int) kdtree.Comparable { return p[i] }
func (p candidates) Len() int                      { return len(p) }
func (p candidates) Pivot(d kdtree.Dim) int        { return plane{candidates: p, dim: d}.Pivot() }
func (p candidates) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

type plane struct {
	candidates
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	if p.dim == 0 {
		return p.candidates[i].x < p.candidates[j].x
	}
	return p.candidates[i].y < p.candidates[j].y
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{candidates: p.candidates[start:end], dim: p.dim}
}
func (p plane) Swap(i, j int) { p.candidates[i], p.candidates[j] = p.candidates[j], p.candidates[i] }

// Nearest returns the detection whose raw center is closest to (refX, refY) by
// squared Euclidean distance. Equal distances resolve to the earliest detection in
// dets. It reports false for an empty list. The index is rebuilt on every call.
func Nearest(dets []tensor.Detection, refX, refY float32) (tensor.Detection, bool) {
	switch len(dets) {
	case 0:
		return tensor.Detection{}, false
	case 1:
		return dets[0], true
	}
	pts := make(candidates, len(dets))
	for i, d := range dets {
		pts[i] = candidate{x: float64(d.CenterX), y: float64(d.CenterY), idx: i}
	}
	tree := kdtree.New(pts, false)
	q := candidate{x: float64(refX), y: float64(refY), idx: -1}

	best, dist := tree.Nearest(q)
	if best == nil {
		return tensor.Detection{}, false
	}
	idx := best.(candidate).idx

	keep := kdtree.NewDistKeeper(dist)
	tree.NearestSet(keep, q)
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		if i := c.Comparable.(candidate).idx; i < idx {
			idx = i
		}
	}
	return dets[idx], true
}
