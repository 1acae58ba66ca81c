// Package spatial provides an immutable nearest-neighbor index over a
// snapshot of 3D points.
package spatial

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// Neighbor is a query result. ID is the position of the point in the
// snapshot the index was built from.
type Neighbor struct {
	ID     int
	Point  r3.Vec
	DistSq float64
}

// Index answers k-nearest and radius queries over a frozen point snapshot.
// A new Index is built whenever the points change; it is never mutated.
type Index struct {
	tree *kdtree.Tree
	n    int
}

// Build creates an index over points. Results report IDs as slice positions.
func Build(points []r3.Vec) *Index {
	pts := make(entries, len(points))
	for i, p := range points {
		pts[i] = entry{Vec: p, id: i}
	}
	return &Index{tree: kdtree.New(pts, false), n: len(points)}
}

// IsEmpty reports whether the index holds no points.
func (ix *Index) IsEmpty() bool { return ix == nil || ix.n == 0 }

// Len returns the number of indexed points.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return ix.n
}

// KNearest returns up to k nearest points ordered by squared distance,
// ties broken by snapshot order.
func (ix *Index) KNearest(q r3.Vec, k int) []Neighbor {
	if ix.IsEmpty() || k <= 0 {
		return nil
	}
	query := entry{Vec: q, id: -1}
	keep := kdtree.NewNKeeper(k)
	ix.tree.NearestSet(keep, query)
	out := collect(keep.Heap)
	if len(out) < k {
		return out
	}

	// The keeper drops points tied with the k-th in tree order, which
	// depends on how the tree was built. Gather every point at or inside
	// the k-th distance and cut by snapshot order instead.
	all := kdtree.NewDistKeeper(out[k-1].DistSq)
	ix.tree.NearestSet(all, query)
	return collect(all.Heap)[:k]
}

// Nearest returns the single nearest point.
func (ix *Index) Nearest(q r3.Vec) (Neighbor, bool) {
	res := ix.KNearest(q, 1)
	if len(res) == 0 {
		return Neighbor{}, false
	}
	return res[0], true
}

// Within returns every point at distance <= radius, ordered like KNearest.
func (ix *Index) Within(q r3.Vec, radius float64) []Neighbor {
	if ix.IsEmpty() || radius < 0 || math.IsNaN(radius) {
		return nil
	}
	keep := kdtree.NewDistKeeper(radius * radius)
	ix.tree.NearestSet(keep, entry{Vec: q, id: -1})
	return collect(keep.Heap)
}

// collect converts keeper results, dropping the keeper's sentinel entry.
func collect(h kdtree.Heap) []Neighbor {
	out := make([]Neighbor, 0, len(h))
	for _, cd := range h {
		e, ok := cd.Comparable.(entry)
		if !ok {
			continue
		}
		out = append(out, Neighbor{ID: e.id, Point: e.Vec, DistSq: cd.Dist})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistSq != out[j].DistSq {
			return out[i].DistSq < out[j].DistSq
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// entry is a kdtree.Comparable point carrying its snapshot position.
type entry struct {
	r3.Vec
	id int
}

// Compare returns the signed distance of e from the plane through c along d.
func (e entry) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	o := c.(entry)
	switch d {
	case 0:
		return e.X - o.X
	case 1:
		return e.Y - o.Y
	default:
		return e.Z - o.Z
	}
}

// Dims returns the number of dimensions.
func (e entry) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between e and c.
func (e entry) Distance(c kdtree.Comparable) float64 {
	o := c.(entry)
	return r3.Norm2(r3.Sub(e.Vec, o.Vec))
}

// entries is the kdtree.Interface over a point snapshot.
type entries []entry

func (p entries) Index(i int) kdtree.Comparable { return p[i] }
func (p entries) Len() int                      { return len(p) }
func (p entries) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

// Pivot partitions the list along dimension d and returns the pivot index.
func (p entries) Pivot(d kdtree.Dim) int {
	pl := plane{entries: p, dim: d}
	return kdtree.Partition(pl, kdtree.MedianOfMedians(pl))
}

// plane sorts entries along one dimension.
type plane struct {
	entries
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	return p.entries[i].Compare(p.entries[j], p.dim) < 0
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.entries = p.entries[start:end]
	return p
}

func (p plane) Swap(i, j int) {
	p.entries[i], p.entries[j] = p.entries[j], p.entries[i]
}
