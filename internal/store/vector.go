package store

import (
	"math"
	"sort"
)

// normalize sorts v by term and scales it to unit L2 norm in place.
// The zero vector is returned unchanged.
func normalize(v Vector) Vector {
	sort.Slice(v, func(i, j int) bool { return v[i].Term < v[j].Term })
	n := Norm(v)
	if n == 0 {
		return v
	}
	for i := range v {
		v[i].Value /= n
	}
	return v
}

// Norm returns the Euclidean length of v.
func Norm(v Vector) float64 {
	var sum float64
	for _, w := range v {
		sum += w.Value * w.Value
	}
	return math.Sqrt(sum)
}

// Dot returns the inner product of two term-sorted vectors.
func Dot(a, b Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Term == b[j].Term:
			sum += a[i].Value * b[j].Value
			i++
			j++
		case a[i].Term < b[j].Term:
			i++
		default:
			j++
		}
	}
	return sum
}
