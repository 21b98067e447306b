package rank

import (
	"sort"

	"nothsreports/internal/catalog"
)

// Band is a leaderboard bucket: records whose metric meets Threshold and
// no higher band.
type Band struct {
	Threshold int    `yaml:"threshold"`
	Label     string `yaml:"label"`
}

// Bands is an ordered list of bands, highest threshold first.
type Bands []Band

// NewBands builds bands from thresholds in any order, labelling each
// "12,345+".
func NewBands(thresholds ...int) Bands {
	sorted := append([]int(nil), thresholds...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	out := make(Bands, 0, len(sorted))
	for i, t := range sorted {
		if i > 0 && t == sorted[i-1] {
			continue
		}
		out = append(out, Band{Threshold: t, Label: catalog.FormatCount(t) + "+"})
	}
	return out
}

// Normalize returns a copy sorted highest threshold first with missing
// labels filled in.
func (b Bands) Normalize() Bands {
	out := append(Bands(nil), b...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Threshold > out[j].Threshold })
	for i := range out {
		if out[i].Label == "" {
			out[i].Label = catalog.FormatCount(out[i].Threshold) + "+"
		}
	}
	return out
}

// Find returns the index of the first band whose threshold value meets, or
// -1 when value is below every band.
func (b Bands) Find(value int) int {
	for i, band := range b {
		if value >= band.Threshold {
			return i
		}
	}
	return -1
}

// Bucket holds the records placed in one band.
type Bucket[T any] struct {
	Band  Band
	Items []T
}

// Assign places each record in the highest band its metric reaches.
// Records below the lowest threshold are dropped. Every band gets a
// bucket, possibly empty; members are ordered by metric descending with
// input order kept on ties.
func Assign[T any](bands Bands, items []T, metric func(T) int) []Bucket[T] {
	buckets := make([]Bucket[T], len(bands))
	for i, b := range bands {
		buckets[i].Band = b
	}
	for _, it := range items {
		if i := bands.Find(metric(it)); i >= 0 {
			buckets[i].Items = append(buckets[i].Items, it)
		}
	}
	for _, bk := range buckets {
		items := bk.Items
		sort.SliceStable(items, func(i, j int) bool { return metric(items[i]) > metric(items[j]) })
	}
	return buckets
}
