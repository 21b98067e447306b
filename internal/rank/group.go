package rank

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"nothsreports/internal/catalog"
)

// Group is a keyed slice of records.
type Group[T any] struct {
	Key   string
	Items []T
}

// ByLetter groups records by the A–Z index letter of their name. "#" holds
// names that do not start with a letter and sorts first; members are
// ordered case-insensitively by name.
func ByLetter[T any](items []T, name func(T) string) []Group[T] {
	groups := groupBy(items, func(it T) string { return catalog.IndexLetter(name(it)) })
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].Key, groups[j].Key
		if (a == "#") != (b == "#") {
			return a == "#"
		}
		return a < b
	})
	sortMembers(groups, name)
	return groups
}

// ByYear groups records by the year suffix of a free-text date. Keys sort
// descending as plain strings, so catalog.UnknownYear lands ahead of every
// numeric year.
func ByYear[T any](items []T, date func(T) string, name func(T) string) []Group[T] {
	groups := groupBy(items, func(it T) string { return catalog.YearSuffix(date(it)) })
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key > groups[j].Key })
	sortMembers(groups, name)
	return groups
}

// Keys lists the group keys in order.
func Keys[T any](groups []Group[T]) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Key
	}
	return out
}

func groupBy[T any](items []T, key func(T) string) []Group[T] {
	index := make(map[string]int)
	var groups []Group[T]
	for _, it := range items {
		k := key(it)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[T]{Key: k})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

func sortMembers[T any](groups []Group[T], name func(T) string) {
	c := collate.New(language.English, collate.IgnoreCase)
	for _, g := range groups {
		items := g.Items
		sort.SliceStable(items, func(i, j int) bool {
			a, b := name(items[i]), name(items[j])
			if r := c.CompareString(a, b); r != 0 {
				return r < 0
			}
			return a < b
		})
	}
}
