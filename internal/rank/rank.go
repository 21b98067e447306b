// Package rank derives leaderboard and directory views from record lists.
// Every function is pure: output depends only on the input slice and the
// explicit parameters.
package rank

import (
	"sort"
)

// Ranked pairs a record with its competition rank.
type Ranked[T any] struct {
	Rank int
	Item T
}

// CompetitionRanks assigns ranks to values already sorted descending. Tied
// values share a rank and the next distinct value takes its 1-based
// position: [50 50 30 10] -> [1 1 3 4].
func CompetitionRanks(values []int) []int {
	ranks := make([]int, len(values))
	for i, v := range values {
		if i > 0 && v == values[i-1] {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}

// TopN sorts items by metric descending (name ascending on ties), ranks
// them and keeps every item whose rank is at most n. Ties at the cut-off
// are all kept, so the result can be longer than n.
func TopN[T any](items []T, metric func(T) int, name func(T) string, n int) []Ranked[T] {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	sorted := append([]T(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		mi, mj := metric(sorted[i]), metric(sorted[j])
		if mi != mj {
			return mi > mj
		}
		return name(sorted[i]) < name(sorted[j])
	})
	ranked := withRanks(sorted, metric)
	out := ranked[:0]
	for _, r := range ranked {
		if r.Rank > n {
			break
		}
		out = append(out, r)
	}
	return out
}

// BestPerKey keeps the single highest-metric record per key among records
// whose metric is at least min, then ranks the survivors. Records with an
// empty key are ignored; on equal metrics the first record seen wins.
func BestPerKey[T any](items []T, key func(T) string, metric func(T) int, min int) []Ranked[T] {
	best := make(map[string]int)
	var order []T
	for _, it := range items {
		k := key(it)
		if k == "" || metric(it) < min {
			continue
		}
		idx, seen := best[k]
		if !seen {
			best[k] = len(order)
			order = append(order, it)
			continue
		}
		if metric(it) > metric(order[idx]) {
			order[idx] = it
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return metric(order[i]) > metric(order[j]) })
	return withRanks(order, metric)
}

func withRanks[T any](sorted []T, metric func(T) int) []Ranked[T] {
	values := make([]int, len(sorted))
	for i, it := range sorted {
		values[i] = metric(it)
	}
	ranks := CompetitionRanks(values)
	out := make([]Ranked[T], len(sorted))
	for i, it := range sorted {
		out[i] = Ranked[T]{Rank: ranks[i], Item: it}
	}
	return out
}
