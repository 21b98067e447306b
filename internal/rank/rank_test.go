package rank

import (
	"reflect"
	"testing"
)

type entry struct {
	Name  string
	Key   string
	Value int
	Since string
}

func entryName(e entry) string  { return e.Name }
func entryValue(e entry) int    { return e.Value }
func entryKey(e entry) string   { return e.Key }
func entrySince(e entry) string { return e.Since }

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = name(it)
	}
	return out
}

func ranks[T any](items []Ranked[T]) []int {
	out := make([]int, len(items))
	for i, r := range items {
		out[i] = r.Rank
	}
	return out
}

func TestCompetitionRanks(t *testing.T) {
	cases := []struct {
		in   []int
		want []int
	}{
		{[]int{50, 50, 30, 10}, []int{1, 1, 3, 4}},
		{[]int{10, 10, 10, 5, 5}, []int{1, 1, 1, 4, 4}},
		{[]int{9, 8, 7}, []int{1, 2, 3}},
		{nil, []int{}},
	}
	for _, tc := range cases {
		if got := CompetitionRanks(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("CompetitionRanks(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTopNCutsByRank(t *testing.T) {
	items := []entry{
		{Name: "e", Value: 5},
		{Name: "c", Value: 10},
		{Name: "a", Value: 10},
		{Name: "d", Value: 5},
		{Name: "b", Value: 10},
	}

	top3 := TopN(items, entryValue, entryName, 3)
	if got := names(itemsOf(top3), entryName); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("top 3 = %v", got)
	}
	if got := ranks(top3); !reflect.DeepEqual(got, []int{1, 1, 1}) {
		t.Fatalf("top 3 ranks = %v", got)
	}

	// The 5s share rank 4, so a cut-off of 4 takes both of them.
	top4 := TopN(items, entryValue, entryName, 4)
	if got := names(itemsOf(top4), entryName); !reflect.DeepEqual(got, []string{"a", "b", "c", "d", "e"}) {
		t.Fatalf("top 4 = %v", got)
	}
	if got := ranks(top4); !reflect.DeepEqual(got, []int{1, 1, 1, 4, 4}) {
		t.Fatalf("top 4 ranks = %v", got)
	}

	top2 := TopN(items, entryValue, entryName, 2)
	if len(top2) != 3 {
		t.Fatalf("ties at the cut-off must be kept, got %d items", len(top2))
	}

	all := TopN(items, entryValue, entryName, 5)
	if got := ranks(all); !reflect.DeepEqual(got, []int{1, 1, 1, 4, 4}) {
		t.Fatalf("top 5 ranks = %v", got)
	}

	if TopN(items, entryValue, entryName, 0) != nil {
		t.Fatal("expected nil for n=0")
	}
	if items[0].Name != "e" {
		t.Fatal("TopN must not reorder its input")
	}
}

func TestBestPerKey(t *testing.T) {
	items := []entry{
		{Name: "mug", Key: "acme", Value: 40},
		{Name: "card", Key: "bee", Value: 4},
		{Name: "bowl", Key: "acme", Value: 90},
		{Name: "vase", Key: "cat", Value: 90},
		{Name: "plate", Key: "acme", Value: 90},
		{Name: "orphan", Key: "", Value: 500},
		{Name: "tea", Key: "dog", Value: 12},
	}
	got := BestPerKey(items, entryKey, entryValue, 5)
	if n := names(itemsOf(got), entryName); !reflect.DeepEqual(n, []string{"bowl", "vase", "tea"}) {
		t.Fatalf("best per key = %v", n)
	}
	if r := ranks(got); !reflect.DeepEqual(r, []int{1, 1, 3}) {
		t.Fatalf("ranks = %v", r)
	}
}

func TestByLetter(t *testing.T) {
	items := []entry{
		{Name: "banana"},
		{Name: "3 Wishes"},
		{Name: "Apple"},
		{Name: "apricot"},
		{Name: "&Co"},
		{Name: "Bee"},
	}
	groups := ByLetter(items, entryName)
	if keys := Keys(groups); !reflect.DeepEqual(keys, []string{"#", "A", "B"}) {
		t.Fatalf("keys = %v", keys)
	}
	if got := names(groups[0].Items, entryName); !reflect.DeepEqual(got, []string{"&Co", "3 Wishes"}) && !reflect.DeepEqual(got, []string{"3 Wishes", "&Co"}) {
		t.Fatalf("# group = %v", got)
	}
	if got := names(groups[1].Items, entryName); !reflect.DeepEqual(got, []string{"Apple", "apricot"}) {
		t.Fatalf("A group = %v", got)
	}
	if got := names(groups[2].Items, entryName); !reflect.DeepEqual(got, []string{"banana", "Bee"}) {
		t.Fatalf("B group = %v", got)
	}
}

func TestByYearUnknownSortsByString(t *testing.T) {
	items := []entry{
		{Name: "a", Since: "June 2016"},
		{Name: "b", Since: "2021"},
		{Name: "c", Since: ""},
		{Name: "d", Since: "last spring"},
		{Name: "e", Since: "Jan 2021"},
	}
	groups := ByYear(items, entrySince, entryName)
	if keys := Keys(groups); !reflect.DeepEqual(keys, []string{"Unknown", "2021", "2016"}) {
		t.Fatalf("keys = %v", keys)
	}
	if got := names(groups[0].Items, entryName); !reflect.DeepEqual(got, []string{"c", "d"}) {
		t.Fatalf("Unknown group = %v", got)
	}
	if got := names(groups[1].Items, entryName); !reflect.DeepEqual(got, []string{"b", "e"}) {
		t.Fatalf("2021 group = %v", got)
	}
}

func TestAssignIsExclusiveAndHighestFirst(t *testing.T) {
	bands := NewBands(2500, 10000, 5000)
	if bands[0].Threshold != 10000 || bands[2].Threshold != 2500 || bands[1].Label != "5,000+" {
		t.Fatalf("unexpected bands %+v", bands)
	}
	items := []entry{
		{Name: "exact", Value: 5000},
		{Name: "top", Value: 25000},
		{Name: "low", Value: 2499},
		{Name: "mid", Value: 7000},
		{Name: "floor", Value: 2500},
	}
	buckets := Assign(bands, items, entryValue)
	if len(buckets) != 3 {
		t.Fatalf("expected a bucket per band, got %d", len(buckets))
	}
	if got := names(buckets[0].Items, entryName); !reflect.DeepEqual(got, []string{"top"}) {
		t.Fatalf("10000 band = %v", got)
	}
	if got := names(buckets[1].Items, entryName); !reflect.DeepEqual(got, []string{"mid", "exact"}) {
		t.Fatalf("5000 band = %v", got)
	}
	if got := names(buckets[2].Items, entryName); !reflect.DeepEqual(got, []string{"floor"}) {
		t.Fatalf("2500 band = %v", got)
	}
}

func TestBandsNormalize(t *testing.T) {
	b := Bands{{Threshold: 100}, {Threshold: 1000, Label: "Big"}}.Normalize()
	if b[0].Label != "Big" || b[1].Label != "100+" {
		t.Fatalf("unexpected normalized bands %+v", b)
	}
	if b.Find(99) != -1 || b.Find(100) != 1 || b.Find(5000) != 0 {
		t.Fatal("unexpected Find results")
	}
}

func itemsOf[T any](ranked []Ranked[T]) []T {
	out := make([]T, len(ranked))
	for i, r := range ranked {
		out[i] = r.Item
	}
	return out
}
