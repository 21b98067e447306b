package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nothsreports/internal/catalog"
	"nothsreports/internal/cli"
)

// Row states in the change list.
const (
	stateUnchanged = "unchanged"
	stateChanged   = "changed"
	stateNoReviews = "no_reviews"
	stateError     = "error"
)

type sellerRow struct {
	Slug    string
	Name    string
	Reviews string
}

type sellerTable struct {
	Path string
	Rows []sellerRow
}

type rowAlignmentPayload struct {
	Complete               bool    `json:"complete"`
	MatchedRows            int     `json:"matched_rows"`
	ReferenceRows          int     `json:"reference_rows"`
	CandidateRows          int     `json:"candidate_rows"`
	CoverageReference      float64 `json:"coverage_reference"`
	CoverageCandidate      float64 `json:"coverage_candidate"`
	DuplicateReferenceKeys int     `json:"duplicate_reference_keys,omitempty"`
	DuplicateCandidateKeys int     `json:"duplicate_candidate_keys,omitempty"`
	MissingSlugs           int     `json:"missing_slugs,omitempty"`
	pairs                  [][2]int
}

type changePayload struct {
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	Before int    `json:"before"`
	After  int    `json:"after"`
	Delta  int    `json:"delta"`
	State  string `json:"state"`
	Raw    string `json:"raw,omitempty"`
}

type summaryPayload struct {
	Status     string  `json:"status"`
	Unchanged  int     `json:"unchanged"`
	Changed    int     `json:"changed"`
	NoReviews  int     `json:"no_reviews"`
	Errors     int     `json:"errors"`
	NetDelta   int     `json:"net_delta"`
	ChangeRate float64 `json:"change_rate"`
}

type reportPayload struct {
	Status       string              `json:"status"`
	Reference    string              `json:"reference"`
	Candidate    string              `json:"candidate"`
	Summary      summaryPayload      `json:"summary"`
	RowAlignment rowAlignmentPayload `json:"row_alignment"`
	Removed      []string            `json:"removed"`
	Added        []string            `json:"added"`
	Changes      []changePayload     `json:"changes"`
}

var common cli.Common

var args struct {
	reference  string
	candidate  string
	outputJSON string
	outputXLSX string
	all        bool
}

var Cmd = &cobra.Command{
	Use:   "compare-sellers",
	Short: "Compare seller review counts between two sellers files",
	RunE:  run,
}

func init() {
	common.Register(Cmd)
	f := Cmd.Flags()
	f.StringVar(&args.reference, "reference", "data/sellers.json", "sellers file before the refresh")
	f.StringVar(&args.candidate, "candidate", "data/sellers_updated.json", "sellers file after the refresh")
	f.StringVar(&args.outputJSON, "output-json", "", "optional path to write the JSON report")
	f.StringVar(&args.outputXLSX, "output-xlsx", "", "optional path to write the change list as a spreadsheet")
	f.BoolVar(&args.all, "all", false, "include unchanged sellers in the change list")
}

func main() {
	cli.Execute(Cmd)
}

func run(_ *cobra.Command, _ []string) error {
	_, log, err := common.Load()
	if err != nil {
		return err
	}
	defer log.Sync()

	report, err := compareSellerFiles(args.reference, args.candidate, args.all)
	if err != nil {
		return err
	}
	if args.outputXLSX != "" {
		if err := writeChanges(args.outputXLSX, report.Changes); err != nil {
			return err
		}
	}
	if args.outputJSON == "" {
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(payload))
		return nil
	}
	if err := catalog.WriteJSON(args.outputJSON, report); err != nil {
		return err
	}
	log.Info("comparison written",
		zap.String("path", args.outputJSON),
		zap.String("status", report.Status),
		zap.Int("changed", report.Summary.Changed),
		zap.Int("errors", report.Summary.Errors),
		zap.Int("net_delta", report.Summary.NetDelta),
		zap.Float64("coverage_reference", report.RowAlignment.CoverageReference),
	)
	return nil
}

func compareSellerFiles(reference, candidate string, all bool) (reportPayload, error) {
	ref, err := loadSellers(reference)
	if err != nil {
		return reportPayload{}, err
	}
	cand, err := loadSellers(candidate)
	if err != nil {
		return reportPayload{}, err
	}

	alignment := alignRowsBySlug(ref, cand)
	report := reportPayload{
		Status:       "partial_key_match",
		Reference:    ref.Path,
		Candidate:    cand.Path,
		RowAlignment: alignment,
		Removed:      unmatched(ref, alignment.pairs, 0),
		Added:        unmatched(cand, alignment.pairs, 1),
		Changes:      []changePayload{},
	}
	if alignment.Complete {
		report.Status = "ok"
	}
	if alignment.MatchedRows == 0 {
		report.Status = "no_key_match"
	}

	for _, p := range alignment.pairs {
		c := diffRow(ref.Rows[p[0]], cand.Rows[p[1]])
		switch c.State {
		case stateUnchanged:
			report.Summary.Unchanged++
		case stateChanged:
			report.Summary.Changed++
			report.Summary.NetDelta += c.Delta
		case stateNoReviews:
			report.Summary.NoReviews++
		case stateError:
			report.Summary.Errors++
		}
		if c.State != stateUnchanged || all {
			report.Changes = append(report.Changes, c)
		}
	}
	sort.SliceStable(report.Changes, func(i, j int) bool {
		return abs(report.Changes[i].Delta) > abs(report.Changes[j].Delta)
	})
	report.Summary.Status = report.Status
	report.Summary.ChangeRate = round6(safeDiv(float64(report.Summary.Changed), float64(alignment.MatchedRows)))
	return report, nil
}

func loadSellers(path string) (sellerTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sellerTable{}, fmt.Errorf("%w: %s", catalog.ErrInputMissing, path)
		}
		return sellerTable{}, err
	}
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(b, &records); err != nil {
		return sellerTable{}, fmt.Errorf("parse %s: %w", path, err)
	}
	rows := make([]sellerRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, sellerRow{
			Slug:    strings.ToLower(text(rec["slug"])),
			Name:    text(rec["name"]),
			Reviews: reviewsText(rec),
		})
	}
	return sellerTable{Path: path, Rows: rows}, nil
}

// reviewsText prefers the field the storefront refresher writes.
func reviewsText(rec map[string]json.RawMessage) string {
	if v, ok := rec["reviews"]; ok {
		return text(v)
	}
	return text(rec["review_count"])
}

func text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var t catalog.Text
	if err := json.Unmarshal(raw, &t); err != nil {
		return ""
	}
	return t.String()
}

func alignRowsBySlug(ref, cand sellerTable) rowAlignmentPayload {
	refIndex := make(map[string]int, len(ref.Rows))
	dupRef := 0
	for i, row := range ref.Rows {
		if row.Slug == "" {
			continue
		}
		if _, exists := refIndex[row.Slug]; exists {
			dupRef++
			continue
		}
		refIndex[row.Slug] = i
	}
	pairs := make([][2]int, 0, len(cand.Rows))
	seenRef := make(map[int]struct{}, len(cand.Rows))
	missing, dupCand := 0, 0
	for ci, row := range cand.Rows {
		ri, ok := refIndex[row.Slug]
		if row.Slug == "" || !ok {
			missing++
			continue
		}
		if _, exists := seenRef[ri]; exists {
			dupCand++
			continue
		}
		seenRef[ri] = struct{}{}
		pairs = append(pairs, [2]int{ri, ci})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })
	matched := len(pairs)
	return rowAlignmentPayload{
		Complete:               dupRef == 0 && dupCand == 0 && missing == 0 && matched == len(ref.Rows) && matched == len(cand.Rows),
		MatchedRows:            matched,
		ReferenceRows:          len(ref.Rows),
		CandidateRows:          len(cand.Rows),
		CoverageReference:      round6(safeDiv(float64(matched), float64(len(ref.Rows)))),
		CoverageCandidate:      round6(safeDiv(float64(matched), float64(len(cand.Rows)))),
		DuplicateReferenceKeys: dupRef,
		DuplicateCandidateKeys: dupCand,
		MissingSlugs:           missing,
		pairs:                  pairs,
	}
}

// unmatched lists slugs of rows in t that are not part of any pair; side
// selects the pair column that indexes t.
func unmatched(t sellerTable, pairs [][2]int, side int) []string {
	used := make(map[int]struct{}, len(pairs))
	for _, p := range pairs {
		used[p[side]] = struct{}{}
	}
	out := []string{}
	for i, row := range t.Rows {
		if _, ok := used[i]; ok || row.Slug == "" {
			continue
		}
		out = append(out, row.Slug)
	}
	return out
}

func diffRow(before, after sellerRow) changePayload {
	c := changePayload{
		Slug:   before.Slug,
		Name:   ternary(after.Name != "", after.Name, before.Name),
		Before: catalog.ParseCount(before.Reviews),
	}
	switch {
	case strings.HasPrefix(after.Reviews, "ERROR"):
		c.State, c.Raw, c.After = stateError, after.Reviews, c.Before
	case after.Reviews == "--" || after.Reviews == "":
		c.State, c.Raw = stateNoReviews, after.Reviews
	default:
		c.After = catalog.ParseCount(after.Reviews)
		c.State = ternary(c.After == c.Before, stateUnchanged, stateChanged)
	}
	c.Delta = c.After - c.Before
	if c.State == stateError {
		c.Delta = 0
	}
	return c
}

func writeChanges(path string, changes []changePayload) error {
	rows := make([][]any, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, []any{c.Slug, c.Name, c.Before, c.After, c.Delta, c.State, c.Raw})
	}
	return catalog.WriteSheet(path, []string{"Slug", "Name", "Before", "After", "Delta", "State", "Raw"}, rows)
}

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
