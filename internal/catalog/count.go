package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Count is an integer metric that arrives either as a JSON number or as a
// comma-grouped string ("12,345"). Decoding never fails: anything that does
// not parse becomes 0.
type Count int

func (c *Count) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			*c = 0
			return nil
		}
		s = str
	}
	*c = Count(ParseCount(s))
	return nil
}

// ParseCount coerces a count field to an integer. Grouping commas are
// removed; decimal values are truncated; unparsable input yields 0.
func ParseCount(s string) int {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// FormatCount renders n with comma thousands separators.
func FormatCount(n int) string {
	s := strconv.Itoa(n)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	n = len(s)
	if n <= 3 {
		return sign + s
	}
	var parts []string
	for n > 3 {
		parts = append([]string{s[n-3:]}, parts...)
		s = s[:n-3]
		n = len(s)
	}
	if s != "" {
		parts = append([]string{s}, parts...)
	}
	return sign + strings.Join(parts, ",")
}

// Text accepts any JSON scalar and keeps its textual form. SKUs and slugs
// are sometimes exported as numbers.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		*t = ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*t = Text(str)
	case strings.HasPrefix(s, "{"), strings.HasPrefix(s, "["):
		*t = ""
	default:
		*t = Text(s)
	}
	return nil
}

func (t Text) String() string { return strings.TrimSpace(string(t)) }
