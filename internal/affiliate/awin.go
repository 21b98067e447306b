// Package affiliate reconciles direct product links with their AWIN
// affiliate-wrapped counterparts.
package affiliate

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

const (
	DefaultRedirectHost = "www.awin1.com"
	DefaultRedirectPath = "/cread.php"
	DefaultTargetParam  = "ued"
	DefaultMerchantID   = "18484"
	DefaultDomain       = "notonthehighstreet.com"
)

// Normalizer builds and validates affiliate links for one merchant. The
// zero value trusts nothing; use New.
type Normalizer struct {
	// Domains are the registrable domains whose URLs are trusted. A host is
	// accepted when it equals one of them or its "www." form.
	Domains      []string
	RedirectHost string
	RedirectPath string
	TargetParam  string
	MerchantID   string
	AffiliateID  string
}

// New returns a Normalizer for the default merchant site.
func New(merchantID, affiliateID string) Normalizer {
	if merchantID == "" {
		merchantID = DefaultMerchantID
	}
	return Normalizer{
		Domains:      []string{DefaultDomain},
		RedirectHost: DefaultRedirectHost,
		RedirectPath: DefaultRedirectPath,
		TargetParam:  DefaultTargetParam,
		MerchantID:   merchantID,
		AffiliateID:  affiliateID,
	}
}

// Outcome says which reconciliation rule produced a Result.
type Outcome int

const (
	// Passthrough: nothing could be trusted, the original fields are returned.
	Passthrough Outcome = iota
	// Kept: the existing affiliate link wraps the trusted raw URL.
	Kept
	// Rebuilt: the existing affiliate link pointed elsewhere and was replaced.
	Rebuilt
	// Built: there was no affiliate link, one was created from the raw URL.
	Built
	// KeptUnverified: no trusted raw URL, but the affiliate link carries a target.
	KeptUnverified
)

func (o Outcome) String() string {
	switch o {
	case Kept:
		return "kept"
	case Rebuilt:
		return "rebuilt"
	case Built:
		return "built"
	case KeptUnverified:
		return "kept-unverified"
	default:
		return "passthrough"
	}
}

// Links are the outbound link fields of a record as they were loaded.
type Links struct {
	Raw       string
	Affiliate string
}

// Result is the reconciled outbound link.
type Result struct {
	Primary string
	Raw     string
	Outcome Outcome
}

// Primary picks the canonical outbound URL for a record.
func (n Normalizer) Primary(l Links) Result {
	aff := strings.TrimSpace(l.Affiliate)
	clean, trusted := n.CleanURL(l.Raw)
	if trusted {
		switch {
		case aff != "" && n.Valid(aff, clean):
			return Result{Primary: aff, Raw: clean, Outcome: Kept}
		case aff != "":
			return Result{Primary: n.Build(clean), Raw: clean, Outcome: Rebuilt}
		default:
			return Result{Primary: n.Build(clean), Raw: clean, Outcome: Built}
		}
	}
	if aff != "" && n.hasTarget(aff) {
		return Result{Primary: aff, Raw: l.Raw, Outcome: KeptUnverified}
	}
	primary := strings.TrimSpace(l.Raw)
	if primary == "" {
		primary = aff
	}
	return Result{Primary: primary, Raw: l.Raw, Outcome: Passthrough}
}

// CleanURL returns the canonical form of raw when its host is trusted:
// https scheme, "www." host, no query, no fragment.
func (n Normalizer) CleanURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	domain, ok := n.trustedDomain(strings.ToLower(u.Hostname()))
	if !ok {
		return "", false
	}
	u.Scheme = "https"
	u.Host = "www." + domain
	u.User = nil
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), true
}

// Build wraps a cleaned URL into the affiliate redirect.
func (n Normalizer) Build(clean string) string {
	return fmt.Sprintf("https://%s%s?awinmid=%s&awinaffid=%s&%s=%s",
		n.RedirectHost, n.RedirectPath,
		url.QueryEscape(n.MerchantID), url.QueryEscape(n.AffiliateID),
		n.TargetParam, url.QueryEscape(clean))
}

// Valid reports whether link is an affiliate redirect whose embedded target
// normalises to clean.
func (n Normalizer) Valid(link, clean string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	if !strings.EqualFold(u.Hostname(), n.RedirectHost) || u.Path != n.RedirectPath {
		return false
	}
	target, ok := n.target(u)
	if !ok {
		return false
	}
	got, ok := n.CleanURL(target)
	return ok && got == clean
}

func (n Normalizer) hasTarget(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	_, ok := n.target(u)
	return ok
}

func (n Normalizer) target(u *url.URL) (string, bool) {
	q, err := url.ParseQuery(u.RawQuery)
	if err != nil && q == nil {
		return "", false
	}
	t := strings.TrimSpace(q.Get(n.TargetParam))
	return t, t != ""
}

func (n Normalizer) trustedDomain(host string) (string, bool) {
	host = strings.TrimSuffix(host, ".")
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", false
	}
	if host != etld1 && host != "www."+etld1 {
		return "", false
	}
	for _, d := range n.Domains {
		if strings.EqualFold(d, etld1) {
			return etld1, true
		}
	}
	return "", false
}
