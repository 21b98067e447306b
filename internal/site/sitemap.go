package site

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path"
	"strings"
	"time"
)

const (
	sitemapXmlns           = "http://www.sitemaps.org/schemas/sitemap/0.9"
	sitemapProtocolMaxURLs = 50000
	sitemapChangeFreq      = "weekly"
	sitemapPriority        = "0.8"
)

type sitemapIndexXML struct {
	XMLName xml.Name        `xml:"sitemapindex"`
	Xmlns   string          `xml:"xmlns,attr"`
	Items   []sitemapRefXML `xml:"sitemap"`
}

type sitemapRefXML struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type urlSetXML struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	Items   []urlItemXML `xml:"url"`
}

type urlItemXML struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// sitemapFile is one file of the sitemap output, relative to the site root.
type sitemapFile struct {
	Path    string
	Content []byte
}

// buildSitemap lists every page as an absolute URL. Up to chunkSize URLs
// go into a single sitemap.xml; beyond that sitemap.xml becomes an index
// over sitemaps/pages-N.xml files.
func buildSitemap(baseURL string, pages []string, runDate time.Time, chunkSize int) ([]sitemapFile, error) {
	if chunkSize <= 0 || chunkSize > sitemapProtocolMaxURLs {
		chunkSize = sitemapProtocolMaxURLs
	}
	baseURL = strings.TrimRight(baseURL, "/")
	lastmod := runDate.Format("2006-01-02")

	items := make([]urlItemXML, 0, len(pages))
	for _, p := range pages {
		items = append(items, urlItemXML{
			Loc:        pageURL(baseURL, p),
			LastMod:    lastmod,
			ChangeFreq: sitemapChangeFreq,
			Priority:   sitemapPriority,
		})
	}

	if len(items) <= chunkSize {
		b, err := encodeXML(urlSetXML{Xmlns: sitemapXmlns, Items: items})
		if err != nil {
			return nil, err
		}
		return []sitemapFile{{Path: "sitemap.xml", Content: b}}, nil
	}

	var files []sitemapFile
	index := sitemapIndexXML{Xmlns: sitemapXmlns}
	for i := 0; i*chunkSize < len(items); i++ {
		end := min((i+1)*chunkSize, len(items))
		name := fmt.Sprintf("sitemaps/pages-%d.xml", i+1)
		b, err := encodeXML(urlSetXML{Xmlns: sitemapXmlns, Items: items[i*chunkSize : end]})
		if err != nil {
			return nil, err
		}
		files = append(files, sitemapFile{Path: name, Content: b})
		index.Items = append(index.Items, sitemapRefXML{Loc: baseURL + "/" + name, LastMod: lastmod})
	}
	b, err := encodeXML(index)
	if err != nil {
		return nil, err
	}
	return append([]sitemapFile{{Path: "sitemap.xml", Content: b}}, files...), nil
}

// pageURL maps an output path to its public URL; index.html files are
// addressed by their directory.
func pageURL(baseURL, rel string) string {
	rel = path.Clean(strings.ReplaceAll(rel, "\\", "/"))
	switch {
	case rel == "index.html":
		return baseURL + "/"
	case path.Base(rel) == "index.html":
		return baseURL + "/" + path.Dir(rel) + "/"
	default:
		return baseURL + "/" + rel
	}
}

func encodeXML(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
