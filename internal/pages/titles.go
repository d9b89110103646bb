package pages

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	siteName           = "Faylit"
	defaultTitle       = "Faylit E-Mağaza - Sokak Modası, Giyim"
	defaultDescription = "Faylit - Sokak Modası, Giyim. En trend sokak giyim ürünleri, aksesuarlar ve daha fazlasını Faylit E-Mağaza'da keşfedin."
	emptyTitle         = "Kategoriler"
	emptyDescription   = "en yeni sokak modası"
)

var (
	upper = cases.Upper(language.Turkish)
	lower = cases.Lower(language.Turkish)
)

// Segments splits a request path into its non-empty segments.
func Segments(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s = strings.TrimSpace(s); s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Title derives a page title from path segments: each segment gets an upper
// case first letter and lower case rest, hyphens become spaces, segments are
// joined with " | ".
func Title(segments []string) string {
	if len(segments) == 0 {
		return emptyTitle
	}
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = capitalize(s)
	}
	return strings.Join(parts, " | ")
}

func capitalize(s string) string {
	first, rest := s, ""
	for i := range s {
		if i > 0 {
			first, rest = s[:i], s[i:]
			break
		}
	}
	return upper.String(first) + strings.ReplaceAll(lower.String(rest), "-", " ")
}

// Description derives the meta description for path segments.
func Description(segments []string) string {
	path := strings.Join(segments, "/")
	if path == "" {
		path = emptyDescription
	}
	return "Faylit E-Mağaza'da " + path + " ürünlerini keşfedin. " + Title(segments) + " koleksiyonumuzu inceleyin."
}

// documentTitle applies the site title template.
func documentTitle(segments []string) string {
	if len(segments) == 0 {
		return defaultTitle
	}
	return Title(segments) + " | " + siteName
}

func documentDescription(segments []string) string {
	if len(segments) == 0 {
		return defaultDescription
	}
	return Description(segments)
}
