// Package match finds provider video URLs that stand alone inside
// block-level tags of rich text. Only URLs that are the sole content of a
// paragraph or heading are candidates; URLs mid-sentence or inside
// attributes are never touched.
package match

import (
	"regexp"
	"strings"
)

// Candidate is one block-anchored provider URL found in a rich-text value.
type Candidate struct {
	// Line is the full matched block, from the opening tag through the
	// closing tag. Replacement swaps out the whole Line.
	Line string

	// OpenTag is the opening tag with any attributes, e.g. `<p class="x">`.
	OpenTag string

	// Tag is the element name only, e.g. "p" or "h2".
	Tag string

	// URL is the video URL as the author wrote it, without any trailing
	// &-delimited extras.
	URL string

	// VideoID is the provider video identifier extracted from the URL.
	VideoID string

	// ExtraQuery is the raw "&key=value..." tail the author appended to
	// the URL, carried over into the embed player URL. Often empty.
	ExtraQuery string
}

// Provider describes one supported video host: how to recognize its URLs
// and where to resolve them.
type Provider struct {
	// Name identifies the provider in tasks, logs and metrics.
	Name string

	// TellTale is a cheap substring gate; the pattern only runs on values
	// that contain it.
	TellTale string

	// Endpoint is the oembed endpoint template. {url} and {id} are
	// substituted with the escaped video URL and id.
	Endpoint string

	pattern   *regexp.Regexp
	canonical func(id string) string
}

// Provider names.
const (
	ProviderYouTube = "youtube"
	ProviderVimeo   = "vimeo"
)

// Block-anchored URL patterns. Each yields five submatches: open tag,
// tag name, URL, video id, extra query. The closing tag is matched
// loosely since Go regexps cannot backreference the opening tag; in
// practice editors emit balanced markup.
var (
	youtubePattern = regexp.MustCompile(`(<(p|h[1-6])(?:\s[^>]*)?>)\s*(https?://(?:www\.)?(?:youtu\.be/|youtube\.com/(?:watch\?v=|v/))([^\s&'"<]+))((?:&[-_,.=&;a-zA-Z0-9]*)?)\s*</(?:p|h[1-6])>`)

	vimeoPattern = regexp.MustCompile(`(<(p|h[1-6])(?:\s[^>]*)?>)\s*(https?://vimeo\.com/(?:[A-Za-z][\w.-]*/)*([0-9a-fA-F]+))()\s*</(?:p|h[1-6])>`)
)

// YouTube matches watch, short youtu.be and legacy /v/ URLs.
var YouTube = Provider{
	Name:     ProviderYouTube,
	TellTale: "youtu",
	Endpoint: "https://www.youtube.com/oembed?url={url}&format=json",
	pattern:  youtubePattern,
	canonical: func(id string) string {
		return "https://www.youtube.com/watch?v=" + id
	},
}

// Vimeo matches plain and channel-prefixed video URLs. Vimeo has no
// alternate canonical form, so failed lookups are not retried.
var Vimeo = Provider{
	Name:     ProviderVimeo,
	TellTale: "vimeo.com",
	Endpoint: "https://vimeo.com/api/oembed.json?url={url}",
	pattern:  vimeoPattern,
}

// All returns the supported providers in matching order.
func All() []Provider {
	return []Provider{YouTube, Vimeo}
}

// ByName returns the provider with the given name.
func ByName(name string) (Provider, bool) {
	for _, p := range All() {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}

// ForURL returns the provider whose telltale appears in the URL.
func ForURL(url string) (Provider, bool) {
	for _, p := range All() {
		if strings.Contains(url, p.TellTale) {
			return p, true
		}
	}
	return Provider{}, false
}

// Match returns every block-anchored candidate for this provider in the
// text, in document order.
func (p Provider) Match(text string) []Candidate {
	if !strings.Contains(text, p.TellTale) {
		return nil
	}

	matches := p.pattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	candidates := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, Candidate{
			Line:       m[0],
			OpenTag:    m[1],
			Tag:        m[2],
			URL:        m[3],
			VideoID:    m[4],
			ExtraQuery: m[5],
		})
	}
	return candidates
}

// CanonicalURL returns the provider's canonical form of a video URL, used
// to retry failed lookups on URL shapes the provider's oembed endpoint
// rejects. ok is false for providers without a canonical form.
func (p Provider) CanonicalURL(id string) (string, bool) {
	if p.canonical == nil {
		return "", false
	}
	return p.canonical(id), true
}

// HasTellTale reports whether any provider's telltale appears in the
// text. Callers use it to skip all pattern work on the common case of
// text without video URLs.
func HasTellTale(text string) bool {
	for _, p := range All() {
		if strings.Contains(text, p.TellTale) {
			return true
		}
	}
	return false
}

// WrapBare wraps a value that is nothing but a lone URL in a paragraph so
// the block patterns can see it. Returns the input unchanged when the
// value contains whitespace, markup or anything besides the URL.
func WrapBare(text string) (wrapped string, ok bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return text, false
	}
	if strings.ContainsAny(trimmed, " \t\r\n<>") {
		return text, false
	}
	return "<p>" + trimmed + "</p>", true
}
