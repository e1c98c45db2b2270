// Package render turns resolved embed records into the final markup that
// replaces the matched block. Rendering is pure string work; everything
// here is deterministic for a given record and settings.
package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/embedworks/vidembed/internal/domain/model"
	"github.com/embedworks/vidembed/internal/match"
)

// Class names on the generated markup, stable for downstream CSS.
const (
	WrapperClass = "VideoEmbed"
	ErrorClass   = "VideoEmbedError"
)

// fallbackAspectPct is the 16:9 padding percentage used when the provider
// reported no dimensions and no override is configured.
const fallbackAspectPct = 56.25

// Presenter renders embed records according to deployment settings.
type Presenter struct {
	settings model.Settings
}

// NewPresenter creates a Presenter. Settings are normalized once here so
// rendering never has to revalidate them.
func NewPresenter(settings model.Settings) *Presenter {
	return &Presenter{settings: settings.Normalize()}
}

// Success renders the markup for a valid record: the provider embed code
// inside a responsive wrapper div, with the author's extra query
// parameters merged into the player URL.
func (p *Presenter) Success(rec *model.EmbedRecord, extraQuery string) string {
	pct := formatPct(p.aspectPct(rec))

	code := injectFrameStyle(rec.EmbedHTML, applyPctTokens(p.settings.FrameStyle, pct))
	code = mergeExtraQuery(code, extraQuery)

	wrap := applyPctTokens(p.settings.WrapStyle, pct)
	if wrap == "" {
		return `<div class="` + WrapperClass + `">` + code + `</div>`
	}
	return `<div class="` + WrapperClass + `" style="` + wrap + `">` + code + `</div>`
}

// Failure renders the replacement for a candidate whose lookup failed.
// The label always pairs the source URL with the failure status so the
// author can see what went wrong.
func (p *Presenter) Failure(c match.Candidate, rec *model.EmbedRecord) string {
	status := 0
	if rec != nil {
		status = rec.HTTPStatus
	}
	label := fmt.Sprintf("%s (%d)", c.URL, status)

	if p.settings.FailMode == model.FailModeComment {
		return "<!--" + label + "-->"
	}
	return c.OpenTag + `<span class="` + ErrorClass + `">` + label + `</span></` + c.Tag + `>`
}

// aspectPct returns the wrapper padding percentage: the configured
// override if set, otherwise height/width from the provider, otherwise
// the 16:9 fallback.
func (p *Presenter) aspectPct(rec *model.EmbedRecord) float64 {
	if p.settings.AspectPct > 0 {
		return p.settings.AspectPct
	}
	if rec != nil && rec.Width > 0 && rec.Height > 0 {
		pct := float64(rec.Height) / float64(rec.Width) * 100
		return math.Round(pct*100) / 100
	}
	return fallbackAspectPct
}

// formatPct renders the percentage without trailing zeros, e.g. "56.25"
// or "75".
func formatPct(pct float64) string {
	return strconv.FormatFloat(pct, 'f', -1, 64)
}

// applyPctTokens substitutes every supported token spelling with the
// percentage. All four forms produce a trailing percent sign, so styles
// written with either "{pct}" or "{pct}%" come out identical.
func applyPctTokens(style, pct string) string {
	if style == "" {
		return ""
	}
	r := strings.NewReplacer(
		"{pct}%", pct+"%",
		"{pct}", pct+"%",
		"{percent}%", pct+"%",
		"{percent}", pct+"%",
	)
	return r.Replace(style)
}

// injectFrameStyle adds the frame style to the first iframe of the embed
// code. Provider markup puts the player in the first iframe; any later
// ones are left alone.
func injectFrameStyle(code, style string) string {
	if style == "" {
		return code
	}
	return strings.Replace(code, "<iframe ", `<iframe style="`+style+`" `, 1)
}

// mergeExtraQuery splices the author's extra query parameters into the
// player URL inside the embed code. The leading separator is stripped so
// merging never produces "?&".
func mergeExtraQuery(code, extraQuery string) string {
	q := strings.TrimPrefix(extraQuery, "&")
	if q == "" {
		return code
	}

	if i := strings.Index(code, "?"); i >= 0 {
		return code[:i+1] + q + "&" + code[i+1:]
	}

	// No query string anywhere; append one to the src attribute.
	i := strings.Index(code, `src="`)
	if i < 0 {
		return code
	}
	rest := code[i+len(`src="`):]
	j := strings.Index(rest, `"`)
	if j < 0 {
		return code
	}
	at := i + len(`src="`) + j
	return code[:at] + "?" + q + code[at:]
}
