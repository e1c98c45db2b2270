package model

// MaxResolution caps the player size requested from the provider via the
// oembed maxwidth/maxheight parameters.
type MaxResolution string

const (
	Res240p  MaxResolution = "240p"
	Res360p  MaxResolution = "360p"
	Res480p  MaxResolution = "480p"
	Res720p  MaxResolution = "720p"
	Res1080p MaxResolution = "1080p"
	Res1440p MaxResolution = "1440p"
	Res2160p MaxResolution = "2160p"

	// ResNone leaves the player size up to the provider.
	ResNone MaxResolution = "none"
)

// resolutionSizes maps each cap to its 16:9 pixel dimensions.
var resolutionSizes = map[MaxResolution][2]int{
	Res240p:  {426, 240},
	Res360p:  {640, 360},
	Res480p:  {854, 480},
	Res720p:  {1280, 720},
	Res1080p: {1920, 1080},
	Res1440p: {2560, 1440},
	Res2160p: {3840, 2160},
}

// Size returns the pixel dimensions for the cap. ok is false for ResNone
// and unknown values, meaning no size constraint should be sent.
func (r MaxResolution) Size() (width, height int, ok bool) {
	dims, found := resolutionSizes[r]
	if !found {
		return 0, 0, false
	}
	return dims[0], dims[1], true
}

func (r MaxResolution) IsValid() bool {
	if r == ResNone {
		return true
	}
	_, found := resolutionSizes[r]
	return found
}

func (r MaxResolution) String() string {
	return string(r)
}

// FailMode selects how a failed lookup is rendered in place of the URL.
type FailMode string

const (
	// FailModeInline keeps the original block element and renders the URL
	// with its failure status in a styled span.
	FailModeInline FailMode = "inline-error"

	// FailModeComment replaces the block with an HTML comment, hiding the
	// failure from readers while keeping it visible in the page source.
	FailModeComment FailMode = "html-comment"
)

func (m FailMode) IsValid() bool {
	switch m {
	case FailModeInline, FailModeComment:
		return true
	default:
		return false
	}
}

// Default responsive styles. The {pct} token is replaced with the aspect
// ratio percentage at render time.
const (
	DefaultWrapStyle  = "position:relative;padding-bottom:{pct}%;height:0;overflow:hidden;"
	DefaultFrameStyle = "position:absolute;top:0;left:0;width:100%;height:100%;"
)

// Settings holds the per-deployment rendering and caching behavior.
type Settings struct {
	// MaxResolution caps the requested player size.
	MaxResolution MaxResolution

	// AspectPct forces the padding percentage of the responsive wrapper.
	// Zero means derive it from the provider-reported dimensions.
	AspectPct float64

	// WrapStyle and FrameStyle are inline CSS applied to the wrapper div
	// and the provider iframe. Either may be empty to disable styling.
	WrapStyle  string
	FrameStyle string

	// RefreshDays is the cache lifetime; records older than this are
	// removed by the daily sweep. Zero disables expiry entirely.
	RefreshDays int

	// FailMode selects the rendering of failed lookups.
	FailMode FailMode

	// PrivacyEnhanced switches YouTube embeds to the no-cookie host and
	// enables thumbnail mirroring into local object storage.
	PrivacyEnhanced bool
}

// DefaultSettings returns the stock configuration: a 16:9 responsive
// wrapper, no size cap, no expiry, failures rendered inline.
func DefaultSettings() Settings {
	return Settings{
		MaxResolution: ResNone,
		WrapStyle:     DefaultWrapStyle,
		FrameStyle:    DefaultFrameStyle,
		FailMode:      FailModeInline,
	}
}

// Normalize clamps out-of-range values to their defaults and returns the
// result. Unknown enum values fall back rather than erroring so a typo in
// deployment config degrades gracefully.
func (s Settings) Normalize() Settings {
	if !s.MaxResolution.IsValid() {
		s.MaxResolution = ResNone
	}
	if s.AspectPct < 0 {
		s.AspectPct = 0
	}
	if s.RefreshDays < 0 {
		s.RefreshDays = 0
	}
	if !s.FailMode.IsValid() {
		s.FailMode = FailModeInline
	}
	return s
}
