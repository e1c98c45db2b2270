package model

import "testing"

func TestMaxResolution_Size(t *testing.T) {
	tests := []struct {
		name       string
		res        MaxResolution
		wantWidth  int
		wantHeight int
		wantOK     bool
	}{
		{"240p", Res240p, 426, 240, true},
		{"360p", Res360p, 640, 360, true},
		{"480p", Res480p, 854, 480, true},
		{"720p", Res720p, 1280, 720, true},
		{"1080p", Res1080p, 1920, 1080, true},
		{"1440p", Res1440p, 2560, 1440, true},
		{"2160p", Res2160p, 3840, 2160, true},
		{"none has no size", ResNone, 0, 0, false},
		{"unknown has no size", MaxResolution("4320p"), 0, 0, false},
		{"empty has no size", MaxResolution(""), 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, ok := tt.res.Size()
			if w != tt.wantWidth || h != tt.wantHeight || ok != tt.wantOK {
				t.Errorf("Size() = (%d, %d, %v), want (%d, %d, %v)",
					w, h, ok, tt.wantWidth, tt.wantHeight, tt.wantOK)
			}
		})
	}
}

func TestMaxResolution_IsValid(t *testing.T) {
	tests := []struct {
		name string
		res  MaxResolution
		want bool
	}{
		{"none is valid", ResNone, true},
		{"720p is valid", Res720p, true},
		{"empty is invalid", MaxResolution(""), false},
		{"arbitrary is invalid", MaxResolution("huge"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFailMode_IsValid(t *testing.T) {
	tests := []struct {
		name string
		mode FailMode
		want bool
	}{
		{"inline-error is valid", FailModeInline, true},
		{"html-comment is valid", FailModeComment, true},
		{"empty is invalid", FailMode(""), false},
		{"unknown is invalid", FailMode("silent"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mode.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSettings_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Settings
		want Settings
	}{
		{
			name: "defaults pass through",
			in:   DefaultSettings(),
			want: DefaultSettings(),
		},
		{
			name: "unknown resolution falls back to none",
			in:   Settings{MaxResolution: "8K", FailMode: FailModeInline},
			want: Settings{MaxResolution: ResNone, FailMode: FailModeInline},
		},
		{
			name: "negative aspect clamps to auto",
			in:   Settings{MaxResolution: ResNone, AspectPct: -1, FailMode: FailModeComment},
			want: Settings{MaxResolution: ResNone, AspectPct: 0, FailMode: FailModeComment},
		},
		{
			name: "negative refresh days clamps to never",
			in:   Settings{MaxResolution: Res720p, RefreshDays: -7, FailMode: FailModeInline},
			want: Settings{MaxResolution: Res720p, RefreshDays: 0, FailMode: FailModeInline},
		},
		{
			name: "unknown fail mode falls back to inline",
			in:   Settings{MaxResolution: ResNone, FailMode: "explode"},
			want: Settings{MaxResolution: ResNone, FailMode: FailModeInline},
		},
		{
			name: "empty styles are preserved",
			in:   Settings{MaxResolution: ResNone, FailMode: FailModeInline, WrapStyle: "", FrameStyle: ""},
			want: Settings{MaxResolution: ResNone, FailMode: FailModeInline},
		},
		{
			name: "explicit values survive",
			in: Settings{
				MaxResolution:   Res1080p,
				AspectPct:       75,
				WrapStyle:       "padding:{pct};",
				FrameStyle:      "border:0;",
				RefreshDays:     30,
				FailMode:        FailModeComment,
				PrivacyEnhanced: true,
			},
			want: Settings{
				MaxResolution:   Res1080p,
				AspectPct:       75,
				WrapStyle:       "padding:{pct};",
				FrameStyle:      "border:0;",
				RefreshDays:     30,
				FailMode:        FailModeComment,
				PrivacyEnhanced: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
