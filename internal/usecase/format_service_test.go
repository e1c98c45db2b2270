package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/embedworks/vidembed/internal/domain/model"
	"github.com/embedworks/vidembed/internal/match"
)

// plainSettings disables the inline styles so expected markup stays short.
func plainSettings() model.Settings {
	return model.Settings{
		MaxResolution: model.ResNone,
		FailMode:      model.FailModeInline,
	}
}

func TestFormatService_FormatValue_EmptyValue(t *testing.T) {
	mockSvc := &mockEmbedService{}
	svc := NewFormatService(mockSvc, plainSettings())

	out, err := svc.FormatValue(context.Background(), FormatInput{Value: ""})
	if err != nil {
		t.Fatalf("FormatValue failed: %v", err)
	}
	if out.Changed {
		t.Error("expected Changed to be false")
	}
	if out.Value != "" {
		t.Errorf("expected an empty value, got %q", out.Value)
	}
}

func TestFormatService_FormatValue_NoTellTale(t *testing.T) {
	mockSvc := &mockEmbedService{}
	svc := NewFormatService(mockSvc, plainSettings())

	value := "<p>Just some prose about video production.</p>"
	out, err := svc.FormatValue(context.Background(), FormatInput{Value: value})
	if err != nil {
		t.Fatalf("FormatValue failed: %v", err)
	}
	if out.Changed {
		t.Error("expected Changed to be false")
	}
	if out.Value != value {
		t.Errorf("expected the value untouched, got %q", out.Value)
	}
	if mockSvc.resolveCount.Load() != 0 {
		t.Errorf("resolver called %d times, want 0", mockSvc.resolveCount.Load())
	}
}

func TestFormatService_FormatValue_ReplacesBlockURL(t *testing.T) {
	value := "<p>intro</p>\n<p>https://www.youtube.com/watch?v=dQw4w9WgXcQ</p>\n<p>outro</p>"
	want := "<p>intro</p>\n" +
		`<div class="VideoEmbed"><iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ"></iframe></div>` +
		"\n<p>outro</p>"

	var gotOwner model.OwnerRef
	mockSvc := &mockEmbedService{
		resolveFn: func(ctx context.Context, input ResolveInput) (*ResolveOutput, error) {
			gotOwner = input.Owner
			return &ResolveOutput{Record: validEmbed(input.VideoID, input.VideoURL)}, nil
		},
	}
	svc := NewFormatService(mockSvc, plainSettings())

	out, err := svc.FormatValue(context.Background(), FormatInput{
		Owner: model.OwnerRef{PageID: 42, Field: "body"},
		Value: value,
	})
	if err != nil {
		t.Fatalf("FormatValue failed: %v", err)
	}

	if !out.Changed {
		t.Error("expected Changed to be true")
	}
	if out.Value != want {
		t.Errorf("value mismatch\n got: %q\nwant: %q", out.Value, want)
	}
	if gotOwner.PageID != 42 || gotOwner.Field != "body" {
		t.Errorf("owner not passed through, got %+v", gotOwner)
	}
}

func TestFormatService_FormatValue_WhitespacePadding(t *testing.T) {
	value := "<p>  https://youtu.be/dQw4w9WgXcQ  </p>"
	want := `<div class="VideoEmbed"><iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ"></iframe></div>`

	svc := NewFormatService(&mockEmbedService{}, plainSettings())

	out, err := svc.FormatValue(context.Background(), FormatInput{Value: value})
	if err != nil {
		t.Fatalf("FormatValue failed: %v", err)
	}
	if out.Value != want {
		t.Errorf("value mismatch\n got: %q\nwant: %q", out.Value, want)
	}
}

func TestFormatService_FormatValue_ExtraQuery(t *testing.T) {
	value := "<p>https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=43</p>"
	want := `<div class="VideoEmbed"><iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ?t=43"></iframe></div>`

	svc := NewFormatService(&mockEmbedService{}, plainSettings())

	out, err := svc.FormatValue(context.Background(), FormatInput{Value: value})
	if err != nil {
		t.Fatalf("FormatValue failed: %v", err)
	}
	if out.Value != want {
		t.Errorf("value mismatch\n got: %q\nwant: %q", out.Value, want)
	}
}

func TestFormatService_FormatValue_Idempotent(t *testing.T) {
	value := "<p>https://www.youtube.com/watch?v=dQw4w9WgXcQ</p>"

	svc := NewFormatService(&mockEmbedService{}, plainSettings())

	first, err := svc.FormatValue(context.Background(), FormatInput{Value: value})
	if err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	if !first.Changed {
		t.Fatal("expected the first pass to replace the URL")
	}

	// The embed markup still contains the provider telltale, so the second
	// pass takes the slow path and must come out as a no-op.
	second, err := svc.FormatValue(context.Background(), FormatInput{Value: first.Value})
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if second.Changed {
		t.Error("expected the second pass to change nothing")
	}
	if second.Value != first.Value {
		t.Errorf("second pass altered the value\n got: %q\nwant: %q", second.Value, first.Value)
	}
}

func TestFormatService_FormatValue_BareURL(t *testing.T) {
	t.Run("matching URL becomes embed markup", func(t *testing.T) {
		svc := NewFormatService(&mockEmbedService{}, plainSettings())

		out, err := svc.FormatValue(context.Background(), FormatInput{Value: "https://youtu.be/dQw4w9WgXcQ"})
		if err != nil {
			t.Fatalf("FormatValue failed: %v", err)
		}

		want := `<div class="VideoEmbed"><iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ"></iframe></div>`
		if out.Value != want {
			t.Errorf("value mismatch\n got: %q\nwant: %q", out.Value, want)
		}
		if !out.Changed {
			t.Error("expected Changed to be true")
		}
	})

	t.Run("failed lookup becomes error markup", func(t *testing.T) {
		mockSvc := &mockEmbedService{
			resolveFn: func(ctx context.Context, input ResolveInput) (*ResolveOutput, error) {
				return &ResolveOutput{
					Record: model.NewFailedEmbed(input.VideoID, input.VideoURL, http.StatusNotFound),
				}, nil
			},
		}
		svc := NewFormatService(mockSvc, plainSettings())

		out, err := svc.FormatValue(context.Background(), FormatInput{Value: "https://youtu.be/dQw4w9WgXcQ"})
		if err != nil {
			t.Fatalf("FormatValue failed: %v", err)
		}

		// Never the bare URL wrapped in a paragraph.
		want := `<p><span class="VideoEmbedError">https://youtu.be/dQw4w9WgXcQ (404)</span></p>`
		if out.Value != want {
			t.Errorf("value mismatch\n got: %q\nwant: %q", out.Value, want)
		}
		if !out.Changed {
			t.Error("expected Changed to be true")
		}
	})

	t.Run("unmatched URL is restored untouched", func(t *testing.T) {
		mockSvc := &mockEmbedService{}
		svc := NewFormatService(mockSvc, plainSettings())

		// Carries the telltale but is not a video URL; the synthetic
		// paragraph wrapper must not leak into the result.
		value := "https://www.youtube.com/channel/UCuAXFkgsw1L7xaCfnd5JJOw"
		out, err := svc.FormatValue(context.Background(), FormatInput{Value: value})
		if err != nil {
			t.Fatalf("FormatValue failed: %v", err)
		}

		if out.Changed {
			t.Error("expected Changed to be false")
		}
		if out.Value != value {
			t.Errorf("expected the value untouched, got %q", out.Value)
		}
		if mockSvc.resolveCount.Load() != 0 {
			t.Errorf("resolver called %d times, want 0", mockSvc.resolveCount.Load())
		}
	})
}

func TestFormatService_FormatValue_FailureModes(t *testing.T) {
	value := "<p>https://vimeo.com/12345</p>"

	mockSvc := &mockEmbedService{
		resolveFn: func(ctx context.Context, input ResolveInput) (*ResolveOutput, error) {
			return &ResolveOutput{
				Record: model.NewFailedEmbed(input.VideoID, input.VideoURL, http.StatusNotFound),
			}, nil
		},
	}

	t.Run("inline error keeps the block", func(t *testing.T) {
		svc := NewFormatService(mockSvc, plainSettings())

		out, err := svc.FormatValue(context.Background(), FormatInput{Value: value})
		if err != nil {
			t.Fatalf("FormatValue failed: %v", err)
		}

		want := `<p><span class="VideoEmbedError">https://vimeo.com/12345 (404)</span></p>`
		if out.Value != want {
			t.Errorf("value mismatch\n got: %q\nwant: %q", out.Value, want)
		}
	})

	t.Run("html comment hides the failure", func(t *testing.T) {
		settings := plainSettings()
		settings.FailMode = model.FailModeComment
		svc := NewFormatService(mockSvc, settings)

		out, err := svc.FormatValue(context.Background(), FormatInput{Value: value})
		if err != nil {
			t.Fatalf("FormatValue failed: %v", err)
		}

		want := "<!--https://vimeo.com/12345 (404)-->"
		if out.Value != want {
			t.Errorf("value mismatch\n got: %q\nwant: %q", out.Value, want)
		}
		if !out.Changed {
			t.Error("expected Changed to be true")
		}
	})
}

func TestFormatService_FormatValue_HeadingWithAttributes(t *testing.T) {
	value := `<h2 class="title">https://www.youtube.com/watch?v=dQw4w9WgXcQ</h2>`

	mockSvc := &mockEmbedService{
		resolveFn: func(ctx context.Context, input ResolveInput) (*ResolveOutput, error) {
			return &ResolveOutput{
				Record: model.NewFailedEmbed(input.VideoID, input.VideoURL, http.StatusForbidden),
			}, nil
		},
	}
	svc := NewFormatService(mockSvc, plainSettings())

	out, err := svc.FormatValue(context.Background(), FormatInput{Value: value})
	if err != nil {
		t.Fatalf("FormatValue failed: %v", err)
	}

	// The inline error keeps the original tag and attributes.
	want := `<h2 class="title"><span class="VideoEmbedError">https://www.youtube.com/watch?v=dQw4w9WgXcQ (403)</span></h2>`
	if out.Value != want {
		t.Errorf("value mismatch\n got: %q\nwant: %q", out.Value, want)
	}
}

func TestFormatService_FormatValue_MixedProviders(t *testing.T) {
	value := "<p>https://www.youtube.com/watch?v=dQw4w9WgXcQ</p>\n<p>https://vimeo.com/148751763</p>"

	mockSvc := &mockEmbedService{
		resolveFn: func(ctx context.Context, input ResolveInput) (*ResolveOutput, error) {
			rec := validEmbed(input.VideoID, input.VideoURL)
			if input.Provider.Name == match.ProviderVimeo {
				rec.EmbedHTML = `<iframe src="https://player.vimeo.com/video/` + input.VideoID + `"></iframe>`
			}
			return &ResolveOutput{Record: rec}, nil
		},
	}
	svc := NewFormatService(mockSvc, plainSettings())

	out, err := svc.FormatValue(context.Background(), FormatInput{Value: value})
	if err != nil {
		t.Fatalf("FormatValue failed: %v", err)
	}

	want := `<div class="VideoEmbed"><iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ"></iframe></div>` +
		"\n" +
		`<div class="VideoEmbed"><iframe src="https://player.vimeo.com/video/148751763"></iframe></div>`
	if out.Value != want {
		t.Errorf("value mismatch\n got: %q\nwant: %q", out.Value, want)
	}
	if mockSvc.resolveCount.Load() != 2 {
		t.Errorf("resolver called %d times, want 2", mockSvc.resolveCount.Load())
	}
}

func TestFormatService_FormatValue_RepeatedVideo(t *testing.T) {
	block := "<p>https://www.youtube.com/watch?v=dQw4w9WgXcQ</p>"
	value := block + "\n" + block

	svc := NewFormatService(&mockEmbedService{}, plainSettings())

	out, err := svc.FormatValue(context.Background(), FormatInput{Value: value})
	if err != nil {
		t.Fatalf("FormatValue failed: %v", err)
	}

	embed := `<div class="VideoEmbed"><iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ"></iframe></div>`
	want := embed + "\n" + embed
	if out.Value != want {
		t.Errorf("value mismatch\n got: %q\nwant: %q", out.Value, want)
	}
}

func TestFormatService_FormatValue_ResolverError(t *testing.T) {
	mockSvc := &mockEmbedService{
		resolveFn: func(ctx context.Context, input ResolveInput) (*ResolveOutput, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewFormatService(mockSvc, plainSettings())

	value := "<p>https://www.youtube.com/watch?v=dQw4w9WgXcQ</p>"
	_, err := svc.FormatValue(context.Background(), FormatInput{Value: value})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "resolve youtube embed") {
		t.Errorf("unexpected error: %v", err)
	}
}
