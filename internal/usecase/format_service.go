package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/embedworks/vidembed/internal/domain/model"
	"github.com/embedworks/vidembed/internal/infrastructure/metrics"
	"github.com/embedworks/vidembed/internal/match"
	"github.com/embedworks/vidembed/internal/render"
)

// FormatInput is one rich-text value to format.
type FormatInput struct {
	Owner model.OwnerRef
	Value string
}

// FormatOutput contains the formatted value.
type FormatOutput struct {
	Value   string
	Changed bool
}

// FormatService replaces block-anchored video URLs in rich text with embed
// markup.
type FormatService interface {
	// FormatValue resolves and replaces every sole-content video URL in
	// the value. It is idempotent: formatting an already formatted value
	// returns it unchanged. On error the caller keeps the original value.
	FormatValue(ctx context.Context, input FormatInput) (*FormatOutput, error)
}

type formatService struct {
	resolver  EmbedService
	presenter *render.Presenter
}

// NewFormatService creates a new FormatService instance.
func NewFormatService(resolver EmbedService, settings model.Settings) FormatService {
	return &formatService{
		resolver:  resolver,
		presenter: render.NewPresenter(settings),
	}
}

// FormatValue runs the replacement pass over one value.
func (s *formatService) FormatValue(ctx context.Context, input FormatInput) (*FormatOutput, error) {
	if input.Value == "" {
		return &FormatOutput{Value: input.Value}, nil
	}

	// Cheap reject: skip all pattern work when no provider telltale
	// appears anywhere in the text.
	if !match.HasTellTale(input.Value) {
		metrics.FormatsTotal.WithLabelValues(metrics.FormatUnchanged).Inc()
		return &FormatOutput{Value: input.Value}, nil
	}

	working, _ := match.WrapBare(input.Value)

	replaced := false
	for _, provider := range match.All() {
		for _, c := range provider.Match(working) {
			out, err := s.resolver.Resolve(ctx, ResolveInput{
				Provider: provider,
				VideoID:  c.VideoID,
				VideoURL: c.URL,
				Owner:    input.Owner,
			})
			if err != nil {
				metrics.FormatsTotal.WithLabelValues(metrics.FormatError).Inc()
				return nil, fmt.Errorf("resolve %s embed %s: %w", provider.Name, c.VideoID, err)
			}

			var markup string
			if out.Record.Valid {
				markup = s.presenter.Success(out.Record, c.ExtraQuery)
			} else {
				markup = s.presenter.Failure(c, out.Record)
			}

			working = strings.ReplaceAll(working, c.Line, markup)
			replaced = true
		}
	}

	if !replaced {
		// A telltale appeared but nothing stood alone in a block. The
		// original value goes back untouched, including a bare URL we
		// wrapped ourselves.
		metrics.FormatsTotal.WithLabelValues(metrics.FormatUnchanged).Inc()
		return &FormatOutput{Value: input.Value}, nil
	}

	metrics.FormatsTotal.WithLabelValues(metrics.FormatReplaced).Inc()
	return &FormatOutput{Value: working, Changed: true}, nil
}
