package pipeline

import (
	"context"

	"github.com/ytget/ytmux/internal/model"
)

// Resolver expands a URL into item URLs
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) ([]string, error)
}

// ItemSource resolves item metadata. Forget releases anything cached for the item.
type ItemSource interface {
	Item(ctx context.Context, itemURL string) (*model.SourceItem, error)
	Forget(itemURL string)
}

// CaptionExtractor writes one caption track next to the output file
type CaptionExtractor interface {
	Extract(ctx context.Context, item *model.SourceItem, lang, destPath string) (string, error)
}

// EventFunc receives every status and progress event of a run
type EventFunc func(model.ProgressEvent)
