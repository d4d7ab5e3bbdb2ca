package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ragshield/ragshield/llm/image"
	"github.com/ragshield/ragshield/rag"
)

// ImageLoader turns an image file into a single caption Document using a
// vision model. Caption failures are logged and skipped rather than
// failing the whole ingestion run: a corpus with one bad image should
// still produce an index.
type ImageLoader struct {
	captioner image.CaptionProvider
	logger    *zap.Logger
}

// NewImageLoader creates an ImageLoader backed by the given caption provider.
func NewImageLoader(captioner image.CaptionProvider, logger *zap.Logger) *ImageLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageLoader{
		captioner: captioner,
		logger:    logger.With(zap.String("component", "image_loader")),
	}
}

// Load captions the image and returns one ContentTypeImageCaption
// Document. It returns an empty slice (not an error) when captioning
// fails, so the ingester omits the image and keeps going.
func (l *ImageLoader) Load(ctx context.Context, source string) ([]rag.Document, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("image loader: read %s: %w", source, err)
	}

	caption, err := l.captioner.Caption(ctx, data)
	if err != nil {
		l.logger.Warn("skipping image that could not be captioned",
			zap.String("source", source),
			zap.String("captioner", l.captioner.Name()),
			zap.Error(err))
		return nil, nil
	}
	if caption == "" {
		return nil, nil
	}

	return []rag.Document{{
		ID:          source,
		SourceID:    filepath.Base(source),
		ContentType: rag.ContentTypeImageCaption,
		Content:     caption,
		Metadata: map[string]string{
			"source_path": source,
			"loader":      "image",
		},
	}}, nil
}

// SupportedTypes returns the extensions handled by ImageLoader.
func (l *ImageLoader) SupportedTypes() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}
}
