package protocol

import "context"

// Extractor pulls structured fields (name, email, phone, outcome details)
// out of a raw call transcript before workflows run. The AI-backed
// implementation lives outside this module; NoopExtractor is the default.
type Extractor interface {
	ExtractFields(ctx context.Context, transcript string) (map[string]any, error)
}

// NoopExtractor performs no extraction.
type NoopExtractor struct{}

func (NoopExtractor) ExtractFields(_ context.Context, _ string) (map[string]any, error) {
	return nil, nil
}
