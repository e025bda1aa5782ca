package download

import (
	"context"

	"socialdl/internal/domain"
)

// ExtractedFile is one file written to local storage by an Extractor
type ExtractedFile struct {
	Path  string
	Title string
}

// Extractor fetches the media behind a URL into local files, in source order
type Extractor interface {
	Extract(ctx context.Context, url string, policy domain.QualityPolicy) ([]ExtractedFile, error)
}
