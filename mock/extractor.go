package mock

import "github.com/chen893/radar"

var _ radar.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of radar.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*radar.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*radar.ExtractResult, error) {
	return e.ExtractFn(html)
}
