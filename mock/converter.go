package mock

import "github.com/chen893/radar"

var _ radar.Converter = (*Converter)(nil)

// Converter is a mock implementation of radar.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
