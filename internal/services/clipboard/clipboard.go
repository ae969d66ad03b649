// Package clipboard provides access to the system clipboard.
package clipboard

import (
	"github.com/atotto/clipboard"
)

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a Clipboard service implementation.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	return clipboard.WriteAll(text)
}

// Noop discards copy requests. It stands in for the system clipboard where
// none is available, such as headless environments and tests.
type Noop struct{}

// Copy discards the text.
func (Noop) Copy(string) error { return nil }

var (
	_ Copier = (*Service)(nil)
	_ Copier = Noop{}
)
