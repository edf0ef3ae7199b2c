package risk

import (
	"sync"

	"civicrisk/internal/services"
)

var errNoBuilder = services.Wrap(services.ErrConfiguration, "risk provider", "", "no analyzer builder", nil)

// Provider constructs one Analyzer on first use and returns it to every
// caller for the life of the process.
type Provider struct {
	build func() (*Analyzer, error)

	once     sync.Once
	analyzer *Analyzer
	err      error
}

// NewProvider wraps build, which runs at most once.
func NewProvider(build func() (*Analyzer, error)) *Provider {
	return &Provider{build: build}
}

// Get returns the shared Analyzer, building it on the first call. A
// construction error is cached and returned on every call.
func (p *Provider) Get() (*Analyzer, error) {
	p.once.Do(func() {
		if p.build == nil {
			p.err = errNoBuilder
			return
		}
		p.analyzer, p.err = p.build()
	})
	return p.analyzer, p.err
}
