package gateway

import (
	"context"
	"errors"
	"sync"

	"github.com/fyrsmithlabs/stagehand/internal/logging"
)

// Provider dials the gateway on first use and shares one instance.
// Agents that never ask for a tool never pay the dial cost, and a run
// that dialed a tool server always gets it shut down through Close.
type Provider struct {
	cfg    Config
	logger *logging.Logger

	once sync.Once
	gw   Gateway
	err  error
}

// NewProvider creates a lazy gateway provider.
func NewProvider(cfg Config, logger *logging.Logger) *Provider {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Provider{cfg: cfg, logger: logger}
}

// Gateway returns the shared gateway, dialing it on first call.
func (p *Provider) Gateway(ctx context.Context) (Gateway, error) {
	p.once.Do(func() {
		p.gw, p.err = Dial(ctx, p.cfg, p.logger)
	})
	return p.gw, p.err
}

// Close shuts down the gateway if it was ever dialed. Calling Close
// first marks the provider unusable instead of dialing late.
func (p *Provider) Close() error {
	p.once.Do(func() {
		p.err = errors.New("gateway provider closed")
	})
	if p.gw != nil {
		return p.gw.Close()
	}
	return nil
}
