package srv

import (
	"context"
	"fmt"

	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

// closer adapts a resource's Close to the Service lifecycle. Start is a no-op.
type closer struct {
	name  string
	close func() error
}

// NewCloser returns a Service that closes the named resource on shutdown.
func NewCloser(name string, fn func() error) Service {
	return &closer{name: name, close: fn}
}

func (c *closer) Start(context.Context) error { return nil }

func (c *closer) Shutdown(ctx context.Context) error {
	if c.close == nil {
		return nil
	}
	if err := c.close(); err != nil {
		return fmt.Errorf("close %s: %w", c.name, err)
	}
	log.FromCtx(ctx).Debug().Str("resource", c.name).Msg("closed")
	return nil
}
