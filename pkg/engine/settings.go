package engine

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/tomato/pkg/logging"
)

// syncSettings uploads local settings when the remote has none, otherwise
// overwrites local with remote. No comparison is made and no conflict is
// counted.
func (e *Engine) syncSettings(ctx context.Context, log *logging.Logger) error {
	remote, err := e.remote.GetSettings(ctx)
	if err != nil {
		log.Error("fetch remote settings", "error", err)
		return fmt.Errorf("fetch remote: %w", err)
	}

	if remote == nil {
		local, err := e.local.GetSettings(ctx)
		if err != nil {
			return fmt.Errorf("read local: %w", err)
		}
		if err := e.remote.PutSettings(ctx, local); err != nil {
			log.Error("upload settings", "error", err)
			return fmt.Errorf("upload: %w", err)
		}
		log.Info("uploaded local settings")
		return nil
	}

	if err := e.local.UpdateSettings(ctx, *remote); err != nil {
		log.Error("store remote settings", "error", err)
		return fmt.Errorf("store: %w", err)
	}
	log.Info("applied remote settings")
	return nil
}
