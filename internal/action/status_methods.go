package action

import (
	"context"
	"time"

	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/status"
)

func registerStatusMethods(s *Surface) {
	s.register("getServerStats", handleGetServerStats)
	s.register("ping", handlePing)
}

// handleGetServerStats is a context-less command: bc is always nil here.
func handleGetServerStats(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{
		"uptime_seconds": time.Since(s.startedAt).Seconds(),
		"active_contexts": len(s.Contexts.ListContexts()),
		"headless":        s.Headless,
	}, nil
}

func handlePing(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	return status.Result(status.OK, "pong"), nil
}
