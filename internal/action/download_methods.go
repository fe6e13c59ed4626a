package action

import (
	"context"

	"github.com/owlbrowser/core/internal/contextmgr"
)

func registerDownloadMethods(s *Surface) {
	s.register("listDownloads", handleListDownloads)
}

// handleListDownloads reports the context's tracked downloads. Entries
// are populated by whatever download-capable surface the deployment
// wires in (none ships in this core); an idle context simply reports
// none.
func handleListDownloads(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	downloads := s.Contexts.Downloads.List(bc.ID)
	out := make([]map[string]interface{}, 0, len(downloads))
	for _, d := range downloads {
		out = append(out, map[string]interface{}{"id": d.ID, "url": d.URL, "path": d.Path, "state": d.State})
	}
	return map[string]interface{}{"downloads": out}, nil
}
