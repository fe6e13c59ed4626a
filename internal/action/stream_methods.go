package action

import (
	"context"
	"time"

	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/status"
)

func registerStreamMethods(s *Surface) {
	s.register("startLiveStream", handleStartLiveStream)
	s.register("stopLiveStream", handleStopLiveStream)
}

const defaultStreamInterval = 200 * time.Millisecond

// handleStartLiveStream begins a per-context capture loop that feeds
// rendered frames into the frame cache on a timer; the frame cache's
// OnPut callback is what actually fans frames out to subscribed
// websocket clients (wired where the live-stream hub's HTTP listener
// is constructed). The IPC command only has a context id to work
// with, never a websocket connection, so toggling capture is the
// whole of this handler's job.
func handleStartLiveStream(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}

	interval := timeoutParam(params, defaultStreamInterval)

	s.streamMu.Lock()
	if _, running := s.streamers[bc.ID]; running {
		s.streamMu.Unlock()
		return status.Result(status.OK, "already streaming"), nil
	}
	streamCtx, cancel := context.WithCancel(context.Background())
	s.streamers[bc.ID] = cancel
	s.streamMu.Unlock()

	go s.captureLoop(streamCtx, bc.ID, tab, interval)

	if s.Metrics != nil {
		s.Metrics.LiveStreamSubscribers.Inc()
	}
	return status.Result(status.OK, "live stream started"), nil
}

func handleStopLiveStream(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	s.streamMu.Lock()
	cancel, running := s.streamers[bc.ID]
	delete(s.streamers, bc.ID)
	s.streamMu.Unlock()
	if !running {
		return status.Result(status.OK, "not streaming"), nil
	}
	cancel()
	if s.Metrics != nil {
		s.Metrics.LiveStreamSubscribers.Dec()
	}
	return status.Result(status.OK, "live stream stopped"), nil
}

func (s *Surface) captureLoop(ctx context.Context, contextID string, tab interface {
	Screenshot(context.Context) ([]byte, error)
}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			png, err := tab.Screenshot(ctx)
			if err != nil {
				continue
			}
			if s.Frames != nil {
				s.Frames.Put(contextID, png)
			}
		}
	}
}
