package action

import (
	"context"

	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/status"
)

func registerPageControlMethods(s *Surface) {
	s.register("setViewport", handleSetViewport)
	s.register("evaluate", handleEvaluate)
	s.register("getConsoleLogs", handleGetConsoleLogs)
	s.register("clearConsoleLogs", handleClearConsoleLogs)
}

func handleSetViewport(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	width := int(floatParam(params, "width"))
	height := int(floatParam(params, "height"))
	if width <= 0 || height <= 0 {
		return status.Result(status.InvalidParameter, "width and height are required"), nil
	}
	pixelRatio := floatParam(params, "pixel_ratio")
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	mobile := boolParam(params, "mobile")
	if err := tab.SetViewport(ctx, width, height, pixelRatio, mobile); err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return status.Result(status.OK, "viewport set"), nil
}

func handleEvaluate(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	expr := stringParam(params, "expression")
	if expr == "" {
		return status.Result(status.InvalidParameter, "expression is required"), nil
	}
	result, err := tab.EvaluateJSON(ctx, expr)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return map[string]interface{}{"result": result}, nil
}

func handleGetConsoleLogs(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	logs := tab.ConsoleLogs()
	out := make([]map[string]interface{}, 0, len(logs))
	for _, l := range logs {
		out = append(out, map[string]interface{}{"level": l.Level, "text": l.Text})
	}
	return map[string]interface{}{"logs": out}, nil
}

func handleClearConsoleLogs(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	tab.ClearConsoleLogs()
	return status.Result(status.OK, "console logs cleared"), nil
}
