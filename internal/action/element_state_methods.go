package action

import (
	"context"

	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/status"
)

func registerElementStateMethods(s *Surface) {
	s.register("elementExists", handleElementExists)
	s.register("elementVisible", handleElementVisible)
	s.register("getAttribute", handleGetAttribute)
	s.register("getBoundingBox", handleGetBoundingBox)
}

func handleElementExists(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	selector := stringParam(params, "selector")
	exists, err := tab.ElementExists(ctx, selector)
	if err != nil {
		return status.Result(status.InternalError, err.Error()).WithSelector(selector), nil
	}
	return map[string]interface{}{"exists": exists}, nil
}

func handleElementVisible(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	selector := stringParam(params, "selector")
	visible, err := tab.ElementVisible(ctx, selector)
	if err != nil {
		return status.Result(status.InternalError, err.Error()).WithSelector(selector), nil
	}
	return map[string]interface{}{"visible": visible}, nil
}

func handleGetAttribute(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	selector := stringParam(params, "selector")
	name := stringParam(params, "name")
	if selector == "" || name == "" {
		return status.Result(status.InvalidParameter, "selector and name are required"), nil
	}
	value, present, err := tab.GetAttribute(ctx, selector, name)
	if err != nil {
		return status.Result(status.InternalError, err.Error()).WithSelector(selector), nil
	}
	return map[string]interface{}{"value": value, "present": present}, nil
}

func handleGetBoundingBox(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	selector := stringParam(params, "selector")
	x, y, w, h, err := tab.GetBoundingBox(ctx, selector)
	if err != nil {
		return status.Result(status.ElementNotFound, err.Error()).WithSelector(selector), nil
	}
	return map[string]interface{}{"x": x, "y": y, "width": w, "height": h}, nil
}
