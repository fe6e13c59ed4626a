package action

import (
	"context"

	"github.com/owlbrowser/core/internal/browserengine"
	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/status"
)

func registerNetworkRuleMethods(s *Surface) {
	s.register("addNetworkRule", handleAddNetworkRule)
	s.register("clearNetworkRules", handleClearNetworkRules)
}

func handleAddNetworkRule(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	pattern := stringParam(params, "url_pattern")
	action := stringParam(params, "action")
	if pattern == "" || (action != "block" && action != "allow") {
		return status.Result(status.InvalidParameter, "url_pattern and action (block|allow) are required"), nil
	}
	id := stringParam(params, "id")
	if id == "" {
		id = pattern
	}

	rule := contextmgr.NetworkRule{ID: id, URLPattern: pattern, Action: action}
	s.Contexts.NetworkRules.Add(bc.ID, rule)

	stored := s.Contexts.NetworkRules.List(bc.ID)
	rules := make([]browserengine.NetworkRule, 0, len(stored))
	for _, r := range stored {
		rules = append(rules, browserengine.NetworkRule{ID: r.ID, Pattern: r.URLPattern, Action: r.Action})
	}
	tab.SetNetworkRules(rules)

	return status.Result(status.OK, "network rule added"), nil
}

func handleClearNetworkRules(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	s.Contexts.NetworkRules.Clear(bc.ID)
	tab.ClearNetworkRules()
	return status.Result(status.OK, "network rules cleared"), nil
}
