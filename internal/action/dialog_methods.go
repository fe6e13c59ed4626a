package action

import (
	"context"

	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/status"
)

func registerDialogMethods(s *Surface) {
	s.register("setDialogPolicy", handleSetDialogPolicy)
}

func handleSetDialogPolicy(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	action := stringParam(params, "action")
	if action != "accept" && action != "dismiss" {
		return status.Result(status.InvalidParameter, "action must be accept or dismiss"), nil
	}
	promptText := stringParam(params, "prompt_text")

	if err := tab.SetDialogPolicy(ctx, action == "accept", promptText); err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	s.Contexts.DialogPolicies.Set(bc.ID, contextmgr.DialogPolicy{Action: action, PromptText: promptText})
	return status.Result(status.OK, "dialog policy set"), nil
}
