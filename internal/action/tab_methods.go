package action

import (
	"context"

	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/status"
)

func registerTabMethods(s *Surface) {
	s.register("listTabs", handleListTabs)
	s.register("switchTab", handleSwitchTab)
	s.register("closeTab", handleCloseTab)
}

// handleListTabs reports the context's tracked tabs. A context that
// never explicitly registered any tab bookkeeping still has exactly
// one: the tab bound to it at creation.
func handleListTabs(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tabs := s.Contexts.Tabs.List(bc.ID)
	if len(tabs) == 0 {
		url := ""
		if tab, err := tabOf(bc); err == nil {
			url, _ = tab.CurrentURL(ctx)
		}
		tabs = []contextmgr.Tab{{ID: "main", URL: url, Active: true}}
	}
	out := make([]map[string]interface{}, 0, len(tabs))
	for _, t := range tabs {
		out = append(out, map[string]interface{}{"id": t.ID, "url": t.URL, "active": t.Active})
	}
	return map[string]interface{}{"tabs": out}, nil
}

// handleSwitchTab marks one tracked tab active and every other
// inactive. The context's attached browser engine still has a single
// chromedp tab; this is bookkeeping for the tab set the context
// reports, not a CDP-level target switch.
func handleSwitchTab(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tabID := stringParam(params, "tab_id")
	if tabID == "" {
		return status.Result(status.InvalidParameter, "tab_id is required"), nil
	}
	tabs := s.Contexts.Tabs.List(bc.ID)
	found := false
	updated := make([]contextmgr.Tab, 0, len(tabs))
	for _, t := range tabs {
		t.Active = t.ID == tabID
		if t.Active {
			found = true
		}
		updated = append(updated, t)
	}
	if !found {
		return status.Result(status.ElementNotFound, "no such tab: "+tabID), nil
	}
	s.Contexts.Tabs.Clear(bc.ID)
	for _, t := range updated {
		s.Contexts.Tabs.Add(bc.ID, t)
	}
	return status.Result(status.OK, "tab switched"), nil
}

// handleCloseTab removes a tracked tab entry. Closing the context's
// last tab tears down its attached browser engine, mirroring
// closeContext for the single-tab case.
func handleCloseTab(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tabID := stringParam(params, "tab_id")
	if tabID == "" {
		return status.Result(status.InvalidParameter, "tab_id is required"), nil
	}
	tabs := s.Contexts.Tabs.List(bc.ID)
	remaining := make([]contextmgr.Tab, 0, len(tabs))
	found := false
	for _, t := range tabs {
		if t.ID == tabID {
			found = true
			continue
		}
		remaining = append(remaining, t)
	}
	if !found && tabID != "main" {
		return status.Result(status.ElementNotFound, "no such tab: "+tabID), nil
	}
	s.Contexts.Tabs.Clear(bc.ID)
	for _, t := range remaining {
		s.Contexts.Tabs.Add(bc.ID, t)
	}
	if len(remaining) == 0 {
		if tab, err := tabOf(bc); err == nil {
			_ = tab.Close()
			bc.SetHandle(nil)
		}
	}
	return status.Result(status.OK, "tab closed"), nil
}
