package browserengine

import (
	"testing"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
)

func TestFetchDecisionBlocksMatchingRule(t *testing.T) {
	tab := &Tab{}
	tab.SetNetworkRules([]NetworkRule{{ID: "r1", Pattern: "ads.example.com", Action: "block"}})

	action := tab.fetchDecision(&fetch.EventRequestPaused{
		RequestID: "1",
		Request:   &network.Request{URL: "https://ads.example.com/pixel.gif"},
	})

	if _, ok := action.(*fetch.FailRequestParams); !ok {
		t.Errorf("expected a FailRequestParams action for a blocked URL, got %T", action)
	}
}

func TestFetchDecisionAllowsUnmatchedURL(t *testing.T) {
	tab := &Tab{}
	tab.SetNetworkRules([]NetworkRule{{ID: "r1", Pattern: "ads.example.com", Action: "block"}})

	action := tab.fetchDecision(&fetch.EventRequestPaused{
		RequestID: "2",
		Request:   &network.Request{URL: "https://example.com/index.html"},
	})

	if _, ok := action.(*fetch.ContinueRequestParams); !ok {
		t.Errorf("expected a ContinueRequestParams action for an unmatched URL, got %T", action)
	}
}

func TestFetchDecisionNoRulesContinues(t *testing.T) {
	tab := &Tab{}

	action := tab.fetchDecision(&fetch.EventRequestPaused{
		RequestID: "3",
		Request:   &network.Request{URL: "https://example.com/"},
	})

	if _, ok := action.(*fetch.ContinueRequestParams); !ok {
		t.Errorf("expected a ContinueRequestParams action with no rules configured, got %T", action)
	}
}

func TestClearNetworkRules(t *testing.T) {
	tab := &Tab{}
	tab.SetNetworkRules([]NetworkRule{{ID: "r1", Pattern: "x", Action: "block"}})
	tab.ClearNetworkRules()

	action := tab.fetchDecision(&fetch.EventRequestPaused{
		RequestID: "4",
		Request:   &network.Request{URL: "https://x/"},
	})
	if _, ok := action.(*fetch.ContinueRequestParams); !ok {
		t.Errorf("expected rules to be cleared, got %T", action)
	}
}
