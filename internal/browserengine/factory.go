package browserengine

import "github.com/owlbrowser/core/internal/contextmgr"

// Launch starts a Chrome tab for a newly created browser context,
// translating the pool's creation options into launch flags. The
// action dispatcher calls this once per contextmgr.CreateContext and
// attaches the result via BrowserContext.SetHandle.
func Launch(contextID string, headless bool, opts contextmgr.CreateOpts) (*Tab, error) {
	return NewTab(contextID, LaunchConfig{
		Headless: headless,
		ProxyURL: opts.ProxyURL,
	})
}
