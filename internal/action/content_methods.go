package action

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/status"
)

func registerContentMethods(s *Surface) {
	s.register("extractText", handleExtractText)
	s.register("getHTML", handleGetHTML)
	s.register("getMarkdown", handleGetMarkdown)
	s.register("extractJSON", handleExtractJSON)
	s.register("detectSite", handleDetectSite)
	s.register("getPageInfo", handleGetPageInfo)
	s.register("screenshot", handleScreenshot)
	s.register("highlight", handleHighlight)
}

func htmlAndDoc(ctx context.Context, bc *contextmgr.BrowserContext) (string, *goquery.Document, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return "", nil, err
	}
	html, err := tab.OuterHTML(ctx)
	if err != nil {
		return "", nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", nil, fmt.Errorf("parse html: %w", err)
	}
	return html, doc, nil
}

func handleExtractText(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	_, doc, err := htmlAndDoc(ctx, bc)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	selector := stringParam(params, "selector")
	sel := doc.Selection
	if selector != "" {
		sel = doc.Find(selector)
		if sel.Length() == 0 {
			return status.Result(status.ElementNotFound, "no elements matched selector").WithSelector(selector), nil
		}
	}
	text := strings.TrimSpace(sel.Text())
	return map[string]interface{}{"text": text}, nil
}

func handleGetHTML(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	html, doc, err := htmlAndDoc(ctx, bc)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	selector := stringParam(params, "selector")
	if selector == "" {
		return map[string]interface{}{"html": html}, nil
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return status.Result(status.ElementNotFound, "no elements matched selector").WithSelector(selector), nil
	}
	out, err := sel.First().Html()
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return map[string]interface{}{"html": out}, nil
}

// getMarkdown renders a rough markdown approximation of the DOM:
// headings become #-prefixed lines, links become [text](href),
// everything else is flattened text. Good enough for LLM-facing
// content summaries without pulling in a full HTML-to-markdown
// dependency the pack doesn't otherwise exercise.
func handleGetMarkdown(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	_, doc, err := htmlAndDoc(ctx, bc)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	var b strings.Builder
	doc.Find("h1,h2,h3,h4,h5,h6,p,a,li").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		switch goquery.NodeName(sel) {
		case "h1":
			fmt.Fprintf(&b, "# %s\n\n", text)
		case "h2":
			fmt.Fprintf(&b, "## %s\n\n", text)
		case "h3", "h4", "h5", "h6":
			fmt.Fprintf(&b, "### %s\n\n", text)
		case "a":
			href, _ := sel.Attr("href")
			if href != "" {
				fmt.Fprintf(&b, "[%s](%s)\n", text, href)
			} else {
				b.WriteString(text + "\n")
			}
		case "li":
			fmt.Fprintf(&b, "- %s\n", text)
		default:
			b.WriteString(text + "\n\n")
		}
	})
	return map[string]interface{}{"markdown": strings.TrimSpace(b.String())}, nil
}

func handleExtractJSON(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	_, doc, err := htmlAndDoc(ctx, bc)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	selector := stringParam(params, "selector")
	if selector == "" {
		selector = `script[type="application/ld+json"]`
	}
	var blocks []interface{}
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		var v interface{}
		if json.Unmarshal([]byte(sel.Text()), &v) == nil {
			blocks = append(blocks, v)
		}
	})
	return map[string]interface{}{"blocks": blocks}, nil
}

func handleDetectSite(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	html, err := tab.OuterHTML(ctx)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	httpStatus := int(floatParam(params, "http_status"))
	if httpStatus == 0 {
		httpStatus = 200
	}
	if result := detectOutcome(httpStatus, html); result != nil {
		return *result, nil
	}
	return status.Result(status.OK, "no challenge detected"), nil
}

func handleGetPageInfo(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	url, err := tab.CurrentURL(ctx)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	html, err := tab.OuterHTML(ctx)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	return map[string]interface{}{
		"url":        url,
		"title":      title,
		"html_bytes": len(html),
	}, nil
}

func handleScreenshot(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	png, err := tab.Screenshot(ctx)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	if s.Frames != nil {
		s.Frames.Put(bc.ID, png)
	}
	return map[string]interface{}{"png_base64": base64.StdEncoding.EncodeToString(png)}, nil
}

const highlightJSTemplate = `(() => {
  const el = document.querySelector(%q);
  if (!el) return false;
  el.style.outline = '3px solid #ff3366';
  el.style.outlineOffset = '2px';
  return true;
})()`

func handleHighlight(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	selector := stringParam(params, "selector")
	if selector == "" {
		return status.Result(status.InvalidParameter, "selector is required"), nil
	}
	found, err := tab.EvaluateBool(ctx, fmt.Sprintf(highlightJSTemplate, selector))
	if err != nil {
		return status.Result(status.InternalError, err.Error()).WithSelector(selector), nil
	}
	if !found {
		return status.Result(status.ElementNotFound, "no element to highlight").WithSelector(selector), nil
	}
	return status.Result(status.OK, "highlighted").WithSelector(selector), nil
}
