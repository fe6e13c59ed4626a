package action

import (
	"context"

	"github.com/owlbrowser/core/internal/browserengine"
	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/status"
	"github.com/owlbrowser/core/internal/verifier"
)

func registerInteractionMethods(s *Surface) {
	s.register("click", handleClick)
	s.register("doubleClick", handleDoubleClick)
	s.register("rightClick", handleRightClick)
	s.register("hover", handleHover)
	s.register("mouseMove", handleMouseMove)
	s.register("type", handleType)
	s.register("clearInput", handleClearInput)
	s.register("selectAll", handleSelectAll)
	s.register("pick", handlePick)
	s.register("focus", handleFocus)
	s.register("blur", handleBlur)
	s.register("pressKey", handlePressKey)
	s.register("keyboardCombo", handleKeyboardCombo)
	s.register("submitForm", handleSubmitForm)
	s.register("dragDrop", handleDragDrop)
	s.register("html5DragDrop", handleDragDrop)
	s.register("uploadFile", handleUploadFile)
	s.register("scrollTo", handleScrollTo)
	s.register("scrollBy", handleScrollBy)
	s.register("scrollIntoView", handleScrollIntoView)
}

// resolveTarget runs the shared selector-resolution + pre-check
// pipeline every interaction handler needs, returning the resolved
// selector/rect or a terminal ActionResult to return as-is.
func resolveTarget(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (tabHandle, string, verifier.Rect, *status.ActionResult) {
	raw := stringParam(params, "selector")
	if raw == "" {
		r := status.Result(status.InvalidParameter, "selector is required")
		return tabHandle{}, "", verifier.Rect{}, &r
	}
	tab, err := tabOf(bc)
	if err != nil {
		r := status.Result(status.BrowserNotReady, err.Error())
		return tabHandle{}, "", verifier.Rect{}, &r
	}
	v := verifier.New(tab, s.VerifyPostTimeout, s.VerifyNetworkIdleWin, s.VerifyDOMStableWin)
	level, _ := verifier.ParseLevel(stringParam(params, "verification_level"))

	selector, rect, isCoord, err := verifier.ResolveSelector(ctx, raw, bc.ID, s.Finder)
	if err != nil {
		r := status.Result(status.ElementNotFound, err.Error()).WithSelector(raw)
		return tabHandle{}, "", verifier.Rect{}, &r
	}

	rect, preErr := v.PreCheck(ctx, level, selector, isCoord, rect)
	if preErr != nil {
		return tabHandle{}, "", verifier.Rect{}, preErr
	}
	return tabHandle{tab: tab, verifier: v, level: level}, selector, rect, nil
}

// tabHandle bundles the collaborators a post-check needs alongside
// the resolved target, avoiding a second tabOf/verifier.New per call.
type tabHandle struct {
	tab      *browserengine.Tab
	verifier *verifier.Verifier
	level    verifier.Level
}

func handleClick(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	h, selector, rect, errResult := resolveTarget(ctx, s, bc, params)
	if errResult != nil {
		return *errResult, nil
	}
	if err := h.tab.Click(ctx, rect.X, rect.Y); err != nil {
		return status.Result(status.ClickFailed, err.Error()).WithSelector(selector), nil
	}
	return h.verifier.PostCheckClick(ctx, selector, h.level), nil
}

func handleDoubleClick(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	h, selector, rect, errResult := resolveTarget(ctx, s, bc, params)
	if errResult != nil {
		return *errResult, nil
	}
	if err := h.tab.DoubleClick(ctx, rect.X, rect.Y); err != nil {
		return status.Result(status.ClickFailed, err.Error()).WithSelector(selector), nil
	}
	return h.verifier.PostCheckClick(ctx, selector, h.level), nil
}

func handleRightClick(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	h, selector, rect, errResult := resolveTarget(ctx, s, bc, params)
	if errResult != nil {
		return *errResult, nil
	}
	if err := h.tab.RightClick(ctx, rect.X, rect.Y); err != nil {
		return status.Result(status.ClickFailed, err.Error()).WithSelector(selector), nil
	}
	return h.verifier.PostCheckClick(ctx, selector, h.level), nil
}

func handleHover(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	selector := stringParam(params, "selector")
	if err := tab.Hover(ctx, selector); err != nil {
		return status.Result(status.ElementNotInteractable, err.Error()).WithSelector(selector), nil
	}
	return status.Result(status.OK, "hover dispatched").WithSelector(selector), nil
}

func handleMouseMove(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	x, y := floatParam(params, "x"), floatParam(params, "y")
	if err := tab.MouseMove(ctx, x, y); err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return status.Result(status.OK, "mouse moved"), nil
}

func handleType(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	h, selector, _, errResult := resolveTarget(ctx, s, bc, params)
	if errResult != nil {
		return *errResult, nil
	}
	text := stringParam(params, "text")
	if err := h.tab.TypeText(ctx, selector, text); err != nil {
		return status.Result(status.TypeFailed, err.Error()).WithSelector(selector), nil
	}
	if h.level == verifier.LevelNone {
		return status.Result(status.OK, "typed").WithSelector(selector), nil
	}
	actual, err := h.tab.FieldValue(ctx, selector)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return verifier.PostCheckType(text, actual).WithSelector(selector), nil
}

func handleClearInput(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	h, selector, _, errResult := resolveTarget(ctx, s, bc, params)
	if errResult != nil {
		return *errResult, nil
	}
	if err := h.tab.ClearField(ctx, selector); err != nil {
		return status.Result(status.ClearFailed, err.Error()).WithSelector(selector), nil
	}
	actual, err := h.tab.FieldValue(ctx, selector)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return verifier.PostCheckClear(len(actual)).WithSelector(selector), nil
}

func handleSelectAll(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	selector := stringParam(params, "selector")
	if err := tab.SelectAll(ctx, selector); err != nil {
		return status.Result(status.InternalError, err.Error()).WithSelector(selector), nil
	}
	return status.Result(status.OK, "selected all").WithSelector(selector), nil
}

func handlePick(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	h, selector, _, errResult := resolveTarget(ctx, s, bc, params)
	if errResult != nil {
		return *errResult, nil
	}
	value := stringParam(params, "value")
	if err := h.tab.Pick(ctx, selector, value); err != nil {
		return status.Result(status.PickFailed, err.Error()).WithSelector(selector), nil
	}
	actual, options, err := h.tab.SelectedValue(ctx, selector)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return verifier.PostCheckPick(value, actual, options).WithSelector(selector), nil
}

func handleFocus(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	h, selector, _, errResult := resolveTarget(ctx, s, bc, params)
	if errResult != nil {
		return *errResult, nil
	}
	if err := h.tab.Focus(ctx, selector); err != nil {
		return status.Result(status.FocusFailed, err.Error()).WithSelector(selector), nil
	}
	if h.level == verifier.LevelNone {
		return status.Result(status.OK, "focused").WithSelector(selector), nil
	}
	matches, err := h.tab.ActiveElementMatches(ctx, selector)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return verifier.PostCheckFocus(matches).WithSelector(selector), nil
}

func handleBlur(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	h, selector, _, errResult := resolveTarget(ctx, s, bc, params)
	if errResult != nil {
		return *errResult, nil
	}
	if err := h.tab.Blur(ctx, selector); err != nil {
		return status.Result(status.BlurFailed, err.Error()).WithSelector(selector), nil
	}
	if h.level == verifier.LevelNone {
		return status.Result(status.OK, "blurred").WithSelector(selector), nil
	}
	stillFocused, err := h.tab.ActiveElementMatches(ctx, selector)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return verifier.PostCheckBlur(stillFocused).WithSelector(selector), nil
}

func handlePressKey(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	key := stringParam(params, "key")
	if key == "" {
		return status.Result(status.InvalidParameter, "key is required"), nil
	}
	if err := tab.KeyboardCombo(ctx, key); err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return status.Result(status.OK, "key dispatched"), nil
}

func handleKeyboardCombo(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	combo := stringParam(params, "combo")
	if combo == "" {
		return status.Result(status.InvalidParameter, "combo is required"), nil
	}
	if err := tab.KeyboardCombo(ctx, combo); err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return status.Result(status.OK, "combo dispatched"), nil
}

func handleSubmitForm(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	h, selector, _, errResult := resolveTarget(ctx, s, bc, params)
	if errResult != nil {
		return *errResult, nil
	}
	if err := h.tab.Submit(ctx, selector); err != nil {
		return status.Result(status.InternalError, err.Error()).WithSelector(selector), nil
	}
	return h.verifier.PostCheckClick(ctx, selector, h.level), nil
}

func handleDragDrop(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	fromX, fromY := floatParam(params, "from_x"), floatParam(params, "from_y")
	toX, toY := floatParam(params, "to_x"), floatParam(params, "to_y")
	if err := tab.DragDrop(ctx, fromX, fromY, toX, toY); err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return status.Result(status.OK, "drag dropped"), nil
}

func handleUploadFile(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	selector := stringParam(params, "selector")
	paths, ok := params["paths"].([]interface{})
	if !ok || len(paths) == 0 {
		return status.Result(status.InvalidParameter, "paths is required"), nil
	}
	strPaths := make([]string, 0, len(paths))
	for _, p := range paths {
		if sp, ok := p.(string); ok {
			strPaths = append(strPaths, sp)
		}
	}
	if err := tab.UploadFile(ctx, selector, strPaths); err != nil {
		return status.Result(status.UploadFailed, err.Error()).WithSelector(selector), nil
	}
	return status.Result(status.OK, "uploaded").WithSelector(selector), nil
}

func handleScrollTo(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	x, y := floatParam(params, "x"), floatParam(params, "y")
	if err := tab.ScrollTo(ctx, x, y); err != nil {
		return status.Result(status.ScrollFailed, err.Error()), nil
	}
	gotX, gotY, err := tab.ScrollPosition(ctx)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return verifier.PostCheckScroll(x, y, gotX, gotY), nil
}

func handleScrollBy(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	dx, dy := floatParam(params, "dx"), floatParam(params, "dy")
	if err := tab.ScrollBy(ctx, dx, dy); err != nil {
		return status.Result(status.ScrollFailed, err.Error()), nil
	}
	return status.Result(status.OK, "scrolled"), nil
}

func handleScrollIntoView(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.BrowserNotReady, err.Error()), nil
	}
	selector := stringParam(params, "selector")
	if selector == "" {
		return status.Result(status.InvalidParameter, "selector is required"), nil
	}
	if err := tab.ScrollIntoView(ctx, selector); err != nil {
		return status.Result(status.ScrollFailed, err.Error()).WithSelector(selector), nil
	}
	return status.Result(status.OK, "scrolled into view").WithSelector(selector), nil
}
