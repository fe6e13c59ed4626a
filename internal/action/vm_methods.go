package action

import (
	"context"

	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/status"
	"github.com/owlbrowser/core/internal/vm"
)

func registerVMMethods(s *Surface) {
	s.register("getVirtualMachine", handleGetVirtualMachine)
	s.register("getFingerprintSeeds", handleGetFingerprintSeeds)
	s.register("setFingerprintSeeds", handleSetFingerprintSeeds)
}

func handleGetVirtualMachine(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	identity, err := s.VM.Resolve(bc.ID, vm.Filter{})
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return identity, nil
}

func handleGetFingerprintSeeds(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	seeds, err := s.VM.GetOrCreate(bc.ID)
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return seeds, nil
}

func handleSetFingerprintSeeds(ctx context.Context, s *Surface, bc *contextmgr.BrowserContext, params map[string]interface{}) (interface{}, error) {
	seeds := vm.Seeds{
		Canvas:           int64(floatParam(params, "canvas")),
		WebGL:            int64(floatParam(params, "webgl")),
		Audio:            int64(floatParam(params, "audio")),
		Fonts:            int64(floatParam(params, "fonts")),
		ClientRects:      int64(floatParam(params, "client_rects")),
		Navigator:        int64(floatParam(params, "navigator")),
		Screen:           int64(floatParam(params, "screen")),
		AudioFingerprint: floatParam(params, "audio_fingerprint"),
	}
	s.VM.Set(bc.ID, seeds)

	tab, err := tabOf(bc)
	if err != nil {
		return status.Result(status.OK, "seeds set, no tab attached yet"), nil
	}
	identity, err := s.VM.Resolve(bc.ID, vm.Filter{})
	if err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	if err := tab.ApplyIdentity(ctx, identity); err != nil {
		return status.Result(status.InternalError, err.Error()), nil
	}
	return status.Result(status.OK, "seeds set and applied"), nil
}
