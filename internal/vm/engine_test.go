package vm

import (
	"strings"
	"testing"
)

func TestGetOrCreateIdempotent(t *testing.T) {
	e := NewEngine()
	s1, err := e.GetOrCreate("ctx_1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	s2, err := e.GetOrCreate("ctx_1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if s1 != s2 {
		t.Errorf("seeds differ across repeated calls for same context: %+v vs %+v", s1, s2)
	}
}

func TestDistinctContextsGetDistinctSeeds(t *testing.T) {
	e := NewEngine()
	s1, _ := e.GetOrCreate("ctx_1")
	s2, _ := e.GetOrCreate("ctx_2")
	if s1 == s2 {
		t.Error("two distinct contexts produced identical seeds (astronomically unlikely)")
	}
}

func TestSetOverridesSeeds(t *testing.T) {
	e := NewEngine()
	want := Seeds{Canvas: 1, WebGL: 2, Audio: 3, Fonts: 4, ClientRects: 5, Navigator: 6, Screen: 7, AudioFingerprint: 124.05}
	e.Set("ctx_1", want)
	got, err := e.GetOrCreate("ctx_1")
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("GetOrCreate() after Set = %+v, want %+v", got, want)
	}
}

func TestClearEvicts(t *testing.T) {
	e := NewEngine()
	s1, _ := e.GetOrCreate("ctx_1")
	e.Clear("ctx_1")
	s2, _ := e.GetOrCreate("ctx_1")
	if s1 == s2 {
		t.Error("expected fresh seeds after Clear, got the same ones")
	}
}

func TestHashesAreDeterministicFromSeeds(t *testing.T) {
	seeds := Seeds{Canvas: 1, WebGL: 2, Audio: 3, Fonts: 4, ClientRects: 5, Navigator: 6, Screen: 7, AudioFingerprint: 124.05}
	h1 := deriveHashes(seeds)
	h2 := deriveHashes(seeds)
	if h1 != h2 {
		t.Errorf("deriveHashes not deterministic: %+v vs %+v", h1, h2)
	}
	for _, h := range []string{h1.CanvasGeometry, h1.CanvasText, h1.WebGLParams, h1.WebGLExtensions, h1.WebGLContext, h1.WebGLExtParams, h1.ShaderPrecisions, h1.Fonts, h1.Plugins} {
		if len(h) != 32 {
			t.Errorf("hash %q has length %d, want 32", h, len(h))
		}
	}
}

func TestResolveConsistencyWindows(t *testing.T) {
	e := NewEngine()
	vm, err := e.Resolve("ctx_1", Filter{OS: "Windows"})
	if err != nil {
		t.Fatal(err)
	}
	if vm.OS.Platform != "Win32" {
		t.Errorf("Platform = %q, want Win32", vm.OS.Platform)
	}
	if vm.ClientHints.SecChUaPlatform != `"Windows"` {
		t.Errorf("SecChUaPlatform = %q, want \"Windows\"", vm.ClientHints.SecChUaPlatform)
	}
	for _, want := range []string{"Windows NT"} {
		if !strings.Contains(vm.Browser.UserAgent, want) {
			t.Errorf("UserAgent %q does not contain %q", vm.Browser.UserAgent, want)
		}
	}
	if !strings.Contains(vm.GPU.Renderer, "ANGLE") || !strings.Contains(vm.GPU.Renderer, "D3D11") {
		t.Errorf("GPU.Renderer = %q, want ANGLE-on-D3D11 shape", vm.GPU.Renderer)
	}
	foundWindowsFont := false
	for _, f := range vm.Fonts {
		if f == "Segoe UI" {
			foundWindowsFont = true
		}
	}
	if !foundWindowsFont {
		t.Error("Windows template fonts missing Segoe UI")
	}
}

func TestResolveIsMemoizedPerContext(t *testing.T) {
	e := NewEngine()
	vm1, _ := e.Resolve("ctx_1", Filter{})
	vm2, _ := e.Resolve("ctx_1", Filter{})
	if vm1 != vm2 {
		t.Error("Resolve should return the same memoized pointer for an unchanged context")
	}
}

func TestInjectionScriptHasDoublePatchGuard(t *testing.T) {
	e := NewEngine()
	vm, _ := e.Resolve("ctx_1", Filter{})
	script := vm.InjectionScript()
	if !strings.Contains(script, "__owlvm_installed__") {
		t.Error("injection script missing double-patch guard symbol")
	}
	if !strings.Contains(script, "[native code]") {
		t.Error("injection script missing native-ness preservation")
	}
}
