package vm

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
)

// entry is one context's cached fingerprint state.
type entry struct {
	seeds  Seeds
	hashes Hashes
	vm     *VirtualMachine // resolved lazily, memoized per (seeds) — cleared on Set
}

// Engine produces and caches a Fingerprint for each context id. All
// methods are safe for concurrent use; critical sections are brief per
// the concurrency model's "single mutex, brief critical sections" rule
// for singleton caches.
type Engine struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewEngine returns an empty Engine.
func NewEngine() *Engine {
	return &Engine{entries: make(map[string]*entry)}
}

// GetOrCreate is idempotent: the first call for a context id generates
// fresh seeds; subsequent calls return the same seeds until Clear or
// Set.
func (e *Engine) GetOrCreate(contextID string) (Seeds, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ent, ok := e.entries[contextID]; ok {
		return ent.seeds, nil
	}

	seeds, err := generateSeeds()
	if err != nil {
		return Seeds{}, fmt.Errorf("generate seeds for %s: %w", contextID, err)
	}
	e.entries[contextID] = &entry{seeds: seeds, hashes: deriveHashes(seeds)}
	return seeds, nil
}

// Set overrides the cached (or to-be-generated) seeds for a context,
// used when loading a persisted profile. Any previously resolved VM
// for this context is invalidated.
func (e *Engine) Set(contextID string, seeds Seeds) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries[contextID] = &entry{seeds: seeds, hashes: deriveHashes(seeds)}
}

// Clear evicts a context's cached fingerprint entirely.
func (e *Engine) Clear(contextID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.entries, contextID)
}

// Hashes returns the cached hash set for a context, generating seeds
// first if none exist yet.
func (e *Engine) Hashes(contextID string) (Hashes, error) {
	if _, err := e.GetOrCreate(contextID); err != nil {
		return Hashes{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.entries[contextID].hashes, nil
}

// Resolve produces (and memoizes) the fully resolved VirtualMachine
// for a context, generating seeds first if necessary. The filter
// narrows template selection by OS name / unmasked GPU vendor.
func (e *Engine) Resolve(contextID string, filter Filter) (*VirtualMachine, error) {
	if _, err := e.GetOrCreate(contextID); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	ent := e.entries[contextID]
	if ent.vm != nil {
		return ent.vm, nil
	}

	vm := resolve(ent.seeds, ent.hashes, filter)
	ent.vm = vm
	return vm, nil
}

// generateSeeds draws fresh, unpredictable-across-runs seeds from a
// cryptographic source. Realism only requires the bit pattern look
// like a genuine 64-bit draw; crypto/rand supplies that directly
// rather than seeding a weaker PRNG.
func generateSeeds() (Seeds, error) {
	var buf [8 * 7]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return Seeds{}, err
	}
	next := func(i int) int64 {
		return int64(binary.BigEndian.Uint64(buf[i*8 : i*8+8]))
	}

	var fbuf [8]byte
	if _, err := rand.Read(fbuf[:]); err != nil {
		return Seeds{}, err
	}
	// Map a uniform 64-bit draw into [124.0, 124.1).
	frac := float64(binary.BigEndian.Uint64(fbuf[:])%100000) / 100000.0
	audio := 124.0 + frac*0.1

	return Seeds{
		Canvas:           next(0),
		WebGL:            next(1),
		Audio:            next(2),
		Fonts:            next(3),
		ClientRects:      next(4),
		Navigator:        next(5),
		Screen:           next(6),
		AudioFingerprint: audio,
	}, nil
}

// deriveHashes turns Seeds into the nine MD5-style hex-32 hashes.
// Each hash is the MD5 digest of a surface-specific label folded with
// its driving seed, so the same seeds always produce the same hashes
// (required for the save/load round-trip) while distinct seeds
// produce uncorrelated hashes per surface.
func deriveHashes(s Seeds) Hashes {
	h := func(label string, seed int64) string {
		sum := md5.Sum([]byte(fmt.Sprintf("%s:%d", label, seed)))
		return hex.EncodeToString(sum[:])
	}
	return Hashes{
		CanvasGeometry:   h("canvas-geometry", s.Canvas),
		CanvasText:       h("canvas-text", s.Canvas+1),
		WebGLParams:      h("webgl-params", s.WebGL),
		WebGLExtensions:  h("webgl-extensions", s.WebGL+1),
		WebGLContext:     h("webgl-context", s.WebGL+2),
		WebGLExtParams:   h("webgl-ext-params", s.WebGL+3),
		ShaderPrecisions: h("shader-precisions", s.WebGL+4),
		Fonts:            h("fonts", s.Fonts),
		Plugins:          h("plugins", s.Navigator),
	}
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

var timezones = []Timezone{
	{Name: "America/New_York", OffsetMinutes: -240},
	{Name: "Europe/London", OffsetMinutes: 60},
	{Name: "Europe/Paris", OffsetMinutes: 120},
	{Name: "Europe/Istanbul", OffsetMinutes: 180},
	{Name: "Asia/Tokyo", OffsetMinutes: 540},
}

var languages = []Language{
	{Primary: "en-US", Accepted: []string{"en-US", "en"}},
	{Primary: "en-GB", Accepted: []string{"en-GB", "en"}},
	{Primary: "de-DE", Accepted: []string{"de-DE", "de", "en"}},
	{Primary: "fr-FR", Accepted: []string{"fr-FR", "fr", "en"}},
}

// resolve deterministically maps seeds onto one template plus
// seed-driven but internally consistent screen/timezone/language
// choices. Every GPU/font/UA/platform field comes from a single
// template row, so the spec's cross-field consistency invariant holds
// by construction rather than by post-hoc validation.
func resolve(seeds Seeds, hashes Hashes, filter Filter) *VirtualMachine {
	candidates := matching(filter)
	t := candidates[absInt64(seeds.Navigator)%int64(len(candidates))]
	tz := timezones[absInt64(seeds.ClientRects)%int64(len(timezones))]
	lang := languages[absInt64(seeds.Fonts)%int64(len(languages))]

	screenWidth := 1366 + int(absInt64(seeds.Screen)%600)
	screenHeight := 768 + int(absInt64(seeds.Screen>>8)%400)
	pixelRatios := []float64{1.0, 1.25, 1.5, 2.0}
	pixelRatio := pixelRatios[absInt64(seeds.Screen>>16)%int64(len(pixelRatios))]

	hwChoices := []int{2, 4, 6, 8, 12, 16}
	hw := clampChoice(hwChoices, t.hwMin, t.hwMax, seeds.Navigator)
	memChoices := []float64{2, 4, 8, 16, 32, 64}
	mem := clampFloatChoice(memChoices, t.memMin, t.memMax, seeds.Navigator>>4)

	ua := fmt.Sprintf(t.uaTemplate, t.browserVersion)

	return &VirtualMachine{
		Seeds:  seeds,
		Hashes: hashes,
		OS: OS{
			Name:        t.osName,
			Version:     t.osVersion,
			Platform:    t.platform,
			TouchPoints: t.touchPoints,
		},
		Browser: Browser{
			Name:      t.browserName,
			Version:   t.browserVersion,
			UserAgent: ua,
			Vendor:    "Google Inc.",
			Flags:     nil,
		},
		CPU: CPU{HardwareConcurrency: hw, DeviceMemoryGB: mem},
		GPU: GPU{
			Vendor:           t.gpuVendor,
			Renderer:         t.gpuRenderer,
			UnmaskedVendor:   t.gpuUnmaskedVendor,
			UnmaskedRenderer: t.gpuUnmaskedRenderer,
			MaxTextureSize:   16384,
			PrecisionFormats: precisionFormats,
			Extensions:       glExtensions,
		},
		Screen: Screen{
			Width:       screenWidth,
			Height:      screenHeight,
			AvailWidth:  screenWidth - 10,
			AvailHeight: screenHeight - 80,
			ColorDepth:  24,
			PixelRatio:  pixelRatio,
		},
		Audio: Audio{SampleRate: 44100, Fingerprint: seeds.AudioFingerprint},
		Canvas: Canvas{
			Seed:       seeds.Canvas,
			ApplyNoise: false,
		},
		Fonts:    t.fonts,
		Timezone: tz,
		Language: lang,
		Network: Network{
			EffectiveType: "4g",
			DownlinkMbps:  10,
			RTTMs:         50,
			SaveData:      false,
		},
		Media: Media{AudioInputs: 1, AudioOutputs: 1, VideoInputs: 1},
		Permissions: map[string]string{
			"geolocation": "prompt",
			"notifications": "prompt",
			"camera": "prompt",
			"microphone": "prompt",
		},
		ClientHints: ClientHints{
			SecChUa:                fmt.Sprintf(`"Not_A Brand";v="8", "Chromium";v="%s", "%s";v="%s"`, majorVersion(t.browserVersion), t.browserName, majorVersion(t.browserVersion)),
			SecChUaMobile:          "?0",
			SecChUaPlatform:        t.secChUaPlatform,
			SecChUaPlatformVersion: t.secChUaPlatformVersion,
			SecChUaFullVersionList: fmt.Sprintf(`"Not_A Brand";v="8.0.0.0", "Chromium";v="%s", "%s";v="%s"`, t.browserVersion, t.browserName, t.browserVersion),
			SecChUaArch:            t.secChUaArch,
			SecChUaBitness:         t.secChUaBitness,
			SecChUaModel:           `""`,
		},
		Storage: Storage{QuotaMB: 1024},
		Battery: Battery{Charging: true, Level: 1.0},
	}
}

func majorVersion(full string) string {
	for i, c := range full {
		if c == '.' {
			return full[:i]
		}
	}
	return full
}

func clampChoice(choices []int, min, max int, seed int64) int {
	idx := absInt64(seed) % int64(len(choices))
	v := choices[idx]
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampFloatChoice(choices []float64, min, max float64, seed int64) float64 {
	idx := absInt64(seed) % int64(len(choices))
	v := choices[idx]
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
