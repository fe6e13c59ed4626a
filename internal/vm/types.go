// Package vm generates and resolves the synthetic device identity
// ("virtual machine") presented to pages for each browser context:
// stable seeds, derived hashes, and a fully resolved, internally
// consistent profile (OS, browser, GPU, screen, fonts, client hints).
package vm

// Seeds are the seven 64-bit integers plus the audio float that make a
// context's fingerprint reproducible. They are generated once per
// context and cached for its lifetime, or supplied verbatim from a
// persisted profile.
type Seeds struct {
	Canvas           int64   `json:"canvas"`
	WebGL            int64   `json:"webgl"`
	Audio            int64   `json:"audio"`
	Fonts            int64   `json:"fonts"`
	ClientRects      int64   `json:"client_rects"`
	Navigator        int64   `json:"navigator"`
	Screen           int64   `json:"screen"`
	AudioFingerprint float64 `json:"audio_fingerprint"`
}

// Hashes are the nine 32-character lowercase-hex strings derived from
// Seeds, one per fingerprintable surface.
type Hashes struct {
	CanvasGeometry   string `json:"canvas_geometry"`
	CanvasText       string `json:"canvas_text"`
	WebGLParams      string `json:"webgl_params"`
	WebGLExtensions  string `json:"webgl_extensions"`
	WebGLContext     string `json:"webgl_context"`
	WebGLExtParams   string `json:"webgl_ext_params"`
	ShaderPrecisions string `json:"shader_precisions"`
	Fonts            string `json:"fonts"`
	Plugins          string `json:"plugins"`
}

// OS describes the spoofed operating system.
type OS struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Platform    string `json:"platform"`
	TouchPoints int    `json:"touch_points"`
}

// Browser describes the spoofed browser identity.
type Browser struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	UserAgent string   `json:"user_agent"`
	Vendor    string   `json:"vendor"`
	Flags     []string `json:"flags"`
}

// CPU describes the spoofed processor.
type CPU struct {
	HardwareConcurrency int     `json:"hardware_concurrency"`
	DeviceMemoryGB      float64 `json:"device_memory_gb"`
}

// GPU describes the spoofed graphics adapter, including the full
// capability table the spec requires to come from the template
// unchanged (precision formats, extension list, max texture size).
type GPU struct {
	Vendor            string            `json:"vendor"`
	Renderer          string            `json:"renderer"`
	UnmaskedVendor    string            `json:"unmasked_vendor"`
	UnmaskedRenderer  string            `json:"unmasked_renderer"`
	MaxTextureSize    int               `json:"max_texture_size"`
	PrecisionFormats  map[string][3]int `json:"precision_formats"` // name -> [rangeMin, rangeMax, precision]
	Extensions        []string          `json:"extensions"`
}

// Screen describes the spoofed display geometry.
type Screen struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AvailWidth  int     `json:"avail_width"`
	AvailHeight int     `json:"avail_height"`
	ColorDepth  int     `json:"color_depth"`
	PixelRatio  float64 `json:"pixel_ratio"`
}

// Audio describes the spoofed AudioContext environment.
type Audio struct {
	SampleRate  int     `json:"sample_rate"`
	Fingerprint float64 `json:"fingerprint"`
}

// Canvas carries the seed used to derive deterministic canvas noise.
// ApplyNoise is always false; InjectionScript's getImageData patch
// adds seed-derived noise without reading this flag.
type Canvas struct {
	Seed       int64 `json:"seed"`
	ApplyNoise bool  `json:"apply_noise"`
}

// Timezone describes the spoofed timezone.
type Timezone struct {
	Name          string `json:"name"`
	OffsetMinutes int    `json:"offset_minutes"`
}

// Language describes the spoofed Accept-Language profile.
type Language struct {
	Primary  string   `json:"primary"`
	Accepted []string `json:"accepted"`
}

// Network describes spoofed network-information-API values.
type Network struct {
	EffectiveType string `json:"effective_type"`
	DownlinkMbps  float64 `json:"downlink_mbps"`
	RTTMs         int    `json:"rtt_ms"`
	SaveData      bool   `json:"save_data"`
}

// Media describes spoofed media-device-enumeration counts.
type Media struct {
	AudioInputs  int `json:"audio_inputs"`
	AudioOutputs int `json:"audio_outputs"`
	VideoInputs  int `json:"video_inputs"`
}

// ClientHints carries the Sec-CH-UA-* family, required to agree with
// Browser.UserAgent and OS.Platform.
type ClientHints struct {
	SecChUa                string `json:"sec_ch_ua"`
	SecChUaMobile          string `json:"sec_ch_ua_mobile"`
	SecChUaPlatform        string `json:"sec_ch_ua_platform"`
	SecChUaPlatformVersion string `json:"sec_ch_ua_platform_version"`
	SecChUaFullVersionList string `json:"sec_ch_ua_full_version_list"`
	SecChUaArch            string `json:"sec_ch_ua_arch"`
	SecChUaBitness         string `json:"sec_ch_ua_bitness"`
	SecChUaModel           string `json:"sec_ch_ua_model"`
}

// Storage describes spoofed StorageManager quota estimates.
type Storage struct {
	QuotaMB int `json:"quota_mb"`
}

// Battery describes spoofed BatteryManager readings.
type Battery struct {
	Charging bool    `json:"charging"`
	Level    float64 `json:"level"`
}

// VirtualMachine is the fully resolved, internally consistent
// synthetic identity for one context, plus the seeds and hashes it was
// derived from.
type VirtualMachine struct {
	Seeds  Seeds  `json:"seeds"`
	Hashes Hashes `json:"hashes"`

	OS          OS          `json:"os"`
	Browser     Browser     `json:"browser"`
	CPU         CPU         `json:"cpu"`
	GPU         GPU         `json:"gpu"`
	Screen      Screen      `json:"screen"`
	Audio       Audio       `json:"audio"`
	Canvas      Canvas      `json:"canvas"`
	Fonts       []string    `json:"fonts"`
	Timezone    Timezone    `json:"timezone"`
	Language    Language    `json:"language"`
	Network     Network     `json:"network"`
	Media       Media       `json:"media"`
	Permissions map[string]string `json:"permissions"`
	ClientHints ClientHints `json:"client_hints"`
	Storage     Storage     `json:"storage"`
	Battery     Battery     `json:"battery"`
}

// Filter narrows template selection; empty fields mean "any".
type Filter struct {
	OS  string
	GPU string
}
