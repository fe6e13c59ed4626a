package vm

// template bundles every field that must agree for one OS/browser/GPU
// combination to read as internally consistent: platform string, user
// agent OS token, sec-ch-ua-platform, GPU renderer shape, and font
// list all come from the same row.
type template struct {
	osName      string
	osVersion   string
	platform    string
	touchPoints int

	browserName    string
	browserVersion string
	uaTemplate     string // %s replaced with browserVersion

	secChUaPlatform        string
	secChUaPlatformVersion string
	secChUaArch            string
	secChUaBitness         string

	gpuVendor           string
	gpuRenderer         string // ANGLE-on-D3D11 for Windows, OpenGL-shaped otherwise
	gpuUnmaskedVendor   string
	gpuUnmaskedRenderer string

	fonts []string

	hwMin, hwMax int // hardware concurrency bounds
	memMin, memMax float64
}

// templates is the built-in VM database. Resolve picks among these by
// seed (optionally narrowed by a Filter) rather than synthesizing
// OS/GPU combinations ad hoc, so every produced profile is guaranteed
// consistent by construction.
var templates = []template{
	{
		osName: "Windows", osVersion: "10", platform: "Win32", touchPoints: 0,
		browserName: "Chrome", browserVersion: "124.0.0.0",
		uaTemplate:             "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36",
		secChUaPlatform:        `"Windows"`,
		secChUaPlatformVersion: `"15.0.0"`,
		secChUaArch:            `"x86"`,
		secChUaBitness:         `"64"`,
		gpuVendor:               "Google Inc. (NVIDIA)",
		gpuRenderer:             "ANGLE (NVIDIA, NVIDIA GeForce GTX 1660 Direct3D11 vs_5_0 ps_5_0, D3D11)",
		gpuUnmaskedVendor:       "NVIDIA Corporation",
		gpuUnmaskedRenderer:     "NVIDIA GeForce GTX 1660/PCIe/SSE2",
		fonts: []string{"Arial", "Helvetica", "Times New Roman", "Courier New", "Verdana", "Georgia", "Segoe UI", "Calibri", "Tahoma", "Trebuchet MS", "Microsoft Sans Serif"},
		hwMin: 4, hwMax: 16, memMin: 8, memMax: 32,
	},
	{
		osName: "Windows", osVersion: "11", platform: "Win32", touchPoints: 0,
		browserName: "Chrome", browserVersion: "124.0.0.0",
		uaTemplate:             "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36",
		secChUaPlatform:        `"Windows"`,
		secChUaPlatformVersion: `"15.0.0"`,
		secChUaArch:            `"x86"`,
		secChUaBitness:         `"64"`,
		gpuVendor:               "Google Inc. (Intel)",
		gpuRenderer:             "ANGLE (Intel, Intel(R) UHD Graphics 630 Direct3D11 vs_5_0 ps_5_0, D3D11)",
		gpuUnmaskedVendor:       "Intel Inc.",
		gpuUnmaskedRenderer:     "Intel(R) UHD Graphics 630",
		fonts: []string{"Arial", "Helvetica", "Times New Roman", "Courier New", "Verdana", "Georgia", "Segoe UI", "Calibri", "Tahoma", "Trebuchet MS", "Microsoft Sans Serif"},
		hwMin: 4, hwMax: 16, memMin: 8, memMax: 32,
	},
	{
		osName: "macOS", osVersion: "14.4", platform: "MacIntel", touchPoints: 0,
		browserName: "Chrome", browserVersion: "124.0.0.0",
		uaTemplate:             "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36",
		secChUaPlatform:        `"macOS"`,
		secChUaPlatformVersion: `"14.4.0"`,
		secChUaArch:            `"arm"`,
		secChUaBitness:         `"64"`,
		gpuVendor:               "Apple Inc.",
		gpuRenderer:             "ANGLE (Apple, Apple M1, OpenGL 4.1)",
		gpuUnmaskedVendor:       "Apple Inc.",
		gpuUnmaskedRenderer:     "Apple M1",
		fonts: []string{"Arial", "Helvetica", "Times New Roman", "Courier New", "Verdana", "Georgia", "Helvetica Neue", "San Francisco", "Lucida Grande", "Menlo", "Monaco"},
		hwMin: 4, hwMax: 10, memMin: 8, memMax: 64,
	},
	{
		osName: "Linux", osVersion: "", platform: "Linux x86_64", touchPoints: 0,
		browserName: "Chrome", browserVersion: "124.0.0.0",
		uaTemplate:             "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36",
		secChUaPlatform:        `"Linux"`,
		secChUaPlatformVersion: `""`,
		secChUaArch:            `"x86"`,
		secChUaBitness:         `"64"`,
		gpuVendor:               "Google Inc. (AMD)",
		gpuRenderer:             "ANGLE (AMD, AMD Radeon RX 580 Series (radeonsi, polaris10, LLVM 15.0.7), OpenGL 4.6)",
		gpuUnmaskedVendor:       "AMD",
		gpuUnmaskedRenderer:     "AMD Radeon RX 580 Series (radeonsi, polaris10, LLVM 15.0.7)",
		fonts: []string{"Arial", "Helvetica", "Times New Roman", "Courier New", "Verdana", "Georgia", "Ubuntu", "Liberation Sans", "DejaVu Sans", "FreeSans"},
		hwMin: 2, hwMax: 16, memMin: 4, memMax: 32,
	},
}

// matching returns the templates consistent with a non-empty Filter,
// or all templates if the filter is empty. Falls back to the full set
// if the filter matches nothing, so resolution never fails outright.
func matching(f Filter) []template {
	if f.OS == "" && f.GPU == "" {
		return templates
	}
	var out []template
	for _, t := range templates {
		if f.OS != "" && t.osName != f.OS {
			continue
		}
		if f.GPU != "" && t.gpuUnmaskedVendor != f.GPU {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return templates
	}
	return out
}

var precisionFormats = map[string][3]int{
	"FLOAT_VERTEX":  {127, 127, 23},
	"FLOAT_FRAGMENT": {127, 127, 23},
	"INT_VERTEX":    {31, 30, 0},
	"INT_FRAGMENT":  {31, 30, 0},
}

var glExtensions = []string{
	"ANGLE_instanced_arrays", "EXT_blend_minmax", "EXT_color_buffer_half_float",
	"EXT_disjoint_timer_query", "EXT_float_blend", "EXT_frag_depth",
	"EXT_shader_texture_lod", "EXT_texture_compression_bptc", "EXT_texture_filter_anisotropic",
	"OES_element_index_uint", "OES_fbo_render_mipmap", "OES_standard_derivatives",
	"OES_texture_float", "OES_texture_float_linear", "OES_texture_half_float",
	"OES_texture_half_float_linear", "OES_vertex_array_object", "WEBGL_color_buffer_float",
	"WEBGL_compressed_texture_s3tc", "WEBGL_debug_renderer_info", "WEBGL_debug_shaders",
	"WEBGL_depth_texture", "WEBGL_draw_buffers", "WEBGL_lose_context",
}
