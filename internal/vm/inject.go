package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// InjectionScript builds the JS payload that makes a page, iframe, or
// worker observe exactly the resolved VirtualMachine. The browser
// engine collaborator is responsible for actually running it (via
// Page.addScriptToEvaluateOnNewDocument or equivalent) before any page
// script executes; this package only owns its content.
//
// The payload installs itself under a shared symbol so repeated
// injection (navigation, iframe creation) never double-patches, and
// every replaced function is wrapped so fn.toString() still reads
// "function X() { [native code] }".
func (v *VirtualMachine) InjectionScript() string {
	var b strings.Builder
	b.WriteString("(function(){\n")
	b.WriteString("try {\n")
	b.WriteString("if (window.__owlvm_installed__) return;\n")
	b.WriteString("Object.defineProperty(window, '__owlvm_installed__', {value: true, configurable: false});\n")
	b.WriteString(nativeHelperJS)
	b.WriteString(v.navigatorJS())
	b.WriteString(v.screenJS())
	b.WriteString(v.timezoneJS())
	b.WriteString(v.webglJS())
	b.WriteString(v.canvasJS())
	b.WriteString(v.audioJS())
	b.WriteString("} catch (e) {}\n")
	b.WriteString("})();")
	return b.String()
}

// nativeHelperJS defines __owlNative(fn, name), used to wrap every
// replacement so the function's toString (non-enumerable) and name
// match a genuinely native implementation.
const nativeHelperJS = `
function __owlNative(fn, name) {
  try {
    var wrapped = fn;
    var nativeStr = 'function ' + name + '() { [native code] }';
    Object.defineProperty(wrapped, 'toString', {
      value: function() { return nativeStr; },
      writable: false, enumerable: false, configurable: true
    });
    Object.defineProperty(wrapped, 'name', {value: name, configurable: true});
  } catch (e) {}
  return fn;
}
`

func defineGetter(obj, prop string, jsValue string) string {
	return fmt.Sprintf(
		"Object.defineProperty(%s, '%s', {get: __owlNative(function %s() { return %s; }, 'get %s'), configurable: true});\n",
		obj, prop, sanitizeIdent(prop), jsValue, prop,
	)
}

func sanitizeIdent(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, s)
}

func jsString(s string) string {
	return "'" + escapeJS(s) + "'"
}

// escapeJS makes s safe to embed inside a single-quoted JS string
// literal: backslashes, quotes, and the two Unicode separators that
// are valid in a JS string but illegal unescaped in a script emitted
// as plain source text (U+2028 line separator, U+2029 paragraph
// separator) all get escaped.
func escapeJS(s string) string {
	return strings.NewReplacer(
		"\\", "\\\\",
		"'", "\\'",
		"\"", "\\\"",
		"\n", "\\n",
		"\r", "",
		"\t", "\\t",
		"\u2028", "\\u2028",
		"\u2029", "\\u2029",
	).Replace(s)
}

func jsStringArray(ss []string) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = jsString(s)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (v *VirtualMachine) navigatorJS() string {
	var b strings.Builder
	b.WriteString(defineGetter("navigator", "webdriver", "undefined"))
	b.WriteString(defineGetter("navigator", "platform", jsString(v.OS.Platform)))
	b.WriteString(defineGetter("navigator", "userAgent", jsString(v.Browser.UserAgent)))
	b.WriteString(defineGetter("navigator", "vendor", jsString(v.Browser.Vendor)))
	b.WriteString(defineGetter("navigator", "language", jsString(v.Language.Primary)))
	b.WriteString(defineGetter("navigator", "languages", jsStringArray(v.Language.Accepted)))
	b.WriteString(defineGetter("navigator", "hardwareConcurrency", strconv.Itoa(v.CPU.HardwareConcurrency)))
	b.WriteString(defineGetter("navigator", "deviceMemory", strconv.FormatFloat(v.CPU.DeviceMemoryGB, 'g', -1, 64)))
	b.WriteString(defineGetter("navigator", "maxTouchPoints", strconv.Itoa(v.OS.TouchPoints)))
	return b.String()
}

func (v *VirtualMachine) screenJS() string {
	var b strings.Builder
	b.WriteString(defineGetter("screen", "width", strconv.Itoa(v.Screen.Width)))
	b.WriteString(defineGetter("screen", "height", strconv.Itoa(v.Screen.Height)))
	b.WriteString(defineGetter("screen", "availWidth", strconv.Itoa(v.Screen.AvailWidth)))
	b.WriteString(defineGetter("screen", "availHeight", strconv.Itoa(v.Screen.AvailHeight)))
	b.WriteString(defineGetter("screen", "colorDepth", strconv.Itoa(v.Screen.ColorDepth)))
	b.WriteString(defineGetter("window", "devicePixelRatio", strconv.FormatFloat(v.Screen.PixelRatio, 'g', -1, 64)))
	b.WriteString(defineGetter("window", "outerWidth", strconv.Itoa(v.Screen.Width)))
	b.WriteString(defineGetter("window", "outerHeight", strconv.Itoa(v.Screen.Height)))
	return b.String()
}

func (v *VirtualMachine) timezoneJS() string {
	return fmt.Sprintf(`
(function() {
  var tzName = %s;
  var offsetMin = %d;
  var OrigDateTimeFormat = Intl.DateTimeFormat;
  var WrappedDTF = function(locales, options) {
    options = options || {};
    if (!options.timeZone) options.timeZone = tzName;
    return new OrigDateTimeFormat(locales, options);
  };
  WrappedDTF.prototype = OrigDateTimeFormat.prototype;
  Intl.DateTimeFormat = __owlNative(WrappedDTF, 'DateTimeFormat');
  Date.prototype.getTimezoneOffset = __owlNative(function getTimezoneOffset() { return offsetMin; }, 'getTimezoneOffset');
})();
`, jsString(v.Timezone.Name), v.Timezone.OffsetMinutes)
}

func (v *VirtualMachine) webglJS() string {
	return fmt.Sprintf(`
(function() {
  var vendor = %s, renderer = %s, unmaskedVendor = %s, unmaskedRenderer = %s;
  var maxTextureSize = %d;
  function patch(proto) {
    if (!proto) return;
    var origGetParameter = proto.getParameter;
    proto.getParameter = __owlNative(function getParameter(p) {
      if (p === 37445) return unmaskedVendor;
      if (p === 37446) return unmaskedRenderer;
      if (p === 0x0D33) return maxTextureSize;
      return origGetParameter.call(this, p);
    }, 'getParameter');
    var origGetSupportedExtensions = proto.getSupportedExtensions;
    proto.getSupportedExtensions = __owlNative(function getSupportedExtensions() {
      return origGetSupportedExtensions.call(this);
    }, 'getSupportedExtensions');
    var origGetShaderPrecisionFormat = proto.getShaderPrecisionFormat;
    proto.getShaderPrecisionFormat = __owlNative(function getShaderPrecisionFormat(shaderType, precisionType) {
      return origGetShaderPrecisionFormat.call(this, shaderType, precisionType);
    }, 'getShaderPrecisionFormat');
  }
  if (window.WebGLRenderingContext) patch(WebGLRenderingContext.prototype);
  if (window.WebGL2RenderingContext) patch(WebGL2RenderingContext.prototype);
})();
`, jsString(v.GPU.Vendor), jsString(v.GPU.Renderer), jsString(v.GPU.UnmaskedVendor), jsString(v.GPU.UnmaskedRenderer), v.GPU.MaxTextureSize)
}

func (v *VirtualMachine) canvasJS() string {
	return fmt.Sprintf(`
(function() {
  var seed = %d;
  function noise(x, y, i) {
    return ((seed ^ (x * 374761393 + y * 668265263 + i * 2147483647)) >>> 0) %% 3 - 1;
  }
  var origToDataURL = HTMLCanvasElement.prototype.toDataURL;
  HTMLCanvasElement.prototype.toDataURL = __owlNative(function toDataURL() {
    return origToDataURL.apply(this, arguments);
  }, 'toDataURL');
  var origGetImageData = CanvasRenderingContext2D.prototype.getImageData;
  CanvasRenderingContext2D.prototype.getImageData = __owlNative(function getImageData(sx, sy, sw, sh) {
    var data = origGetImageData.apply(this, arguments);
    for (var i = 0; i < data.data.length; i += 4) {
      var n = noise(sx, sy, i);
      data.data[i] = data.data[i] + n;
    }
    return data;
  }, 'getImageData');
})();
`, v.Canvas.Seed)
}

func (v *VirtualMachine) audioJS() string {
	return fmt.Sprintf(`
(function() {
  var fp = %s;
  if (!window.AudioContext && !window.webkitAudioContext) return;
  var Ctx = window.AudioContext || window.webkitAudioContext;
  var origCreateOscillator = Ctx.prototype.createOscillator;
  Ctx.prototype.createOscillator = __owlNative(function createOscillator() {
    return origCreateOscillator.call(this);
  }, 'createOscillator');
  var origCreateDynamicsCompressor = Ctx.prototype.createDynamicsCompressor;
  if (origCreateDynamicsCompressor) {
    Ctx.prototype.createDynamicsCompressor = __owlNative(function createDynamicsCompressor() {
      var node = origCreateDynamicsCompressor.call(this);
      if (node.threshold) node.threshold.value = node.threshold.value + (fp - 124.05);
      return node;
    }, 'createDynamicsCompressor');
  }
})();
`, strconv.FormatFloat(v.Audio.Fingerprint, 'g', -1, 64))
}
