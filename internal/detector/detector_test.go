package detector

import (
	"strings"
	"testing"

	"github.com/owlbrowser/core/internal/status"
)

func TestDetectCaptcha(t *testing.T) {
	info := Detect(200, `<div class="g-recaptcha" data-sitekey="..."></div>`)
	if !info.Detected || info.Code != status.CaptchaDetected {
		t.Errorf("info = %+v, want captcha_detected", info)
	}
}

func TestDetectCloudflareBlock(t *testing.T) {
	info := Detect(403, `<html><head><title>Attention Required! | Cloudflare</title></head></html>`)
	if !info.Detected || info.Code != status.FirewallDetected {
		t.Errorf("info = %+v, want firewall_detected", info)
	}
}

func TestDetectNoSignature(t *testing.T) {
	info := Detect(200, `<html><body>Welcome</body></html>`)
	if info.Detected {
		t.Errorf("info = %+v, want no detection on a clean page", info)
	}
}

func TestDetectBareForbidden(t *testing.T) {
	info := Detect(403, "forbidden")
	if !info.Detected || info.Code != status.FirewallDetected {
		t.Errorf("info = %+v, want firewall_detected for bare 403", info)
	}
}

func TestDetectTruncatesLargeBodies(t *testing.T) {
	huge := strings.Repeat("a", maxBodyLen+1000) + "captcha"
	info := Detect(200, huge)
	if info.Detected {
		t.Error("signature beyond maxBodyLen should not be matched")
	}
}
