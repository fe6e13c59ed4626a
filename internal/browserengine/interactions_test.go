package browserengine

import "testing"

func TestParseCombo(t *testing.T) {
	cases := []struct {
		combo   string
		wantMod int64
		wantKey string
	}{
		{"a", 0, "a"},
		{"ctrl+a", modCtrl, "a"},
		{"cmd+shift+z", modMeta | modShift, "z"},
		{"Control+Alt+Delete", modCtrl | modAlt, "Delete"},
	}
	for _, c := range cases {
		mod, key := parseCombo(c.combo)
		if mod != c.wantMod || key != c.wantKey {
			t.Errorf("parseCombo(%q) = (%v, %q), want (%v, %q)", c.combo, mod, key, c.wantMod, c.wantKey)
		}
	}
}

func TestIndexOfByte(t *testing.T) {
	if indexOfByte("a+b", '+') != 1 {
		t.Errorf("indexOfByte mismatch")
	}
	if indexOfByte("abc", '+') != -1 {
		t.Errorf("expected -1 for missing separator")
	}
}
