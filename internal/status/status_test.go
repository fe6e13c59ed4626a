package status

import "testing"

func TestSuccessInvariant(t *testing.T) {
	cases := []struct {
		code Code
		want bool
	}{
		{OK, true},
		{VerificationTimeout, true},
		{ElementNotFound, false},
		{InternalError, false},
		{Timeout, false},
	}
	for _, c := range cases {
		if got := Success(c.code); got != c.want {
			t.Errorf("Success(%q) = %v, want %v", c.code, got, c.want)
		}
	}
}

func TestResultDerivesSuccess(t *testing.T) {
	r := Result(ElementNotFound, "no match").WithSelector("#nope")
	if r.Success {
		t.Error("Result with element_not_found should have Success=false")
	}
	if r.Selector != "#nope" {
		t.Errorf("Selector = %q, want #nope", r.Selector)
	}

	ok := Result(OK, "done")
	if !ok.Success {
		t.Error("Result with ok should have Success=true")
	}

	vt := Result(VerificationTimeout, "inconclusive")
	if !vt.Success {
		t.Error("Result with verification_timeout should have Success=true")
	}
}
