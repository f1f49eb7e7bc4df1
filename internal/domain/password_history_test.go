package domain

import "testing"

func TestPasswordHistoryAppendTrimsOldest(t *testing.T) {
	var h PasswordHistory
	for _, hash := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
		h = h.Append(hash, 5)
	}
	if len(h) != 5 {
		t.Fatalf("len = %d, want 5", len(h))
	}
	if h[0] != "h2" || h[4] != "h6" {
		t.Fatalf("expected oldest entry dropped, got %v", h)
	}
}

func TestPasswordHistoryValueScanRoundTrip(t *testing.T) {
	h := PasswordHistory{"hash-a", "hash-b"}
	v, err := h.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	var out PasswordHistory
	if err := out.Scan(v); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(out) != 2 || out[0] != "hash-a" || out[1] != "hash-b" {
		t.Fatalf("round trip mismatch: %v", out)
	}

	var nilHist PasswordHistory
	v, err = nilHist.Value()
	if err != nil {
		t.Fatalf("nil value: %v", err)
	}
	if v != "[]" {
		t.Fatalf("nil history value = %v, want []", v)
	}
	if err := out.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if out != nil {
		t.Fatalf("scan nil should clear, got %v", out)
	}
}
