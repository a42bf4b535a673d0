package utils

import "testing"

func TestParseInt(t *testing.T) {
	if got := ParseInt("", 10); got != 10 {
		t.Fatalf("empty -> %d", got)
	}
	if got := ParseInt("abc", 10); got != 10 {
		t.Fatalf("garbage -> %d", got)
	}
	if got := ParseInt("0", 1); got != 1 {
		t.Fatalf("zero -> %d", got)
	}
	if got := ParseInt("3", 1); got != 3 {
		t.Fatalf("3 -> %d", got)
	}
}

func TestParseOptionalInt(t *testing.T) {
	v, err := ParseOptionalInt("")
	if err != nil || v != nil {
		t.Fatalf("empty -> %v, %v", v, err)
	}
	v, err = ParseOptionalInt("1965")
	if err != nil || v == nil || *v != 1965 {
		t.Fatalf("1965 -> %v, %v", v, err)
	}
	if _, err := ParseOptionalInt("19x5"); err == nil {
		t.Fatal("expected error for non-numeric year")
	}
}
