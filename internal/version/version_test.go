package version

import "testing"

func TestString(t *testing.T) {
	if s := String(); s == "" {
		t.Fatalf("version string is empty")
	}
	if String() != Version {
		t.Fatalf("String() = %q, want %q", String(), Version)
	}
}
