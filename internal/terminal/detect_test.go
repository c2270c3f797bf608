package terminal

import "testing"

func TestIsInteractive(t *testing.T) {
	// The value depends on how the test runner is attached; only verify the
	// call is safe.
	_ = IsInteractive()
}
