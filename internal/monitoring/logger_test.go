package monitoring

import "testing"

func TestSetLogger_Redirect(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = format
	})
	Logf("index reset: %d", 3)

	if got != "index reset: %d" {
		t.Errorf("custom logger not called, got %q", got)
	}
}

func TestSetLogger_NilMutes(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(string, ...interface{}) { called = true })
	SetLogger(nil)

	// Must be a callable no-op, not nil.
	Logf("muted")
	if called {
		t.Error("nil logger should mute output, not forward it")
	}
}

func TestLogf_DefaultNotNil(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf must default to a usable logger")
	}
}
