package main

import (
	"testing"
)

func TestNewDriver(t *testing.T) {
	for _, name := range []string{"oto", "malgo", "portaudio", "null"} {
		driver, err := newDriver(name)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if driver.Name() != name {
			t.Errorf("expected driver %s, got %s", name, driver.Name())
		}
	}

	if _, err := newDriver("jack"); err == nil {
		t.Error("expected error for unknown backend")
	}
}
