// ABOUTME: Output backend selection for the CLI
// ABOUTME: Maps backend names to output drivers
package main

import (
	"fmt"
	"io"
	"log"

	"github.com/Resonate-Protocol/noisemaker-go/pkg/audio/output"
)

// newDriver returns the driver for a backend name
func newDriver(name string) (output.Driver, error) {
	switch name {
	case "oto":
		return output.NewOto(), nil
	case "malgo":
		return output.NewMalgo(), nil
	case "portaudio":
		return output.NewPortAudio(), nil
	case "null":
		return output.NewNull(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

// closeDriver releases backend resources held across devices
func closeDriver(driver output.Driver) {
	c, ok := driver.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		log.Printf("Failed to close %s backend: %v", driver.Name(), err)
	}
}
