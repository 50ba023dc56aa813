// ABOUTME: Audio output package for block-based playback devices
// ABOUTME: Provides Driver/Device interfaces and oto, malgo, PortAudio and headless backends
// Package output is the boundary between the engine and platform audio.
//
// A Driver enumerates devices and opens one; the opened Device accepts
// prepared Headers for asynchronous playback and reports each finished
// block through the Handler given to Open with MsgDone.
//
// Backends:
//   - Oto: system default output via oto (8/16-bit)
//   - Malgo: enumerated devices via miniaudio (8/16/24/32-bit)
//   - PortAudio: enumerated devices via PortAudio (build with -tags portaudio)
//   - Null: headless real-time simulation, for servers and tests
//
// Example:
//
//	drv := output.NewMalgo()
//	names, err := drv.Devices()
//	dev, err := drv.Open(0, audio.Format{SampleRate: 44100, Channels: 1, BitDepth: 16}, handler)
//	err = dev.Prepare(h)
//	err = dev.Write(h)
package output
