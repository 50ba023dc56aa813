// ABOUTME: Package engine documentation
// ABOUTME: Block streaming engine overview and usage
// Package engine streams a waveform to an audio output device in real time.
//
// The engine owns a fixed pool of sample blocks. A generation loop fills
// the next block by evaluating the waveform once per frame, quantizes it to
// the device bit depth and hands it to the device. When the device reports
// a block finished the loop is woken to refill it. With every block queued
// the loop suspends, so latency is bounded by BlockCount*BlockSamples frames.
//
// Example:
//
//	eng := engine.New(output.NewOto(), engine.Config{
//		Waveform: engine.Sine(440, 0.5),
//	})
//	if err := eng.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Stop()
package engine
