// Package doppler renders moving sound sources for a moving listener in real
// time, reproducing the Doppler pitch shift of motion and a binaural sense of
// direction.
//
// # How It Works
//
// Every source plays a prerecorded mono clip. The clip is read as a countdown
// of propagation delay: a source at distance d is heard at clip index
//
//	Len() - round(d / SoundSpeed * SampleRate)
//
// so a source that approaches moves the read position forward through the
// clip and a source that recedes moves it backward. Each tick the engine takes
// the fragment of the clip swept since the previous tick and stretches it over
// the tick at the relative velocity, which compresses or expands the waveform
// exactly as motion relative to the medium does.
//
// Direction comes from a measured hearing-aid polar pattern: 36 gains, one
// per 10 degrees of bearing, mirrored between the ears. An optional
// inverse-distance falloff attenuates far sources and skips inaudible ones.
//
// # Quick Start
//
//	engine, err := doppler.NewDefault()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tone, _ := doppler.SineClip(doppler.DefaultToneFrequency, 2, doppler.DefaultSampleRate)
//	if err := engine.AddSource("car", tone); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Producer: one call per simulation step.
//	err = engine.Tick(
//	    doppler.Listener{Forward: r3.Vec{Z: 1}},
//	    []doppler.Emitter{{ID: "car", Position: r3.Vec{X: 5, Z: 40}, Active: true}},
//	)
//
//	// Consumer: the audio callback.
//	frames := engine.Fill(buf)
//
// [Engine.Run] drives Tick from a ticker, and [Engine] implements [io.Reader]
// for devices that pull little-endian float32 stereo.
//
// # Buffering
//
// Rendered ticks pass to the audio callback through a transfer queue with
// hysteresis. Playback starts once more than [Config.HighWatermark] frames are
// queued and stops when fewer than half of that remain; in between, and
// whenever the engine is paused, the callback emits silence. The producer
// never blocks: if it outruns the device the queue grows and latency rises
// instead of audio being dropped.
//
// # Thread Safety
//
// [Engine.Tick], [Engine.Run] and [Engine.AddSource] must be called from one
// producer goroutine. [Engine.Fill] and [Engine.Read] must be called from one
// consumer goroutine. Producer and consumer may run concurrently. Pause,
// Resume and Stats are safe from anywhere.
package doppler
