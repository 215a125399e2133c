package main

import "time"

// Default command-line flag values
const (
	defaultSources      = 3
	defaultSpeed        = 30.0  // m/s
	defaultPassDistance = 5.0   // m
	defaultHalfLength   = 150.0 // m
)

// Tone clip
const (
	clipMarginSeconds = 0.5 // Extra tone beyond the farthest point of the scene
	normalizePeak     = 0.9
)

// Status reporting
const (
	statsInterval = time.Second
)

// Terminal control bytes
const (
	keyCtrlC  = 0x03
	keyEscape = 0x1b
)
