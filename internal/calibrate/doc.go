// Package calibrate measures clock overhead and clock resolution once at
// startup, so the rest of the engine can tell a genuinely timed interval
// apart from clock-quantization noise.
package calibrate
