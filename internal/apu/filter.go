package apu

import "math"

// highPassFilter is a single-pole digital high-pass, the discrete-time
// equivalent of the RC high-pass networks on the NES's audio output.
type highPassFilter struct {
	alpha   float64
	prevIn  float64
	prevOut float64
}

func newHighPassFilter(cutoffHz, sampleRate float64) highPassFilter {
	rc := 1.0 / (2.0 * math.Pi * cutoffHz)
	dt := 1.0 / sampleRate
	return highPassFilter{alpha: rc / (rc + dt)}
}

func (f *highPassFilter) process(in float64) float64 {
	out := f.alpha * (f.prevOut + in - f.prevIn)
	f.prevIn = in
	f.prevOut = out
	return out
}

// lowPassFilter is a single-pole digital low-pass.
type lowPassFilter struct {
	alpha   float64
	prevOut float64
}

func newLowPassFilter(cutoffHz, sampleRate float64) lowPassFilter {
	rc := 1.0 / (2.0 * math.Pi * cutoffHz)
	dt := 1.0 / sampleRate
	return lowPassFilter{alpha: dt / (rc + dt)}
}

func (f *lowPassFilter) process(in float64) float64 {
	out := f.prevOut + f.alpha*(in-f.prevOut)
	f.prevOut = out
	return out
}

// filterChain reproduces the three analog filter stages between the
// NES's DAC and its audio output jack: two high-pass stages (90Hz and
// 440Hz) that knock out DC and hum, then a 14kHz low-pass that rolls off
// the harsh digital edges of the mixed square/triangle/noise signal.
type filterChain struct {
	highPass1 highPassFilter
	highPass2 highPassFilter
	lowPass   lowPassFilter
}

func newFilterChain(sampleRate int) filterChain {
	rate := float64(sampleRate)
	return filterChain{
		highPass1: newHighPassFilter(90.0, rate),
		highPass2: newHighPassFilter(440.0, rate),
		lowPass:   newLowPassFilter(14000.0, rate),
	}
}

func (c *filterChain) process(sample float32) float32 {
	v := c.highPass1.process(float64(sample))
	v = c.highPass2.process(v)
	v = c.lowPass.process(v)
	return float32(v)
}
