// Package apu implements the NES Audio Processing Unit: two pulse
// channels, a triangle channel, a noise channel, a delta-modulation
// channel, the frame sequencer that clocks their envelopes/sweeps/length
// counters, the non-linear mixer, and an output filter chain shaping the
// mixed signal the way the real PPU-adjacent analog circuitry does.
package apu

// DMCReader supplies the bytes the delta-modulation channel streams from
// cartridge PRG space. It is a plain CPU-address read, routed through
// whatever owns the address bus.
type DMCReader interface {
	Read(address uint16) uint8
}

// APU represents the NES Audio Processing Unit.
type APU struct {
	pulse1   PulseChannel
	pulse2   PulseChannel
	triangle TriangleChannel
	noise    NoiseChannel
	dmc      DMCChannel

	dmcReader DMCReader

	// Frame counter
	frameCounter     uint16
	frameMode        bool // false = 4-step, true = 5-step
	frameIRQEnable   bool
	frameCounterStep uint8
	frameIRQFlag     bool

	// A $4017 write doesn't take effect immediately; it lands 3 or 4 CPU
	// cycles later depending on the parity of the cycle it landed on.
	pendingFrameWrite bool
	pendingFrameValue uint8
	frameResetDelay   uint8

	channelEnable [5]bool // pulse1, pulse2, triangle, noise, dmc

	sampleBuffer     []float32
	sampleRate       int
	cpuFrequency     float64
	cycleAccumulator float64

	filters filterChain

	cycles uint64
}

// New creates an APU that streams DMC sample bytes through reader.
func New(reader DMCReader) *APU {
	apu := &APU{
		dmcReader:      reader,
		sampleBuffer:   make([]float32, 0, 4096),
		sampleRate:     44100,
		cpuFrequency:   1789773.0, // NTSC CPU frequency
		frameMode:      false,
		frameIRQEnable: true,
		filters:        newFilterChain(44100),
	}
	apu.noise.shiftRegister = 1
	return apu
}

// SetDMCReader rebinds the channel used for DMC sample fetches.
func (apu *APU) SetDMCReader(reader DMCReader) { apu.dmcReader = reader }

// Reset returns the APU to its power-up state.
func (apu *APU) Reset() {
	apu.pulse1 = PulseChannel{}
	apu.pulse2 = PulseChannel{}
	apu.triangle = TriangleChannel{}
	apu.noise = NoiseChannel{shiftRegister: 1}
	apu.dmc = DMCChannel{}

	apu.frameCounter = 0
	apu.frameCounterStep = 0
	apu.frameMode = false
	apu.frameIRQEnable = true
	apu.frameIRQFlag = false
	apu.pendingFrameWrite = false
	apu.frameResetDelay = 0

	for i := range apu.channelEnable {
		apu.channelEnable[i] = false
	}

	apu.cycles = 0
	apu.cycleAccumulator = 0
	apu.sampleBuffer = apu.sampleBuffer[:0]
	apu.filters = newFilterChain(apu.sampleRate)
}

// Step advances the APU by one CPU cycle.
func (apu *APU) Step() {
	apu.cycles++

	apu.applyPendingFrameWrite()
	apu.stepFrameCounter()
	apu.stepChannelTimers()
	apu.generateSample()
}

func (apu *APU) applyPendingFrameWrite() {
	if !apu.pendingFrameWrite {
		return
	}
	if apu.frameResetDelay > 0 {
		apu.frameResetDelay--
	}
	if apu.frameResetDelay == 0 {
		apu.applyFrameCounterWrite(apu.pendingFrameValue)
		apu.pendingFrameWrite = false
	}
}

// stepFrameCounter clocks the quarter-frame (envelope/linear) and
// half-frame (length/sweep) units at the NTSC 4-step or 5-step cadence.
func (apu *APU) stepFrameCounter() {
	apu.frameCounter++

	if apu.frameMode {
		switch apu.frameCounter {
		case 7457:
			apu.clockEnvelopeAndLinear()
		case 14913:
			apu.clockEnvelopeAndLinear()
			apu.clockLengthAndSweep()
		case 22371:
			apu.clockEnvelopeAndLinear()
		case 37281:
			apu.clockEnvelopeAndLinear()
			apu.clockLengthAndSweep()
			apu.frameCounter = 0
			apu.frameCounterStep = 0
		}
		return
	}

	switch apu.frameCounter {
	case 7457:
		apu.clockEnvelopeAndLinear()
	case 14913:
		apu.clockEnvelopeAndLinear()
		apu.clockLengthAndSweep()
	case 22371:
		apu.clockEnvelopeAndLinear()
	case 29829:
		apu.clockEnvelopeAndLinear()
		apu.clockLengthAndSweep()
	case 29830:
		if apu.frameIRQEnable {
			apu.frameIRQFlag = true
		}
		apu.frameCounter = 0
		apu.frameCounterStep = 0
	}
}

func (apu *APU) clockEnvelopeAndLinear() {
	apu.clockPulseEnvelope(&apu.pulse1)
	apu.clockPulseEnvelope(&apu.pulse2)
	apu.clockNoiseEnvelope(&apu.noise)
	apu.clockTriangleLinear(&apu.triangle)
}

func (apu *APU) clockLengthAndSweep() {
	apu.clockPulseLength(&apu.pulse1)
	apu.clockPulseSweep(&apu.pulse1, true)
	apu.clockPulseLength(&apu.pulse2)
	apu.clockPulseSweep(&apu.pulse2, false)
	apu.clockTriangleLength(&apu.triangle)
	apu.clockNoiseLength(&apu.noise)
}

func (apu *APU) stepChannelTimers() {
	if apu.channelEnable[0] {
		apu.stepPulseTimer(&apu.pulse1)
	}
	if apu.channelEnable[1] {
		apu.stepPulseTimer(&apu.pulse2)
	}
	if apu.channelEnable[2] {
		apu.stepTriangleTimer(&apu.triangle)
	}
	if apu.channelEnable[3] {
		apu.stepNoiseTimer(&apu.noise)
	}
	if apu.channelEnable[4] {
		apu.stepDMCTimer(&apu.dmc)
	}
}

// generateSample converts from the fixed CPU clock to the target sample
// rate with a cycle accumulator, then runs the mixed sample through the
// output filter chain before buffering it.
func (apu *APU) generateSample() {
	apu.cycleAccumulator += float64(apu.sampleRate) / apu.cpuFrequency
	if apu.cycleAccumulator < 1.0 {
		return
	}
	apu.cycleAccumulator -= 1.0

	pulse1Out := apu.getPulseOutput(&apu.pulse1)
	pulse2Out := apu.getPulseOutput(&apu.pulse2)
	triangleOut := apu.getTriangleOutput(&apu.triangle)
	noiseOut := apu.getNoiseOutput(&apu.noise)
	dmcOut := apu.getDMCOutput(&apu.dmc)

	sample := apu.mixChannels(pulse1Out, pulse2Out, triangleOut, noiseOut, dmcOut)
	sample = apu.filters.process(sample)
	apu.sampleBuffer = append(apu.sampleBuffer, sample)
}

// WriteRegister writes to an APU-mapped CPU register, $4000-$4013/$4015/$4017.
func (apu *APU) WriteRegister(address uint16, value uint8) {
	switch address {
	case 0x4000:
		apu.writePulseControl(&apu.pulse1, value)
	case 0x4001:
		apu.writePulseSweep(&apu.pulse1, value)
	case 0x4002:
		apu.writePulseTimerLow(&apu.pulse1, value)
	case 0x4003:
		apu.writePulseTimerHigh(&apu.pulse1, value)

	case 0x4004:
		apu.writePulseControl(&apu.pulse2, value)
	case 0x4005:
		apu.writePulseSweep(&apu.pulse2, value)
	case 0x4006:
		apu.writePulseTimerLow(&apu.pulse2, value)
	case 0x4007:
		apu.writePulseTimerHigh(&apu.pulse2, value)

	case 0x4008:
		apu.writeTriangleControl(value)
	case 0x400A:
		apu.writeTriangleTimerLow(value)
	case 0x400B:
		apu.writeTriangleTimerHigh(value)

	case 0x400C:
		apu.writeNoiseControl(value)
	case 0x400E:
		apu.writeNoisePeriod(value)
	case 0x400F:
		apu.writeNoiseLength(value)

	case 0x4010:
		apu.writeDMCControl(value)
	case 0x4011:
		apu.writeDMCDirectLoad(value)
	case 0x4012:
		apu.writeDMCSampleAddress(value)
	case 0x4013:
		apu.writeDMCSampleLength(value)

	case 0x4015:
		apu.writeChannelEnable(value)
	case 0x4017:
		apu.pendingFrameValue = value
		apu.pendingFrameWrite = true
		if apu.cycles%2 == 0 {
			apu.frameResetDelay = 3
		} else {
			apu.frameResetDelay = 4
		}
	}
}

// applyFrameCounterWrite performs the effect of a $4017 write once its
// pending delay has elapsed.
func (apu *APU) applyFrameCounterWrite(value uint8) {
	apu.frameMode = (value & 0x80) != 0
	apu.frameIRQEnable = (value & 0x40) == 0
	if !apu.frameIRQEnable {
		apu.frameIRQFlag = false
	}

	apu.frameCounter = 0
	apu.frameCounterStep = 0

	if apu.frameMode {
		apu.clockEnvelopeAndLinear()
		apu.clockLengthAndSweep()
	}
}

// GetSamples drains and returns the buffered output samples.
func (apu *APU) GetSamples() []float32 {
	samples := make([]float32, len(apu.sampleBuffer))
	copy(samples, apu.sampleBuffer)
	apu.sampleBuffer = apu.sampleBuffer[:0]
	return samples
}

// ReadStatus reads $4015: per-channel length-counter-active bits, the
// frame and DMC IRQ flags. Reading clears the frame IRQ flag.
func (apu *APU) ReadStatus() uint8 {
	status := uint8(0)

	if apu.pulse1.lengthCounter > 0 {
		status |= 0x01
	}
	if apu.pulse2.lengthCounter > 0 {
		status |= 0x02
	}
	if apu.triangle.lengthCounter > 0 {
		status |= 0x04
	}
	if apu.noise.lengthCounter > 0 {
		status |= 0x08
	}
	if apu.dmc.bytesRemaining > 0 {
		status |= 0x10
	}
	if apu.frameIRQFlag {
		status |= 0x40
	}
	if apu.dmc.irqFlag {
		status |= 0x80
	}

	apu.frameIRQFlag = false
	return status
}

// IRQLine reports the APU's single IRQ output: the frame counter and DMC
// IRQ sources are wire-ORed together on real hardware, so the CPU sees
// one line regardless of which one (or both) is asserted.
func (apu *APU) IRQLine() bool {
	return apu.frameIRQFlag || apu.dmc.irqFlag
}

// SetSampleRate changes the target audio sample rate and resets the
// resampling accumulator and filter chain to match.
func (apu *APU) SetSampleRate(rate int) {
	apu.sampleRate = rate
	apu.cycleAccumulator = 0
	apu.filters = newFilterChain(rate)
}

// GetSampleRate returns the current output sample rate.
func (apu *APU) GetSampleRate() int {
	return apu.sampleRate
}

// mixChannels applies the NES's non-linear DAC mixing formula.
func (apu *APU) mixChannels(pulse1, pulse2, triangle, noise, dmc uint8) float32 {
	pulseSum := float64(pulse1 + pulse2)
	var pulseOut float64
	if pulseSum != 0 {
		pulseOut = 95.88 / ((8128.0 / pulseSum) + 100.0)
	}

	tndSum := (float64(triangle) / 8227.0) + (float64(noise) / 12241.0) + (float64(dmc) / 22638.0)
	var tndOut float64
	if tndSum != 0 {
		tndOut = 159.79 / ((1.0 / tndSum) + 100.0)
	}

	return float32(pulseOut + tndOut)
}

var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6,
	160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 8, 48, 6, 96, 4,
	192, 2, 72, 16, 28, 32, 52, 2,
}

var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0}, // 12.5%
	{0, 1, 1, 0, 0, 0, 0, 0}, // 25%
	{0, 1, 1, 1, 1, 0, 0, 0}, // 50%
	{1, 0, 0, 1, 1, 1, 1, 1}, // 75%
}

var triangleTable = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

var noisePeriodTable = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160,
	202, 254, 380, 508, 762, 1016, 2034, 4068,
}

var dmcRateTable = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214,
	190, 160, 142, 128, 106, 84, 72, 54,
}
