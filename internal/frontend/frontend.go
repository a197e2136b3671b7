// Package frontend is the only part of this module besides cmd/gones
// allowed to import ebiten: it owns the window, keyboard input, audio
// output, and the pixel compositor that turns the PPU's timing-core state
// into an on-screen frame.
package frontend

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"nesemu/internal/bus"
	"nesemu/internal/config"
	"nesemu/internal/input"
)

// Game implements ebiten.Game, running the emulated machine one video frame
// per Update and drawing the composited frame in Draw.
type Game struct {
	machine  *bus.Bus
	cfg      *config.Config
	renderer *Renderer
	frame    *ebiten.Image

	audioContext *audio.Context
	audioPlayer  *audio.Player
	audioStream  *sampleStream

	keymap1 keyMap
	keymap2 keyMap

	showDebug bool
}

// NewGame builds a frontend bound to an already-loaded machine.
func NewGame(machine *bus.Bus, cfg *config.Config) *Game {
	g := &Game{
		machine:  machine,
		cfg:      cfg,
		renderer: NewRenderer(),
		frame:    ebiten.NewImage(screenWidth, screenHeight),
		keymap1:  newKeyMap(cfg.Input.Player1Keys),
		keymap2:  newKeyMap(cfg.Input.Player2Keys),
	}

	if cfg.Audio.Enabled {
		g.audioContext = audio.NewContext(cfg.Audio.SampleRate)
		g.audioStream = newSampleStream()
		player, err := g.audioContext.NewPlayer(g.audioStream)
		if err == nil {
			g.audioPlayer = player
			g.audioPlayer.Play()
		}
	}

	return g
}

// Update runs the emulator until one more PPU frame has completed, then
// pushes any audio samples generated along the way into the output stream.
func (g *Game) Update() error {
	target := g.machine.FrameCount() + 1
	for g.machine.FrameCount() < target {
		g.machine.Step()
	}

	g.pollInput()

	if g.audioStream != nil {
		g.audioStream.push(g.machine.GetAudioSamples())
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		g.showDebug = !g.showDebug
	}
	return nil
}

// Draw composites the current PPU state and scales it into the window,
// preserving aspect ratio and centering any letterbox.
func (g *Game) Draw(screen *ebiten.Image) {
	pixels := g.renderer.Render(g.machine.PPU)
	g.frame.ReplacePixels(pixels)

	outW, outH := screen.Bounds().Dx(), screen.Bounds().Dy()
	scaleX := float64(outW) / float64(screenWidth)
	scaleY := float64(outH) / float64(screenHeight)
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(scale, scale)
	drawnW := float64(screenWidth) * scale
	drawnH := float64(screenHeight) * scale
	opts.GeoM.Translate((float64(outW)-drawnW)/2, (float64(outH)-drawnH)/2)
	screen.DrawImage(g.frame, opts)

	if g.showDebug {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("frame %d", g.machine.FrameCount()))
	}
}

// Layout reports the configured window resolution (the NES frame times the
// window scale) as the screen size; Draw scales the 256x240 frame into it
// with its own aspect-preserving transform.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.WindowResolution()
}

func (g *Game) pollInput() {
	applyKeyMap(g.machine.Joypads.Port1, g.keymap1)
	applyKeyMap(g.machine.Joypads.Port2, g.keymap2)
}

// keyMap binds one controller's eight buttons to ebiten keys.
type keyMap struct {
	up, down, left, right, a, b, start, select_ ebiten.Key
}

func newKeyMap(m config.KeyMapping) keyMap {
	return keyMap{
		up:      keyNamed(m.Up, ebiten.KeyW),
		down:    keyNamed(m.Down, ebiten.KeyS),
		left:    keyNamed(m.Left, ebiten.KeyA),
		right:   keyNamed(m.Right, ebiten.KeyD),
		a:       keyNamed(m.A, ebiten.KeyK),
		b:       keyNamed(m.B, ebiten.KeyJ),
		start:   keyNamed(m.Start, ebiten.KeyEnter),
		select_: keyNamed(m.Select, ebiten.KeySpace),
	}
}

// keyByName resolves the small set of key names config.KeyMapping's
// defaults use. Unrecognized names fall back to the caller-supplied key
// rather than failing config load over a typo.
var keyByName = map[string]ebiten.Key{
	"W": ebiten.KeyW, "A": ebiten.KeyA, "S": ebiten.KeyS, "D": ebiten.KeyD,
	"J": ebiten.KeyJ, "K": ebiten.KeyK,
	"Up": ebiten.KeyArrowUp, "Down": ebiten.KeyArrowDown,
	"Left": ebiten.KeyArrowLeft, "Right": ebiten.KeyArrowRight,
	"Enter": ebiten.KeyEnter, "Space": ebiten.KeySpace,
	"Period": ebiten.KeyPeriod, "Comma": ebiten.KeyComma,
	"Backslash": ebiten.KeyBackslash, "Slash": ebiten.KeySlash,
}

func keyNamed(name string, fallback ebiten.Key) ebiten.Key {
	if k, ok := keyByName[name]; ok {
		return k
	}
	return fallback
}

func applyKeyMap(c *input.Controller, km keyMap) {
	c.SetButton(input.ButtonUp, ebiten.IsKeyPressed(km.up))
	c.SetButton(input.ButtonDown, ebiten.IsKeyPressed(km.down))
	c.SetButton(input.ButtonLeft, ebiten.IsKeyPressed(km.left))
	c.SetButton(input.ButtonRight, ebiten.IsKeyPressed(km.right))
	c.SetButton(input.ButtonA, ebiten.IsKeyPressed(km.a))
	c.SetButton(input.ButtonB, ebiten.IsKeyPressed(km.b))
	c.SetButton(input.ButtonStart, ebiten.IsKeyPressed(km.start))
	c.SetButton(input.ButtonSelect, ebiten.IsKeyPressed(km.select_))
}

// Run opens the window and blocks until it's closed.
func Run(g *Game) error {
	w, h := g.cfg.WindowResolution()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("nesemu")
	ebiten.SetFullscreen(g.cfg.Window.Fullscreen)
	ebiten.SetVsyncEnabled(g.cfg.Window.VSync)
	return ebiten.RunGame(g)
}
