package tempo

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// RunConfig configures Run.
type RunConfig struct {
	Title   string
	Width   int
	Height  int
	TPS     int  // ticks per second; 0 uses ebiten's default
	ShowFPS bool // draw an FPS/TPS overlay in the top-left corner
	Debug   bool // calls Runtime.SetDebugMode(true)
}

// DrawFunc draws the current state of the runtime's components.
type DrawFunc func(screen *ebiten.Image)

// Run opens a window and drives rt from ebiten's game loop: every ebiten
// Update is one Runtime.Update with a time step of one tick. It blocks until
// the window closes.
func Run(rt *Runtime, draw DrawFunc, cfg RunConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("run: invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}
	if cfg.Debug {
		rt.SetDebugMode(true)
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	return ebiten.RunGame(NewGame(rt, draw, cfg))
}

// Game adapts a Runtime to ebiten.Game for callers that run ebiten
// themselves.
type Game struct {
	rt   *Runtime
	draw DrawFunc
	cfg  RunConfig
	fps  *fpsOverlay
}

// NewGame creates the ebiten.Game used by Run.
func NewGame(rt *Runtime, draw DrawFunc, cfg RunConfig) *Game {
	g := &Game{rt: rt, draw: draw, cfg: cfg}
	if cfg.ShowFPS {
		g.fps = &fpsOverlay{}
	}
	return g
}

// Update runs one Runtime frame.
func (g *Game) Update() error {
	dt := time.Second / time.Duration(ebiten.TPS())
	g.rt.Update(dt)
	if g.fps != nil {
		g.fps.update(dt)
	}
	return nil
}

// Draw calls the DrawFunc, then the FPS overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.draw != nil {
		g.draw(screen)
	}
	if g.fps != nil {
		g.fps.draw(screen)
	}
}

// Layout keeps the configured logical size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.cfg.Width > 0 && g.cfg.Height > 0 {
		return g.cfg.Width, g.cfg.Height
	}
	return outsideWidth, outsideHeight
}

// fpsOverlay displays the current FPS and TPS, refreshed every ~0.5 seconds.
type fpsOverlay struct {
	img        *ebiten.Image
	lastUpdate time.Duration
}

func (f *fpsOverlay) update(dt time.Duration) {
	if f.img == nil {
		// 100x32 is enough for "FPS: 60.0\nTPS: 60.0"
		f.img = ebiten.NewImage(100, 32)
		f.lastUpdate = time.Second
	}
	f.lastUpdate += dt
	if f.lastUpdate < 500*time.Millisecond {
		return
	}
	f.lastUpdate = 0

	f.img.Clear()
	// Semi-transparent background for readability
	f.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(f.img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
}

func (f *fpsOverlay) draw(screen *ebiten.Image) {
	if f.img == nil {
		return
	}
	screen.DrawImage(f.img, nil)
}
