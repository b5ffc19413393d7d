package weft

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config carries the pipeline's tunables. Environment-driven defaults
// come from ConfigFromEnv; the value is threaded explicitly into the
// frame loop rather than read ambiently.
type Config struct {
	WarnDepth  int
	FatalDepth int
	Overscan   int

	// Timings enables per-phase duration logging (build/commit/layout/
	// paint/flush) for profiling. Observability only.
	Timings bool

	Logf func(format string, args ...any)
}

// ConfigFromEnv builds a Config from the environment:
// WEFT_TIMINGS enables phase timing logs, WEFT_DEPTH_WARN and
// WEFT_DEPTH_FATAL override the depth guard thresholds.
func ConfigFromEnv() Config {
	cfg := Config{
		WarnDepth:  DefaultWarnDepth,
		FatalDepth: DefaultFatalDepth,
		Overscan:   DefaultOverscan,
		Timings:    os.Getenv("WEFT_TIMINGS") != "",
		Logf:       log.Printf,
	}
	if v, err := strconv.Atoi(os.Getenv("WEFT_DEPTH_WARN")); err == nil && v > 0 {
		cfg.WarnDepth = v
	}
	if v, err := strconv.Atoi(os.Getenv("WEFT_DEPTH_FATAL")); err == nil && v > 0 {
		cfg.FatalDepth = v
	}
	return cfg
}

// PhaseTimings is the per-phase breakdown of one frame.
type PhaseTimings struct {
	Build  time.Duration // view function
	Commit time.Duration // reconciliation
	Layout time.Duration
	Paint  time.Duration // drawlist build + buffer fill
	Flush  time.Duration // diff + instruction emission
}

// Total returns the whole frame's pipeline time.
func (t PhaseTimings) Total() time.Duration {
	return t.Build + t.Commit + t.Layout + t.Paint + t.Flush
}

// Pipeline runs the five render stages for one frame at a time. It is
// single-threaded by construction: stages run strictly in order and no
// two frames overlap. It owns the instance tree (via its reconciler) and
// the two live frame buffers (via its differ and pool).
type Pipeline struct {
	cfg    Config
	rec    *Reconciler
	engine *LayoutEngine
	differ *Differ
	pool   bufferPool
}

// NewPipeline creates a pipeline with the given config.
func NewPipeline(cfg Config) *Pipeline {
	if cfg.WarnDepth <= 0 {
		cfg.WarnDepth = DefaultWarnDepth
	}
	if cfg.FatalDepth <= 0 {
		cfg.FatalDepth = DefaultFatalDepth
	}
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}
	return &Pipeline{
		cfg:    cfg,
		rec:    NewReconciler(WithDepthGuard(cfg.WarnDepth, cfg.FatalDepth), WithLogger(cfg.Logf)),
		engine: NewLayoutEngine(),
		differ: NewDiffer(),
	}
}

// Reconciler exposes the committed tree for inspection tooling.
func (p *Pipeline) Reconciler() *Reconciler { return p.rec }

// Engine exposes layout statistics.
func (p *Pipeline) Engine() *LayoutEngine { return p.engine }

// Differ exposes diff statistics.
func (p *Pipeline) Differ() *Differ { return p.differ }

// Frame is one rendered but not yet applied frame.
type Frame struct {
	Bytes   []byte
	Effects []Effect
	Timings PhaseTimings

	pipe   *Pipeline
	buffer *Buffer
	done   bool
}

// Buffer exposes the frame's cell grid for tests and snapshots.
func (f *Frame) Buffer() *Buffer { return f.buffer }

// Commit makes this frame the differ's comparison base. Call after its
// bytes were handed to the terminal.
func (f *Frame) Commit() {
	if f.done {
		return
	}
	f.done = true
	old := f.pipe.differ.Commit(f.buffer)
	f.pipe.pool.put(old)
}

// Discard drops the frame without applying it; the next frame will diff
// against the last committed one, covering this frame's changes too.
func (f *Frame) Discard() {
	if f.done {
		return
	}
	f.done = true
	f.pipe.pool.put(f.buffer)
}

// RenderFrame runs one complete pipeline pass: view → reconcile → layout
// → paint → diff. On a fatal error (ErrTreeTooDeep, ErrUnknownWidgetKind)
// the previously committed tree and frame remain valid and untouched.
func (p *Pipeline) RenderFrame(view func(Size) *Widget, cols, rows int) (*Frame, error) {
	f := &Frame{pipe: p}
	timed := p.cfg.Timings

	start := time.Now()
	desc := view(Size{W: cols, H: rows})
	if timed {
		f.Timings.Build = time.Since(start)
	}

	start = time.Now()
	effects, err := p.rec.Commit(desc)
	if err != nil {
		return nil, fmt.Errorf("commit failed: %w", err)
	}
	f.Effects = effects
	if timed {
		f.Timings.Commit = time.Since(start)
	}

	start = time.Now()
	p.engine.Layout(p.rec.Root(), cols, rows)
	if timed {
		f.Timings.Layout = time.Since(start)
	}

	start = time.Now()
	list := BuildDrawlist(p.rec.Root(), cols, rows)
	f.buffer = p.pool.get(cols, rows)
	list.Apply(f.buffer)
	if timed {
		f.Timings.Paint = time.Since(start)
	}

	start = time.Now()
	f.Bytes = p.differ.Render(f.buffer, list.Cursor())
	if timed {
		f.Timings.Flush = time.Since(start)
		p.cfg.Logf("weft: frame build=%v commit=%v layout=%v paint=%v flush=%v",
			f.Timings.Build, f.Timings.Commit, f.Timings.Layout, f.Timings.Paint, f.Timings.Flush)
	}

	return f, nil
}

// Event triggers one frame pass. Events never mutate the committed tree
// directly; they only cause the view function to run again.
type Event interface{ isEvent() }

// KeyEvent carries raw input bytes from the terminal.
type KeyEvent struct{ Bytes []byte }

// ResizeEvent carries a new viewport size.
type ResizeEvent struct{ Size Size }

// TickEvent is a timer-driven animation tick.
type TickEvent struct{ At time.Time }

// QuitEvent stops the program loop.
type QuitEvent struct{}

func (KeyEvent) isEvent()    {}
func (ResizeEvent) isEvent() {}
func (TickEvent) isEvent()   {}
func (QuitEvent) isEvent()   {}

// Program drives the pipeline from terminal events: one frame per event,
// frames coalesced under backpressure.
type Program struct {
	cfg  Config
	pipe *Pipeline
	term *Terminal
	view func(Size) *Widget

	events chan Event
	size   Size

	onKey    func([]byte)
	onEffect func(Effect)

	dropped  int   // frames dropped to terminal backpressure
	frameErr error // most recent fatal frame error, nil after a good frame
}

// ProgramOption configures a Program.
type ProgramOption func(*Program)

// OnKey installs the raw key handler, called before the frame the key
// triggers.
func OnKey(fn func([]byte)) ProgramOption {
	return func(p *Program) { p.onKey = fn }
}

// OnEffect installs a lifecycle observer for mount/update/unmount
// notifications, the hook for animation layers and other per-instance
// resource owners.
func OnEffect(fn func(Effect)) ProgramOption {
	return func(p *Program) { p.onEffect = fn }
}

// NewProgram creates a program rendering view on every event.
func NewProgram(view func(Size) *Widget, cfg Config, opts ...ProgramOption) (*Program, error) {
	term, err := NewTerminal(nil)
	if err != nil {
		return nil, err
	}
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}
	p := &Program{
		cfg:    cfg,
		pipe:   NewPipeline(cfg),
		term:   term,
		view:   view,
		events: make(chan Event, 64),
		size:   term.Size(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Post queues an event, dropping ticks when the queue is full. Key and
// resize events block briefly instead so input is never lost.
func (p *Program) Post(ev Event) {
	if _, isTick := ev.(TickEvent); isTick {
		select {
		case p.events <- ev:
		default:
			// A tick that arrives faster than frames render adds no
			// information; the next frame reads current state anyway.
		}
		return
	}
	p.events <- ev
}

// Quit stops the program after the current frame.
func (p *Program) Quit() {
	p.Post(QuitEvent{})
}

// Dropped reports how many frames were discarded to backpressure.
func (p *Program) Dropped() int { return p.dropped }

// FrameErr reports the most recent frame's fatal error, or nil if the
// last frame rendered cleanly. A fatal frame never stops the loop; the
// terminal keeps showing the last applied frame.
func (p *Program) FrameErr() error { return p.frameErr }

// Run enters raw mode and drives the frame loop until Quit. The terminal
// is restored on exit.
func (p *Program) Run() error {
	if err := p.term.EnterRawMode(); err != nil {
		return err
	}
	defer p.term.ExitRawMode()
	defer p.term.Close()

	go p.readInput()

	p.renderOnce()

	for {
		select {
		case size := <-p.term.ResizeChan():
			p.size = size
			p.renderOnce()
		case ev := <-p.events:
			switch e := ev.(type) {
			case QuitEvent:
				return nil
			case ResizeEvent:
				p.size = e.Size
			case KeyEvent:
				if p.onKey != nil {
					p.onKey(e.Bytes)
				}
			}
			p.renderOnce()
		}
	}
}

// renderOnce runs one frame and applies it, honoring backpressure: a
// frame the terminal cannot accept is discarded whole and its changes
// fold into the next frame's diff.
func (p *Program) renderOnce() {
	frame, err := p.pipe.RenderFrame(p.view, p.size.W, p.size.H)
	if err != nil {
		// The committed tree is untouched; the terminal keeps showing
		// the last applied frame and the loop goes on.
		p.cfg.Logf("weft: frame dropped: %v", err)
		p.frameErr = err
		return
	}
	p.frameErr = nil
	for _, eff := range frame.Effects {
		if p.onEffect != nil {
			p.onEffect(eff)
		}
	}
	if len(frame.Bytes) == 0 {
		frame.Commit()
		return
	}
	if p.term.TryWrite(frame.Bytes) {
		frame.Commit()
	} else {
		p.dropped++
		frame.Discard()
	}
}

// readInput forwards raw stdin bytes as key events.
func (p *Program) readInput() {
	buf := make([]byte, 64)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if n > 0 {
			b := make([]byte, n)
			copy(b, buf[:n])
			p.Post(KeyEvent{Bytes: b})
		}
	}
}
