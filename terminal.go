package weft

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminal owns the raw-mode terminal: alternate screen, resize signals,
// and a non-blocking frame writer. The pipeline hands it one byte slice
// per frame; a slow terminal never blocks the frame loop and never sees
// interleaved partial frames.
type Terminal struct {
	writer io.Writer
	fd     int

	// mu guards width/height: the SIGWINCH goroutine writes them while
	// Size may be read from any goroutine.
	mu     sync.Mutex
	width  int
	height int

	origTermios *unix.Termios
	inRawMode   bool

	resizeChan chan Size
	sigChan    chan os.Signal

	// Frame write queue. One slot: a frame that cannot be queued is
	// dropped by the caller and its changes fold into the next diff.
	frames chan []byte
	done   chan struct{}
}

// NewTerminal creates a terminal writing to w (os.Stdout when nil).
func NewTerminal(w io.Writer) (*Terminal, error) {
	if w == nil {
		w = os.Stdout
	}

	fd := int(os.Stdout.Fd())
	width, height := 80, 24
	if term.IsTerminal(fd) {
		if cols, rows, err := term.GetSize(fd); err == nil {
			width, height = cols, rows
		}
	}

	t := &Terminal{
		writer:     w,
		fd:         fd,
		width:      width,
		height:     height,
		resizeChan: make(chan Size, 1),
		sigChan:    make(chan os.Signal, 1),
		frames:     make(chan []byte, 1),
		done:       make(chan struct{}),
	}
	go t.writeLoop()
	return t, nil
}

// Size returns the current terminal dimensions.
func (t *Terminal) Size() Size {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Size{W: t.width, H: t.height}
}

// ResizeChan returns a channel receiving size updates on terminal resize.
func (t *Terminal) ResizeChan() <-chan Size {
	return t.resizeChan
}

// EnterRawMode puts the terminal into raw mode and switches to the
// alternate screen.
func (t *Terminal) EnterRawMode() error {
	if t.inRawMode {
		return nil
	}

	termios, err := unix.IoctlGetTermios(t.fd, ioctlGetTermios)
	if err != nil {
		return fmt.Errorf("failed to get termios: %w", err)
	}
	t.origTermios = termios

	raw := *termios
	// Input flags: disable break, CR to NL, parity, strip, flow control
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	// Output flags: disable post processing
	raw.Oflag &^= unix.OPOST
	// Control flags: set 8 bit chars
	raw.Cflag |= unix.CS8
	// Local flags: disable echo, canonical mode, signals, extended input
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	// Control chars: min bytes = 1, timeout = 0
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(t.fd, ioctlSetTermios, &raw); err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	t.inRawMode = true

	signal.Notify(t.sigChan, syscall.SIGWINCH)
	go t.handleSignals()

	io.WriteString(t.writer, "\x1b[?1049h") // Enter alternate screen
	io.WriteString(t.writer, "\x1b[2J")     // Clear screen
	io.WriteString(t.writer, "\x1b[H")      // Home cursor
	io.WriteString(t.writer, "\x1b[?25l")   // Hide cursor

	return nil
}

// ExitRawMode restores the terminal to its original state.
func (t *Terminal) ExitRawMode() error {
	if !t.inRawMode {
		return nil
	}

	io.WriteString(t.writer, "\x1b[0m")     // Reset style
	io.WriteString(t.writer, "\x1b[?25h")   // Show cursor
	io.WriteString(t.writer, "\x1b[?1049l") // Exit alternate screen

	signal.Stop(t.sigChan)

	if t.origTermios != nil {
		if err := unix.IoctlSetTermios(t.fd, ioctlSetTermios, t.origTermios); err != nil {
			return fmt.Errorf("failed to restore termios: %w", err)
		}
	}
	t.inRawMode = false
	return nil
}

// Close stops the write loop. Pending queued frames are dropped.
func (t *Terminal) Close() {
	close(t.done)
}

// handleSignals watches for SIGWINCH and publishes new sizes.
func (t *Terminal) handleSignals() {
	for range t.sigChan {
		ws, err := unix.IoctlGetWinsize(t.fd, unix.TIOCGWINSZ)
		if err != nil {
			continue
		}
		width, height := int(ws.Col), int(ws.Row)
		t.mu.Lock()
		changed := width != t.width || height != t.height
		if changed {
			t.width = width
			t.height = height
		}
		t.mu.Unlock()
		if changed {
			select {
			case t.resizeChan <- Size{W: width, H: height}:
			default:
			}
		}
	}
}

// TryWrite queues a frame's bytes for writing. Returns false when the
// queue is full: the terminal has not kept up, the caller should drop the
// frame and let the next diff cover the difference. Each queued frame is
// written with a single Write call, so frames never interleave.
func (t *Terminal) TryWrite(frame []byte) bool {
	if len(frame) == 0 {
		return true
	}
	// The caller reuses its buffer; queue a copy.
	owned := make([]byte, len(frame))
	copy(owned, frame)
	select {
	case t.frames <- owned:
		return true
	default:
		return false
	}
}

func (t *Terminal) writeLoop() {
	for {
		select {
		case frame := <-t.frames:
			t.writer.Write(frame)
		case <-t.done:
			return
		}
	}
}
