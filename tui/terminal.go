// Package tui is the terminal front end: it turns key presses into the key
// names the input controller understands and keeps a status line on screen.
package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"
	"go.uber.org/zap"

	"icebattle/client"
	"icebattle/protocol"
)

// ErrQuit is returned by Run when the player asked to leave.
var ErrQuit = errors.New("quit requested")

// KeySink receives key presses and releases by name.
type KeySink interface {
	KeyDown(key string)
	KeyUp(key string)
}

type Options struct {
	Keys   KeySink
	Sender client.Sender // pause/resume commands
	Status func() string
	Clock  client.Clock
	Logger *zap.SugaredLogger

	// ReleaseAfter is how long a key counts as held after its last
	// press or autorepeat. Terminals report no key-up events.
	ReleaseAfter time.Duration
	Refresh      time.Duration
}

// Terminal owns the screen while Run is active.
type Terminal struct {
	opts Options
	log  *zap.SugaredLogger

	mu      sync.Mutex
	held    string
	release client.Timer
	gen     uint64
}

func New(opts Options) *Terminal {
	if opts.Clock == nil {
		opts.Clock = client.RealClock()
	}
	if opts.ReleaseAfter <= 0 {
		opts.ReleaseAfter = 650 * time.Millisecond
	}
	if opts.Refresh <= 0 {
		opts.Refresh = 100 * time.Millisecond
	}
	if opts.Status == nil {
		opts.Status = func() string { return "" }
	}
	log := opts.Logger
	if log == nil {
		log = client.Log
	}
	return &Terminal{opts: opts, log: log.Named("tui")}
}

// Run takes over the terminal until ctx is done, the player quits (ErrQuit)
// or the terminal fails.
func (t *Terminal) Run(ctx context.Context) error {
	if err := termbox.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer termbox.Close()
	defer t.releaseHeld()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			termbox.Interrupt()
		case <-done:
		}
	}()
	go t.redraw(done)

	for {
		ev := termbox.PollEvent()
		switch ev.Type {
		case termbox.EventInterrupt:
			return nil
		case termbox.EventError:
			return fmt.Errorf("terminal: %w", ev.Err)
		case termbox.EventKey:
			key, quit := translate(ev)
			if quit {
				return ErrQuit
			}
			if key != "" {
				t.handle(key)
			}
		}
	}
}

func (t *Terminal) redraw(done <-chan struct{}) {
	ticker := time.NewTicker(t.opts.Refresh)
	defer ticker.Stop()
	for {
		t.draw()
		select {
		case <-ticker.C:
		case <-done:
			return
		}
	}
}

const help = "arrows/WASD move  space power  p pause  r resume  q quit"

func (t *Terminal) draw() {
	w, _ := termbox.Size()
	_ = termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	drawLine(0, fit(t.opts.Status(), w), termbox.ColorDefault|termbox.AttrBold)
	drawLine(1, fit(help, w), termbox.ColorDefault)
	_ = termbox.Flush()
}

func drawLine(y int, s string, fg termbox.Attribute) {
	x := 0
	for _, r := range s {
		termbox.SetCell(x, y, r, fg, termbox.ColorDefault)
		x += runewidth.RuneWidth(r)
	}
}

// fit cuts s to at most width terminal columns.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "")
}

// translate maps a key event to a key name. quit is set for Esc, Ctrl-C and q.
func translate(ev termbox.Event) (key string, quit bool) {
	switch ev.Key {
	case termbox.KeyArrowUp:
		return "ArrowUp", false
	case termbox.KeyArrowDown:
		return "ArrowDown", false
	case termbox.KeyArrowLeft:
		return "ArrowLeft", false
	case termbox.KeyArrowRight:
		return "ArrowRight", false
	case termbox.KeySpace:
		return "Space", false
	case termbox.KeyEsc, termbox.KeyCtrlC:
		return "", true
	}
	switch ev.Ch {
	case 0:
		return "", false
	case 'q', 'Q':
		return "", true
	}
	return string(ev.Ch), false
}

// handle turns one press (or autorepeat) into KeyDown/KeyUp calls. A press
// of a new key releases the old one; the held key is released when no
// repeat arrives within ReleaseAfter.
func (t *Terminal) handle(key string) {
	switch key {
	case "p", "P":
		t.command(protocol.Pause())
		return
	case "r", "R":
		t.command(protocol.Resume())
		return
	}
	if client.IsActionKey(key) {
		t.opts.Keys.KeyDown(key)
		return
	}
	if _, ok := client.DirectionForKey(key); !ok {
		return
	}

	t.mu.Lock()
	prev := t.held
	t.held = key
	t.gen++
	gen := t.gen
	if t.release != nil {
		t.release.Stop()
	}
	t.release = t.opts.Clock.AfterFunc(t.opts.ReleaseAfter, func() { t.expire(gen) })
	t.mu.Unlock()

	if prev == key {
		return
	}
	if prev != "" {
		t.opts.Keys.KeyUp(prev)
	}
	t.opts.Keys.KeyDown(key)
}

func (t *Terminal) expire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.held == "" {
		t.mu.Unlock()
		return
	}
	key := t.held
	t.held = ""
	t.release = nil
	t.mu.Unlock()
	t.opts.Keys.KeyUp(key)
}

func (t *Terminal) releaseHeld() {
	t.mu.Lock()
	key := t.held
	t.held = ""
	t.gen++
	if t.release != nil {
		t.release.Stop()
		t.release = nil
	}
	t.mu.Unlock()
	if key != "" {
		t.opts.Keys.KeyUp(key)
	}
}

func (t *Terminal) command(msg protocol.Outbound) {
	if t.opts.Sender == nil {
		return
	}
	if err := t.opts.Sender.Send(msg); err != nil {
		t.log.Warnw("command dropped", "type", msg.Type, "err", err)
	}
}
