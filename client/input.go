package client

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"icebattle/game"
	"icebattle/protocol"
)

// Sender writes a command to the match server.
type Sender interface {
	Send(msg protocol.Outbound) error
}

var keyDirections = map[string]game.Direction{
	"ArrowUp": game.DirUp, "w": game.DirUp, "W": game.DirUp,
	"ArrowDown": game.DirDown, "s": game.DirDown, "S": game.DirDown,
	"ArrowLeft": game.DirLeft, "a": game.DirLeft, "A": game.DirLeft,
	"ArrowRight": game.DirRight, "d": game.DirRight, "D": game.DirRight,
}

// DirectionForKey maps arrow keys and WASD (either case) to a direction.
func DirectionForKey(key string) (game.Direction, bool) {
	d, ok := keyDirections[key]
	return d, ok
}

// IsActionKey reports whether key fires the power.
func IsActionKey(key string) bool { return key == " " || key == "Space" }

// InputController turns key presses into movement commands. Holding a
// direction repeats the move every cooldown; no two moves go out closer
// together than the cooldown, which matches the move animation length.
type InputController struct {
	sender   Sender
	clock    Clock
	cooldown time.Duration
	metrics  *Metrics
	log      *zap.SugaredLogger

	mu       sync.Mutex
	enabled  bool
	stopped  bool
	held     game.Direction
	repeat   Timer
	gen      uint64
	lastMove time.Time
	moved    bool
}

func NewInputController(sender Sender, clock Clock, cooldown time.Duration, metrics *Metrics, logger *zap.SugaredLogger) *InputController {
	if clock == nil {
		clock = RealClock()
	}
	if cooldown <= 0 {
		cooldown = DefaultConfig().MoveCooldown
	}
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &InputController{
		sender:   sender,
		clock:    clock,
		cooldown: cooldown,
		metrics:  metrics,
		log:      named(logger, "input"),
		enabled:  true,
	}
}

// Bind keeps the controller enabled exactly while the main player may move.
func (c *InputController) Bind(users *game.UsersStore) (unbind func()) {
	c.SetEnabled(users.State().CanMove())
	return users.Subscribe(func(s game.UsersState) { c.SetEnabled(s.CanMove()) })
}

// SetEnabled gates input. Disabling drops the held key and its repeat.
func (c *InputController) SetEnabled(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.enabled = on
	if !on {
		c.release()
	}
}

func (c *InputController) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Held is the direction being held, or "" when idle.
func (c *InputController) Held() game.Direction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held
}

// KeyDown handles a key press by key name.
func (c *InputController) KeyDown(key string) {
	if IsActionKey(key) {
		c.Power()
		return
	}
	dir, ok := DirectionForKey(key)
	if !ok {
		c.log.Debugw("unmapped key", "key", key)
		return
	}
	c.Press(dir)
}

// KeyUp handles a key release by key name.
func (c *InputController) KeyUp(key string) {
	if dir, ok := DirectionForKey(key); ok {
		c.Release(dir)
	}
}

// Press starts holding dir: one move now, subject to the cooldown, then one
// per cooldown until Release.
func (c *InputController) Press(dir game.Direction) {
	c.mu.Lock()
	if !c.enabled || c.held == dir {
		c.mu.Unlock()
		return
	}
	c.release()
	c.held = dir
	send := c.admitMove()
	c.armRepeat()
	c.mu.Unlock()

	if send {
		c.send(protocol.Movement(dir))
	}
}

// Release stops holding dir. Releasing any other direction is ignored.
func (c *InputController) Release(dir game.Direction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held != dir {
		return
	}
	c.release()
}

// Power fires the special action. It is not subject to the move cooldown.
func (c *InputController) Power() {
	c.mu.Lock()
	ok := c.enabled
	c.mu.Unlock()
	if ok {
		c.send(protocol.ExecPower())
	}
}

// Face turns the player in place.
func (c *InputController) Face(dir game.Direction) {
	c.mu.Lock()
	ok := c.enabled
	c.mu.Unlock()
	if ok && dir.Valid() {
		c.send(protocol.Rotate(dir))
	}
}

// Stop disables the controller permanently and cancels the repeat timer.
func (c *InputController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.release()
	c.enabled = false
	c.stopped = true
}

func (c *InputController) release() {
	c.held = ""
	c.gen++
	stopTimer(&c.repeat)
}

func (c *InputController) armRepeat() {
	gen := c.gen
	c.repeat = c.clock.AfterFunc(c.cooldown, func() { c.onRepeat(gen) })
}

func (c *InputController) onRepeat(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.held == "" || !c.enabled {
		c.mu.Unlock()
		return
	}
	dir := c.held
	send := c.admitMove()
	c.armRepeat()
	c.mu.Unlock()

	if send {
		c.send(protocol.Movement(dir))
	}
}

// admitMove applies the cooldown and records the move when admitted.
func (c *InputController) admitMove() bool {
	now := c.clock.Now()
	if c.moved && now.Sub(c.lastMove) < c.cooldown {
		c.metrics.IncMovesThrottled()
		return false
	}
	c.moved = true
	c.lastMove = now
	return true
}

func (c *InputController) send(msg protocol.Outbound) {
	if err := c.sender.Send(msg); err != nil {
		c.log.Warnw("input dropped", "type", msg.Type, "err", err)
	}
}
