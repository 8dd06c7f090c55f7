// internal/session/terminal.go
//
// Terminal is one simulated terminal "process": a line log, the current game
// state and a busy flag, driven by submitted lines.
//
// Responsibilities:
//   - Echo and route submitted lines (game.Command when idle, game.Move otherwise).
//   - Apply engine results: clear, reset (reboot) and asynchronous riddle fetches.
//   - Refuse submissions with ErrBusy while a riddle request is in flight.
//   - Report finished games to a Recorder.
//
// Notes:
//   - All fields are guarded by mu. Background work (riddle fetch, boot pacing,
//     history writes) checks the generation counter so that work started before
//     a reset never touches the rebooted terminal.
//   - The log observer runs with mu held and must not call back into Terminal.

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/neuroterm/internal/game"
	"github.com/robalobadob/neuroterm/internal/history"
	"github.com/robalobadob/neuroterm/internal/riddle"
)

// ErrBusy is returned by Submit while a riddle request is outstanding.
var ErrBusy = errors.New("terminal busy")

// DefaultRiddleTimeout bounds a riddle request when Options.RiddleTimeout is zero.
const DefaultRiddleTimeout = 15 * time.Second

// Recorder receives finished games.
type Recorder interface {
	Record(ctx context.Context, rec history.Record) error
}

// Options configures a Terminal. The zero value is usable: riddles then always fail,
// boot lines print immediately and nothing is recorded.
type Options struct {
	Provider      riddle.Provider
	RiddleTimeout time.Duration
	Picker        game.Picker
	Recorder      Recorder

	// BootPacing spaces the boot lines out with BootDelay between them.
	BootPacing bool
	BootDelay  func() time.Duration

	Observer func(game.Event)
	Clock    func() time.Time
}

// View is a point-in-time copy of a terminal, shaped for rendering.
type View struct {
	ID       string      `json:"id"`
	Lines    []game.Line `json:"lines"`
	Mode     game.Mode   `json:"mode"`
	Attempts int         `json:"attempts"`
	Busy     bool        `json:"busy"`
	Prompt   string      `json:"prompt"`
	Status   string      `json:"status"`
}

// Terminal is safe for concurrent use.
type Terminal struct {
	id       string
	opts     Options
	provider riddle.Provider

	mu         sync.Mutex
	log        *game.Log
	state      game.State
	busy       bool
	gen        uint64
	boot       *time.Timer
	lastActive time.Time

	wg sync.WaitGroup
}

// New boots a terminal identified by id.
func New(id string, opts Options) *Terminal {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Picker == nil {
		opts.Picker = game.DefaultPicker
	}
	if opts.BootDelay == nil {
		opts.BootDelay = defaultBootDelay
	}
	if opts.RiddleTimeout <= 0 {
		opts.RiddleTimeout = DefaultRiddleTimeout
	}

	t := &Terminal{id: id, opts: opts}
	if opts.Provider != nil {
		t.provider = riddle.WithTimeout(opts.Provider, opts.RiddleTimeout)
	}
	logOpts := []game.LogOption{game.WithClock(opts.Clock)}
	if opts.Observer != nil {
		logOpts = append(logOpts, game.WithObserver(opts.Observer))
	}
	t.log = game.NewLog(logOpts...)

	t.mu.Lock()
	t.reboot()
	t.mu.Unlock()
	return t
}

// ID returns the terminal identifier.
func (t *Terminal) ID() string { return t.id }

// Submit feeds one line to the terminal. Blank lines are ignored.
func (t *Terminal) Submit(ctx context.Context, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.busy {
		return ErrBusy
	}
	t.lastActive = t.opts.Clock()
	t.log.Append(raw, game.CategoryInput)

	var res game.Result
	if _, idle := t.state.(game.Idle); idle {
		res = game.Command(t.state, raw, t.opts.Picker)
	} else {
		res = game.Move(t.state, raw)
	}
	t.apply(ctx, res)
	return nil
}

// Reset reboots the terminal: empty log, idle state, boot sequence again.
// A riddle request still in flight is discarded when it returns.
func (t *Terminal) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reboot()
}

// Snapshot returns the current view.
func (t *Terminal) Snapshot() View {
	t.mu.Lock()
	defer t.mu.Unlock()

	v := View{
		ID:       t.id,
		Lines:    t.log.Lines(),
		Mode:     t.state.Mode(),
		Attempts: t.state.Attempts(),
		Busy:     t.busy,
		Prompt:   "> ",
		Status:   "IDLE",
	}
	if v.Mode != game.ModeIdle {
		v.Prompt = "? "
		v.Status = "ACTIVE_PROCESS"
	}
	return v
}

// State returns the current game state.
func (t *Terminal) State() game.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Busy reports whether a riddle request is in flight.
func (t *Terminal) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy
}

// LastActive is the time of the last accepted submission (or creation).
func (t *Terminal) LastActive() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastActive
}

// Wait blocks until background work started so far has finished.
func (t *Terminal) Wait() { t.wg.Wait() }

// Close cancels pending boot lines and waits for background work.
func (t *Terminal) Close() {
	t.mu.Lock()
	t.gen++
	t.stopBoot()
	t.mu.Unlock()
	t.wg.Wait()
}

// apply commits an engine result. Effects run before lines are appended.
// Caller holds mu.
func (t *Terminal) apply(ctx context.Context, res game.Result) {
	switch res.Effect {
	case game.EffectClear:
		t.log.Clear()
	case game.EffectReset:
		t.reboot()
		return
	case game.EffectFetchRiddle:
		t.busy = true
		t.wg.Add(1)
		go t.fetchRiddle(context.WithoutCancel(ctx), t.gen)
	}

	t.state = res.State
	for _, o := range res.Lines {
		t.log.Append(o.Text, o.Category)
	}
	if res.Outcome != game.OutcomeNone && res.Ended != nil {
		t.record(ctx, res)
	}
}

func (t *Terminal) fetchRiddle(ctx context.Context, gen uint64) {
	defer t.wg.Done()

	var (
		r   game.Riddle
		err = errors.New("no riddle provider configured")
	)
	if t.provider != nil {
		r, err = t.provider.Generate(ctx)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		log.Debug().Str("sessionId", t.id).Msg("dropping riddle for rebooted terminal")
		return
	}
	t.busy = false
	if err != nil {
		log.Warn().Err(err).Str("sessionId", t.id).Msg("riddle request failed")
		t.apply(ctx, game.RiddleFailed())
		return
	}
	t.apply(ctx, game.RiddleReady(r))
}

func (t *Terminal) record(ctx context.Context, res game.Result) {
	rec := history.Record{
		SessionID:  t.id,
		Mode:       res.Ended.Mode(),
		Outcome:    res.Outcome,
		Attempts:   res.Ended.Attempts(),
		FinishedAt: t.opts.Clock().UTC(),
	}
	log.Info().
		Str("sessionId", t.id).
		Str("mode", string(rec.Mode)).
		Str("outcome", string(rec.Outcome)).
		Int("attempts", rec.Attempts).
		Msg("game finished")

	if t.opts.Recorder == nil {
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if err := t.opts.Recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
			log.Warn().Err(err).Str("sessionId", rec.SessionID).Msg("record game")
		}
	}()
}

// reboot resets the terminal to a freshly started one. Caller holds mu.
func (t *Terminal) reboot() {
	t.gen++
	t.stopBoot()
	if t.log.Len() > 0 {
		t.log.Clear()
	}
	t.state = game.Idle{}
	t.busy = false
	t.lastActive = t.opts.Clock()
	t.startBoot()
}
