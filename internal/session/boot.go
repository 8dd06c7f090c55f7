package session

import (
	"math/rand"
	"time"

	"github.com/robalobadob/neuroterm/internal/game"
)

// BootLines are printed, in order, every time a terminal starts.
var BootLines = []string{
	"Initializing NeuroTerm v1.0...",
	"Loading core modules...",
	"Connecting to Neural Network...",
	"Connection established.",
	"Type 'help' for available commands.",
}

// defaultBootDelay returns 400-700ms, purely for presentation.
func defaultBootDelay() time.Duration {
	return 400*time.Millisecond + time.Duration(rand.Int63n(int64(300*time.Millisecond)))
}

// startBoot prints the boot lines. With pacing on, each line is a timer that
// schedules the next one, so the lines keep their order while user input may
// land in between. Caller holds mu.
func (t *Terminal) startBoot() {
	if !t.opts.BootPacing {
		for _, msg := range BootLines {
			t.log.Append(msg, game.CategorySystem)
		}
		return
	}
	t.wg.Add(1)
	t.scheduleBoot(t.gen, 0)
}

// scheduleBoot arms the timer for BootLines[i]. Caller holds mu.
func (t *Terminal) scheduleBoot(gen uint64, i int) {
	t.boot = time.AfterFunc(t.opts.BootDelay(), func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if gen != t.gen {
			t.wg.Done()
			return
		}
		t.log.Append(BootLines[i], game.CategorySystem)
		if i+1 < len(BootLines) {
			t.scheduleBoot(gen, i+1)
			return
		}
		t.boot = nil
		t.wg.Done()
	})
}

// stopBoot cancels a pending boot line. If the timer already fired, its
// callback sees the new generation and releases the wait group itself.
// Caller holds mu.
func (t *Terminal) stopBoot() {
	if t.boot == nil {
		return
	}
	if t.boot.Stop() {
		t.wg.Done()
	}
	t.boot = nil
}
