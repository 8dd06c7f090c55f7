// internal/game/types.go
//
// Core type definitions for the terminal game engine.
// Defines:
//   - Category: display class of a terminal line (input/output/error/...).
//   - Line: one immutable entry of the terminal log.
//   - Riddle: question/answer/hint triple supplied by a riddle provider.
//   - State: the active mode, as a closed set of variants (Idle, NumberGuess, RiddleGuess).
//   - Outcome: how a game ended, reported for history.

package game

import "time"

// Category represents the display class of a terminal line.
// Possible values:
//   - "input":   echo of a submitted line.
//   - "output":  plain program output.
//   - "error":   recoverable user-facing error.
//   - "success": positive confirmation (game won, mode started).
//   - "system":  shell/system notices.
//   - "ai":      text produced by the riddle model.
type Category string

const (
	CategoryInput   Category = "input"
	CategoryOutput  Category = "output"
	CategoryError   Category = "error"
	CategorySuccess Category = "success"
	CategorySystem  Category = "system"
	CategoryAI      Category = "ai"
)

// Prefix returns the display prefix rendered in front of a line of this category.
func (c Category) Prefix() string {
	switch c {
	case CategoryInput:
		return "> "
	case CategoryError:
		return "ERR >> "
	case CategorySuccess:
		return "OK >> "
	case CategorySystem:
		return "SYS >> "
	case CategoryAI:
		return "AI@CORE: "
	default:
		return ""
	}
}

// Line is a single entry of the terminal log. Lines are never mutated after append.
type Line struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Riddle is the payload of riddle mode.
type Riddle struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Hint     string `json:"hint"`
}

// Mode names the active State variant.
type Mode string

const (
	ModeIdle        Mode = "idle"
	ModeNumberGuess Mode = "number_guess"
	ModeRiddleGuess Mode = "riddle_guess"
)

// State is the current mode of a terminal. The set of variants is closed:
// only Idle, NumberGuess and RiddleGuess implement it.
type State interface {
	Mode() Mode
	Attempts() int
	sealed()
}

// Idle is the shell mode. It carries no game data.
type Idle struct{}

// NumberGuess is active while the player searches for Target in [1,100].
type NumberGuess struct {
	Target int
	Count  int
}

// RiddleGuess is active while the player tries to answer Riddle.
type RiddleGuess struct {
	Riddle Riddle
	Count  int
}

func (Idle) Mode() Mode    { return ModeIdle }
func (Idle) Attempts() int { return 0 }
func (Idle) sealed()       {}

func (NumberGuess) Mode() Mode      { return ModeNumberGuess }
func (s NumberGuess) Attempts() int { return s.Count }
func (NumberGuess) sealed()         {}

func (RiddleGuess) Mode() Mode      { return ModeRiddleGuess }
func (s RiddleGuess) Attempts() int { return s.Count }
func (RiddleGuess) sealed()         {}

// Outcome reports how a game ended. OutcomeNone means the game is still running
// (or no game was involved).
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeWon     Outcome = "won"
	OutcomeGaveUp  Outcome = "gave_up"
	OutcomeAborted Outcome = "aborted"
)
