// internal/game/engine.go
//
// Input routing for a single terminal.
// Responsibilities:
//   - Command: interpret a line typed at the idle shell (help/clear/exit/number/riddle).
//   - Move: interpret a line typed while a game is active.
//   - RiddleReady / RiddleFailed: finish the asynchronous "riddle" command.
//
// Notes:
//   - Every function here is pure: (state, input) -> Result. The caller owns the
//     Log and applies Result.Effect before appending Result.Lines.
//   - The echo of the raw input line is the caller's job, not the engine's.
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

const (
	minTarget = 1
	maxTarget = 100
)

// Effect is a side effect the caller must perform on top of the state change.
type Effect int

const (
	EffectNone Effect = iota
	// EffectClear empties the log before Result.Lines are appended.
	EffectClear
	// EffectReset discards the whole terminal and boots a fresh one.
	EffectReset
	// EffectFetchRiddle asks the riddle provider for a riddle; the caller
	// later feeds the answer to RiddleReady or RiddleFailed.
	EffectFetchRiddle
)

// Output is a line to be appended to the log.
type Output struct {
	Category Category
	Text     string
}

// Result is the outcome of routing one input line.
type Result struct {
	State   State
	Lines   []Output
	Effect  Effect
	Outcome Outcome
	// Ended is the game that just finished, with its final attempt count.
	// Nil unless Outcome != OutcomeNone.
	Ended State
}

// Picker returns a uniformly random int in [0, n).
type Picker func(n int) int

// DefaultPicker draws from math/rand/v2.
func DefaultPicker(n int) int { return rand.Intn(n) }

func (r *Result) add(c Category, text string) {
	r.Lines = append(r.Lines, Output{Category: c, Text: text})
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Command handles a line typed at the idle shell.
func Command(st State, input string, pick Picker) Result {
	res := Result{State: st}
	cmd := normalize(input)

	switch cmd {
	case "help":
		res.add(CategorySystem, "--- AVAILABLE COMMANDS ---")
		res.add(CategoryOutput, "  riddle  - Start AI Riddle Mode")
		res.add(CategoryOutput, "  number  - Start Number Guessing (1-100)")
		res.add(CategoryOutput, "  clear   - Clear terminal")
		res.add(CategoryOutput, "  exit    - Reboot terminal")

	case "clear":
		res.Effect = EffectClear
		res.add(CategorySystem, "Terminal cleared.")

	case "exit":
		res.Effect = EffectReset
		res.State = Idle{}

	case "number":
		if pick == nil {
			pick = DefaultPicker
		}
		target := minTarget + pick(maxTarget-minTarget+1)
		res.State = NumberGuess{Target: target}
		res.add(CategorySuccess, "NUMBER GUESS MODE INITIALIZED")
		res.add(CategoryOutput, fmt.Sprintf("I have selected a number between %d and %d.", minTarget, maxTarget))
		res.add(CategorySystem, "Enter your guess:")

	case "riddle":
		res.Effect = EffectFetchRiddle
		res.add(CategorySystem, "Contacting AI for a new riddle...")

	default:
		res.add(CategoryError, fmt.Sprintf("Command not found: '%s'. Type 'help' for list.", cmd))
	}
	return res
}

// RiddleReady enters riddle mode with r.
func RiddleReady(r Riddle) Result {
	res := Result{State: RiddleGuess{Riddle: r}}
	res.add(CategorySuccess, "RIDDLE GENERATED SUCCESSFULLY")
	res.add(CategoryAI, r.Question)
	res.add(CategorySystem, "(Type 'hint' for a clue, or 'giveup' to forfeit)")
	return res
}

// RiddleFailed reports a failed riddle request. The shell stays idle.
func RiddleFailed() Result {
	res := Result{State: Idle{}}
	res.add(CategoryError, "Failed to generate riddle. Try again.")
	return res
}

// Move handles a line typed while a game is active. Calling it in Idle is a no-op.
func Move(st State, input string) Result {
	guess := strings.TrimSpace(input)
	word := strings.ToLower(guess)

	if _, idle := st.(Idle); !idle && (word == "quit" || word == "exit") {
		res := finish(st, OutcomeAborted)
		res.add(CategorySystem, "Game aborted. Returning to idle.")
		return res
	}

	switch s := st.(type) {
	case NumberGuess:
		return moveNumber(s, guess)
	case RiddleGuess:
		return moveRiddle(s, word)
	default:
		return Result{State: st}
	}
}

func moveNumber(s NumberGuess, guess string) Result {
	n, err := parseLeadingInt(guess)
	if err != nil {
		res := Result{State: s}
		res.add(CategoryError, "Please enter a valid number.")
		return res
	}

	s.Count++
	switch {
	case n == s.Target:
		res := finish(s, OutcomeWon)
		res.add(CategorySuccess, fmt.Sprintf("CORRECT! The number was %d.", s.Target))
		res.add(CategorySuccess, fmt.Sprintf("You won in %d attempts.", s.Count))
		res.add(CategorySystem, "Returning to shell...")
		return res
	case n < s.Target:
		res := Result{State: s}
		res.add(CategoryOutput, fmt.Sprintf("Too low! (Attempt %d)", s.Count))
		return res
	default:
		res := Result{State: s}
		res.add(CategoryOutput, fmt.Sprintf("Too high! (Attempt %d)", s.Count))
		return res
	}
}

// moveRiddle counts every line as an attempt, hint and giveup included.
func moveRiddle(s RiddleGuess, word string) Result {
	s.Count++

	switch word {
	case "giveup":
		res := finish(s, OutcomeGaveUp)
		res.add(CategorySystem, "You gave up! The answer was: "+s.Riddle.Answer)
		return res
	case "hint":
		res := Result{State: s}
		res.add(CategoryAI, "HINT: "+s.Riddle.Hint)
		return res
	}

	if strings.Contains(word, strings.ToLower(s.Riddle.Answer)) {
		res := finish(s, OutcomeWon)
		res.add(CategorySuccess, fmt.Sprintf("CORRECT! The answer is indeed '%s'.", s.Riddle.Answer))
		res.add(CategorySuccess, fmt.Sprintf("Solved in %d attempts.", s.Count))
		return res
	}
	res := Result{State: s}
	res.add(CategoryError, "Incorrect. Try again.")
	return res
}

func finish(ended State, o Outcome) Result {
	return Result{State: Idle{}, Outcome: o, Ended: ended}
}

var errNotANumber = errors.New("not a number")

// parseLeadingInt reads an optional sign followed by decimal digits from the
// start of s and ignores whatever follows ("42abc" -> 42). Values too large
// for an int saturate.
func parseLeadingInt(s string) (int, error) {
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, errNotANumber
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, err
	}
	return n, nil
}
