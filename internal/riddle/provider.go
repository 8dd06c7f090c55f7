// internal/riddle/provider.go
//
// Riddle sources for the terminal's "riddle" command.
// Responsibilities:
//   - Provider: the contract the terminal calls (no input, returns a riddle or fails).
//   - Decorators: WithTimeout, WithLimit and WithFallback wrap any Provider.
//
// Typical wiring (see main.go); the terminal adds WithTimeout on top:
//
//	WithFallback(WithLimit(gemini, rate, burst), Echo)
package riddle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/robalobadob/neuroterm/internal/game"
)

var (
	// ErrRateLimited is returned by WithLimit when the upstream budget is spent.
	ErrRateLimited = errors.New("riddle: rate limited")
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("riddle: empty response")
)

// Echo is the stand-in riddle served when a real source fails.
var Echo = game.Riddle{
	Question: "I speak without a mouth and hear without ears. I have no body, but I come alive with wind. What am I?",
	Answer:   "Echo",
	Hint:     "It involves sound reflection.",
}

// Provider produces riddles.
type Provider interface {
	Generate(ctx context.Context) (game.Riddle, error)
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(ctx context.Context) (game.Riddle, error)

func (f ProviderFunc) Generate(ctx context.Context) (game.Riddle, error) { return f(ctx) }

// validate trims every field and rejects riddles with a missing part.
// An empty answer would match every guess.
func validate(r game.Riddle) (game.Riddle, error) {
	r.Question = strings.TrimSpace(r.Question)
	r.Answer = strings.TrimSpace(r.Answer)
	r.Hint = strings.TrimSpace(r.Hint)
	switch {
	case r.Question == "":
		return r, errors.New("riddle: missing question")
	case r.Answer == "":
		return r, errors.New("riddle: missing answer")
	case r.Hint == "":
		return r, errors.New("riddle: missing hint")
	}
	return r, nil
}

// WithTimeout bounds every call to p by d.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return ProviderFunc(func(ctx context.Context) (game.Riddle, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return p.Generate(ctx)
	})
}

// WithLimit rejects calls beyond perSecond (with the given burst) instead of
// queueing them. perSecond <= 0 disables the limit.
func WithLimit(p Provider, perSecond float64, burst int) Provider {
	if perSecond <= 0 {
		return p
	}
	lim := rate.NewLimiter(rate.Limit(perSecond), burst)
	return ProviderFunc(func(ctx context.Context) (game.Riddle, error) {
		if !lim.Allow() {
			return game.Riddle{}, ErrRateLimited
		}
		return p.Generate(ctx)
	})
}

// WithFallback never fails: any error from p is logged and replaced by fallback.
func WithFallback(p Provider, fallback game.Riddle) Provider {
	return ProviderFunc(func(ctx context.Context) (game.Riddle, error) {
		r, err := p.Generate(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("riddle provider failed; serving fallback riddle")
			return fallback, nil
		}
		return r, nil
	})
}

// Static always returns r. Useful as a deterministic source.
func Static(r game.Riddle) Provider {
	return ProviderFunc(func(ctx context.Context) (game.Riddle, error) {
		if err := ctx.Err(); err != nil {
			return game.Riddle{}, fmt.Errorf("riddle: %w", err)
		}
		return r, nil
	})
}
