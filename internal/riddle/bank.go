// internal/riddle/bank.go
//
// Offline riddle source.
//
// Loading behavior (LoadBank):
//   1. If path is set (RIDDLES_FILE), read a JSON array of {question, answer, hint}.
//   2. Otherwise use the embedded default_riddles.json.
//
// Entries missing any field are skipped. An empty result is an error.

package riddle

import (
	"context"
	"crypto/rand"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/robalobadob/neuroterm/internal/game"
)

//go:embed default_riddles.json
var embeddedRiddles []byte

// Bank serves riddles from a fixed in-memory list.
type Bank struct {
	riddles []game.Riddle
}

// LoadBank reads riddles from path, or the embedded defaults when path is empty.
func LoadBank(path string) (*Bank, error) {
	raw := embeddedRiddles
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read riddles %s: %w", path, err)
		}
		raw = b
	}
	var list []game.Riddle
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parse riddles: %w", err)
	}
	return NewBank(list)
}

// NewBank keeps the valid riddles of list.
func NewBank(list []game.Riddle) (*Bank, error) {
	b := &Bank{}
	for _, r := range list {
		if v, err := validate(r); err == nil {
			b.riddles = append(b.riddles, v)
		}
	}
	if len(b.riddles) == 0 {
		return nil, errors.New("riddle: bank is empty")
	}
	return b, nil
}

// Len reports the number of riddles.
func (b *Bank) Len() int { return len(b.riddles) }

// Generate implements Provider with a cryptographically random pick.
func (b *Bank) Generate(ctx context.Context) (game.Riddle, error) {
	if err := ctx.Err(); err != nil {
		return game.Riddle{}, err
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(b.riddles))))
	if err != nil {
		return game.Riddle{}, err
	}
	return b.riddles[n.Int64()], nil
}
