package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/robalobadob/neuroterm/internal/game"
)

// Record is one finished game.
type Record struct {
	SessionID  string       `json:"sessionId"`
	Mode       game.Mode    `json:"mode"`
	Outcome    game.Outcome `json:"outcome"`
	Attempts   int          `json:"attempts"`
	FinishedAt time.Time    `json:"finishedAt"`
}

// ModeSummary aggregates finished games of one mode.
type ModeSummary struct {
	Mode   game.Mode `json:"mode"`
	Played int       `json:"played"`
	Wins   int       `json:"wins"`
}

// Store persists finished games in the game_results table.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Record inserts rec.
func (s *Store) Record(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO game_results(session_id, mode, outcome, attempts, finished_at)
		 VALUES(?,?,?,?,?)`,
		rec.SessionID, string(rec.Mode), string(rec.Outcome), rec.Attempts,
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Recent returns up to limit games, newest first. Default limit is 20.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, mode, outcome, attempts, finished_at
		 FROM game_results
		 ORDER BY finished_at DESC, id DESC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var r Record
		var mode, outcome, finished string
		if err := rows.Scan(&r.SessionID, &mode, &outcome, &r.Attempts, &finished); err != nil {
			return nil, err
		}
		r.Mode = game.Mode(mode)
		r.Outcome = game.Outcome(outcome)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summary counts games and wins per mode.
func (s *Store) Summary(ctx context.Context) ([]ModeSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT mode, COUNT(1), SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END)
		 FROM game_results
		 GROUP BY mode
		 ORDER BY mode`, string(game.OutcomeWon),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ModeSummary
	for rows.Next() {
		var (
			m    ModeSummary
			mode string
		)
		if err := rows.Scan(&mode, &m.Played, &m.Wins); err != nil {
			return nil, err
		}
		m.Mode = game.Mode(mode)
		out = append(out, m)
	}
	return out, rows.Err()
}
