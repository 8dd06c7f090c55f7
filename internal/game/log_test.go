package game

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_AppendPreservesOrder(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	l := NewLog(WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}))

	for i := 0; i < 50; i++ {
		l.Append(strconv.Itoa(i), CategoryOutput)
	}

	lines := l.Lines()
	require.Len(t, lines, 50)
	seen := map[string]bool{}
	for i, ln := range lines {
		assert.Equal(t, strconv.Itoa(i), ln.Text)
		assert.Equal(t, base.Add(time.Duration(i+1)*time.Second), ln.CreatedAt)
		assert.False(t, seen[ln.ID], "duplicate id %s", ln.ID)
		seen[ln.ID] = true
	}
}

func TestLog_LinesIsACopy(t *testing.T) {
	l := NewLog()
	l.Append("a", CategoryOutput)
	got := l.Lines()
	got[0].Text = "mutated"
	assert.Equal(t, "a", l.Lines()[0].Text)
}

func TestLog_ClearThenAppend(t *testing.T) {
	l := NewLog()
	l.Append("old 1", CategoryOutput)
	l.Append("old 2", CategoryError)

	res := Command(Idle{}, "clear", nil)
	require.Equal(t, EffectClear, res.Effect)
	l.Clear()
	for _, o := range res.Lines {
		l.Append(o.Text, o.Category)
	}

	lines := l.Lines()
	require.GreaterOrEqual(t, len(lines), 1)
	for _, ln := range lines {
		assert.NotContains(t, []string{"old 1", "old 2"}, ln.Text)
	}
}

func TestLog_Observer(t *testing.T) {
	var events []Event
	l := NewLog(WithObserver(func(e Event) { events = append(events, e) }))
	l.Append("x", CategorySystem)
	l.Clear()

	require.Len(t, events, 2)
	assert.Equal(t, "x", events[0].Line.Text)
	assert.False(t, events[0].Cleared)
	assert.True(t, events[1].Cleared)
	assert.Equal(t, 0, l.Len())
}
