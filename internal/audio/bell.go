// Package audio plays best-effort terminal cues.
package audio

import (
	"io"

	"github.com/verte-zerg/tuivia/internal/session"
)

// Bell rings the terminal bell for game cues. The terminal collapses all cue
// kinds into the same bell; the distinction only matters for players with a
// visual bell configured.
type Bell struct {
	w       io.Writer
	enabled bool
}

// NewBell returns a Bell writing to w. A disabled bell swallows every cue.
func NewBell(w io.Writer, enabled bool) *Bell {
	return &Bell{w: w, enabled: enabled}
}

// PlayCue implements session.CuePlayer.
func (b *Bell) PlayCue(session.CueKind) error {
	if !b.enabled || b.w == nil {
		return nil
	}
	_, err := b.w.Write([]byte{'\a'})
	return err
}
