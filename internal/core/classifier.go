package core

import (
	"time"

	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

const DefaultDividerThreshold = 2 * time.Minute

type ClassifyOptions struct {
	// DividerThreshold is the gap between two adjacent messages above which a
	// divider renders between them. Zero or negative means DefaultDividerThreshold.
	DividerThreshold time.Duration
}

func (o ClassifyOptions) threshold() time.Duration {
	if o.DividerThreshold <= 0 {
		return DefaultDividerThreshold
	}
	return o.DividerThreshold
}

// Classify recomputes the derived fields of history[from:] in place.
// Every message depends only on itself and its predecessor, so entries before from
// are never touched and never need to be.
//
// Grouping uses arrival order plus SenderAlias and Direction; timestamps are only
// consulted for the divider gap, and a negative gap (clock skew) never divides.
func Classify(history []domain.Message, from int, opts ClassifyOptions) {
	if from < 0 {
		from = 0
	}
	th := opts.threshold()
	for i := from; i < len(history); i++ {
		m := &history[i]
		if i == 0 {
			m.DividerBefore = false
			m.Classification = domain.Standalone
			continue
		}
		prev := &history[i-1]
		m.DividerBefore = m.Timestamp.Sub(prev.Timestamp) > th
		if !m.DividerBefore && sameRun(prev, m) {
			m.Classification = domain.GroupedWithPrevious
		} else {
			m.Classification = domain.Standalone
		}
	}
}

// Classified is the pure form of Classify: it returns a classified copy.
func Classified(history []domain.Message, opts ClassifyOptions) []domain.Message {
	out := make([]domain.Message, len(history))
	for i := range history {
		out[i] = history[i].Clone()
	}
	Classify(out, 0, opts)
	return out
}

func sameRun(prev, m *domain.Message) bool {
	return prev.SenderAlias == m.SenderAlias && prev.Direction == m.Direction
}

// Row is one display line. Divider rows carry no message, only the time of the
// message they precede and the gap that caused them.
type Row struct {
	Kind    domain.Classification
	Message domain.Message
	At      time.Time
	Gap     time.Duration
}

// Layout flattens classified history into display rows.
func Layout(history []domain.Message) []Row {
	rows := make([]Row, 0, len(history))
	for i, m := range history {
		if m.DividerBefore {
			var gap time.Duration
			if i > 0 {
				gap = m.Timestamp.Sub(history[i-1].Timestamp)
			}
			rows = append(rows, Row{Kind: domain.Divider, At: m.Timestamp, Gap: gap})
		}
		rows = append(rows, Row{Kind: m.Classification, Message: m.Clone(), At: m.Timestamp})
	}
	return rows
}
