package domain

import (
	"sort"
	"time"
)

type AckState string

const (
	AckUnacknowledged AckState = "UNACKNOWLEDGED"
	AckAcknowledged   AckState = "ACKNOWLEDGED"
)

func (l TemperatureLog) AckState() AckState {
	if l.Acknowledged {
		return AckAcknowledged
	}
	return AckUnacknowledged
}

// Acknowledge moves the log to ACKNOWLEDGED. It reports whether the state
// changed; acknowledging twice is not an error. Non-breach logs are rejected.
func (l *TemperatureLog) Acknowledge() (bool, error) {
	if !l.Breach {
		return false, ErrNotBreach
	}
	if l.Acknowledged {
		return false, nil
	}
	l.Acknowledged = true
	return true, nil
}

// SortByRecency orders rows newest first. Equal timestamps fall back to id
// descending so repeated calls return the same order.
func SortByRecency(rows []LogWithDevice) {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := rows[i].Timestamp, rows[j].Timestamp
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return rows[i].ID > rows[j].ID
	})
}

type Summary struct {
	Total          int `json:"total"`
	Breaches       int `json:"breaches"`
	Acknowledged   int `json:"acknowledged"`
	Unacknowledged int `json:"unacknowledged"`
}

// Summarize counts breaches; acknowledgment counts only consider breach rows.
func Summarize(logs []TemperatureLog) Summary {
	s := Summary{Total: len(logs)}
	for _, l := range logs {
		if !l.Breach {
			continue
		}
		s.Breaches++
		if l.Acknowledged {
			s.Acknowledged++
		}
	}
	s.Unacknowledged = s.Breaches - s.Acknowledged
	return s
}

// Snapshot is the dashboard read model handed to presentation.
type Snapshot struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Entries     []LogWithDevice `json:"entries"`
	Summary     Summary         `json:"summary"`
}
