package market

import "time"

// SessionWindow is a fixed daily time window (kill zone) used as a
// liquidity source. Hours are UTC; EndHour is exclusive.
type SessionWindow struct {
	Name      string `json:"name"`
	StartHour int    `json:"startHour"`
	EndHour   int    `json:"endHour"`
}

// Contains reports whether t falls inside the window on its UTC day.
func (s SessionWindow) Contains(t time.Time) bool {
	h := t.UTC().Hour()
	return h >= s.StartHour && h < s.EndHour
}

// DefaultSessions returns the standard London and New York kill zones.
func DefaultSessions() []SessionWindow {
	return []SessionWindow{
		{Name: "london", StartHour: 7, EndHour: 10},
		{Name: "newyork", StartHour: 12, EndHour: 15},
	}
}
