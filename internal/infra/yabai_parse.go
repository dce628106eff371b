package infra

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
)

// yabaiWindow mirrors one element of `yabai -m query --windows`.
// Pointers distinguish missing fields from zero values. Flags are raw because
// yabai 3.x emits 0/1 integers where 4.x+ emits booleans under new names.
type yabaiWindow struct {
	ID        *int            `json:"id"`
	PID       *int            `json:"pid"`
	App       string          `json:"app"`
	Title     string          `json:"title"`
	Frame     *domain.Frame   `json:"frame"`
	Space     int             `json:"space"`
	Display   int             `json:"display"`
	HasFocus  json.RawMessage `json:"has-focus"`
	Focused   json.RawMessage `json:"focused"`
	IsVisible json.RawMessage `json:"is-visible"`
	Visible   json.RawMessage `json:"visible"`
	IsMin     json.RawMessage `json:"is-minimized"`
	Minimized json.RawMessage `json:"minimized"`
}

type yabaiDisplay struct {
	ID    *int          `json:"id"`
	Index int           `json:"index"`
	Frame *domain.Frame `json:"frame"`
}

// ParseWindows validates yabai window output. The top level must be an array;
// elements without a positive id or pid are dropped, other missing fields
// default to zero values.
func ParseWindows(data []byte) ([]domain.RawWindowDescriptor, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &raw); err != nil {
		return nil, fmt.Errorf("decode windows: %w", err)
	}

	result := make([]domain.RawWindowDescriptor, 0, len(raw))
	for _, item := range raw {
		var w yabaiWindow
		if err := json.Unmarshal(item, &w); err != nil {
			continue
		}
		if w.ID == nil || *w.ID <= 0 || w.PID == nil || *w.PID <= 0 {
			continue
		}
		d := domain.RawWindowDescriptor{
			Handle:    *w.ID,
			PID:       *w.PID,
			App:       w.App,
			Title:     w.Title,
			Space:     w.Space,
			Display:   w.Display,
			Focused:   flag(w.HasFocus, w.Focused),
			Visible:   flag(w.IsVisible, w.Visible),
			Minimized: flag(w.IsMin, w.Minimized),
		}
		if w.Frame != nil {
			d.Frame = *w.Frame
		}
		result = append(result, d)
	}
	return result, nil
}

// ParseDisplays validates yabai display output.
func ParseDisplays(data []byte) ([]domain.Display, error) {
	var raw []yabaiDisplay
	if err := json.Unmarshal(bytes.TrimSpace(data), &raw); err != nil {
		return nil, fmt.Errorf("decode displays: %w", err)
	}

	result := make([]domain.Display, 0, len(raw))
	for _, d := range raw {
		if d.ID == nil || d.Frame == nil || d.Frame.Height <= 0 {
			continue
		}
		result = append(result, domain.Display{ID: *d.ID, Index: d.Index, Frame: *d.Frame})
	}
	return result, nil
}

// flag reads the first present value as a boolean; numbers are true when non-zero.
func flag(values ...json.RawMessage) bool {
	for _, v := range values {
		if len(v) == 0 {
			continue
		}
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			return b
		}
		var n float64
		if err := json.Unmarshal(v, &n); err == nil {
			return n != 0
		}
	}
	return false
}
