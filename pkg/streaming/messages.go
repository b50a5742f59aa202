// Package streaming defines the JSON wire format exchanged with the game server
// over the ship websocket.
package streaming

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingField is returned when a frame lacks a required key.
var ErrMissingField = errors.New("missing field")

// Frame is one inbound game-state update, delivered once per tick.
type Frame struct {
	Theta *float64 `json:"theta"`
	Rocks []Rock   `json:"rocks"`
	Ships []Ship   `json:"ships"`
}

// Rock is encoded as [id, theta, radius, distance].
type Rock struct {
	ID       int
	Theta    float64
	Radius   float64
	Distance float64
}

// Ship is encoded as [name, theta, distance].
type Ship struct {
	Name     string
	Theta    float64
	Distance float64
}

// Command is the outbound decision. Fire is omitted when nil.
type Command struct {
	Theta float64 `json:"theta"`
	Fire  *bool   `json:"fire,omitempty"`
}

// UnmarshalJSON decodes the positional rock tuple.
func (r *Rock) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("rock: %w", err)
	}
	if len(raw) != 4 {
		return fmt.Errorf("rock: expected 4 elements, got %d", len(raw))
	}
	var id float64
	if err := json.Unmarshal(raw[0], &id); err != nil {
		return fmt.Errorf("rock id: %w", err)
	}
	if id != float64(int(id)) {
		return fmt.Errorf("rock id: %v is not an integer", id)
	}
	r.ID = int(id)
	if err := json.Unmarshal(raw[1], &r.Theta); err != nil {
		return fmt.Errorf("rock %d theta: %w", r.ID, err)
	}
	if err := json.Unmarshal(raw[2], &r.Radius); err != nil {
		return fmt.Errorf("rock %d radius: %w", r.ID, err)
	}
	if err := json.Unmarshal(raw[3], &r.Distance); err != nil {
		return fmt.Errorf("rock %d distance: %w", r.ID, err)
	}
	return nil
}

// MarshalJSON encodes the positional rock tuple.
func (r Rock) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.ID, r.Theta, r.Radius, r.Distance})
}

// UnmarshalJSON decodes the positional ship tuple.
func (s *Ship) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("ship: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("ship: expected 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &s.Name); err != nil {
		return fmt.Errorf("ship name: %w", err)
	}
	if err := json.Unmarshal(raw[1], &s.Theta); err != nil {
		return fmt.Errorf("ship %s theta: %w", s.Name, err)
	}
	if err := json.Unmarshal(raw[2], &s.Distance); err != nil {
		return fmt.Errorf("ship %s distance: %w", s.Name, err)
	}
	return nil
}

// MarshalJSON encodes the positional ship tuple.
func (s Ship) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Name, s.Theta, s.Distance})
}

// DecodeFrame parses one inbound message. The ship heading is required;
// rocks and ships default to empty.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if f.Theta == nil {
		return Frame{}, fmt.Errorf("decode frame: theta: %w", ErrMissingField)
	}
	return f, nil
}

// EncodeCommand serialises a command for sending.
func EncodeCommand(c Command) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}
	return data, nil
}

// Fire returns a pointer suitable for Command.Fire.
func Fire(v bool) *bool {
	return &v
}
