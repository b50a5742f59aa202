// Package parser turns decoded wire frames into the radar picture used by the
// targeting code.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/elixoids/miner/internal/geo"
	"github.com/elixoids/miner/internal/model/core"
	"github.com/elixoids/miner/pkg/streaming"
)

// ErrMalformedFrame is returned when a frame decodes but cannot describe a
// consistent radar picture.
var ErrMalformedFrame = errors.New("malformed frame")

// Parser provides pure streaming.Frame -> core.Frame conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger

	// Static config set at creation time
	saucerName   string
	saucerRadius float64
}

// NewParser creates a parser. Ship entries named saucerName become the
// synthetic saucer target with the given radius.
func NewParser(logger *slog.Logger, saucerName string, saucerRadius float64) *Parser {
	return &Parser{
		logger:       logger,
		saucerName:   saucerName,
		saucerRadius: saucerRadius,
	}
}

// Decode decodes raw bytes and parses them in one step.
func (p *Parser) Decode(data []byte) (core.Frame, error) {
	f, err := streaming.DecodeFrame(data)
	if err != nil {
		return core.Frame{}, err
	}
	return p.ParseFrame(f)
}

// ParseFrame converts a decoded frame. Bearings are normalized; duplicate ids
// and non-finite numbers are rejected.
func (p *Parser) ParseFrame(f streaming.Frame) (core.Frame, error) {
	if f.Theta == nil {
		return core.Frame{}, fmt.Errorf("%w: theta: %w", ErrMalformedFrame, streaming.ErrMissingField)
	}
	if !finite(*f.Theta) {
		return core.Frame{}, fmt.Errorf("%w: theta %v", ErrMalformedFrame, *f.Theta)
	}

	contacts := make(core.Snapshot, len(f.Rocks)+1)
	for _, r := range f.Rocks {
		if r.ID == core.SaucerID {
			return core.Frame{}, fmt.Errorf("%w: rock uses reserved id %d", ErrMalformedFrame, r.ID)
		}
		if _, dup := contacts[r.ID]; dup {
			return core.Frame{}, fmt.Errorf("%w: duplicate rock id %d", ErrMalformedFrame, r.ID)
		}
		if !finite(r.Theta) || !finite(r.Distance) || !finite(r.Radius) {
			return core.Frame{}, fmt.Errorf("%w: rock %d has non-finite values", ErrMalformedFrame, r.ID)
		}
		contacts[r.ID] = core.Target{
			Bearing:  geo.Normalize(r.Theta),
			Distance: r.Distance,
			Radius:   r.Radius,
		}
	}

	for _, s := range f.Ships {
		if s.Name != p.saucerName {
			continue
		}
		if !finite(s.Theta) || !finite(s.Distance) {
			return core.Frame{}, fmt.Errorf("%w: saucer has non-finite values", ErrMalformedFrame)
		}
		contacts[core.SaucerID] = core.Target{
			Bearing:  geo.Normalize(s.Theta),
			Distance: s.Distance,
			Radius:   p.saucerRadius,
		}
		break
	}

	p.logger.Debug("Parsed frame",
		"rocks", len(f.Rocks),
		"ships", len(f.Ships),
		"contacts", len(contacts))

	return core.Frame{
		Heading:  geo.Normalize(*f.Theta),
		Contacts: contacts,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
