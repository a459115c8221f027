// Package scan simulates planetary probes whose work runs inside bus handlers.
package scan

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coachpo/taskbus/internal/bus/eventbus"
)

// TypePlanetaryScan tags scan requests on the bus.
const TypePlanetaryScan eventbus.EventType = "scan.planetary"

// PlanetaryScan is published with PlanetID and ProbeID set. The scanner fills
// the remaining fields while the dispatch runs.
type PlanetaryScan struct {
	PlanetID int
	ProbeID  uuid.UUID

	Distance          float32
	AtmosphereDensity float32
	CalculationTime   time.Duration
	Attempts          int
}

func (*PlanetaryScan) Type() eventbus.EventType      { return TypePlanetaryScan }
func (*PlanetaryScan) Name() string                  { return "PlanetaryScan" }
func (*PlanetaryScan) Categories() eventbus.Category { return eventbus.CategoryApplication }
func (e *PlanetaryScan) String() string {
	return fmt.Sprintf("PlanetaryScan #%d (%s)", e.PlanetID, e.ProbeID)
}
