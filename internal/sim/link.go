package sim

import (
	"math"

	"github.com/jaivanshchawla/Satviz/internal/geometry"
	"github.com/jaivanshchawla/Satviz/internal/orbit"
)

// LinkParams are the fixed inputs of a link check for one run.
type LinkParams struct {
	Mode             HandshakeMode
	IridiumHalfAngle float64 // radians
	BeaconHalfAngle  float64 // radians
	EarthCenter      geometry.Vector
	EarthRadiusKm    float64
}

// NewLinkParams derives half angles from the configured full FOVs.
func NewLinkParams(cfg Config, phys orbit.Physics) LinkParams {
	return LinkParams{
		Mode:             cfg.Mode,
		IridiumHalfAngle: cfg.IridiumFOVDeg / 2 * math.Pi / 180,
		BeaconHalfAngle:  cfg.BeaconFOVDeg / 2 * math.Pi / 180,
		EarthRadiusKm:    phys.EarthRadiusKm,
	}
}

// LinkCheck records how a link decision was reached.
type LinkCheck struct {
	Active bool

	// BeaconInIridiumFOV is the first test in both modes.
	BeaconInIridiumFOV bool
	// IridiumInBeaconFOV is only evaluated in bi-directional mode, and only
	// when BeaconInIridiumFOV held.
	IridiumInBeaconFOV bool
	IridiumSideChecked bool

	LineOfSightChecked bool
	LineOfSightClear   bool

	// Degenerate derivations seen while building cones.
	NadirDegenerate bool
	// Coincident means the Beacon sat on an Iridium cone tip, so the
	// direction between them was undefined and the cone test failed.
	Coincident      bool
	IridiumHorizon  geometry.HorizonStatus
	BeaconHorizon   geometry.HorizonStatus
}

// CanCommunicate decides whether the Beacon and one Iridium satellite have a
// usable link at the same instant. The cone test runs first; the
// occultation test only runs when it passes.
func CanCommunicate(b, ir orbit.State, p LinkParams) LinkCheck {
	var chk LinkCheck

	switch p.Mode {
	case ModeBidirectional:
		irCones, irStatus := geometry.HorizonCones(ir.Position, ir.Velocity, p.IridiumHalfAngle, "iridium")
		chk.IridiumHorizon = irStatus
		chk.Coincident = len(irCones) > 0 && geometry.TargetAtTip(b.Position, irCones[0])
		chk.BeaconInIridiumFOV = geometry.InAnyCone(b.Position, irCones)
		if !chk.BeaconInIridiumFOV {
			return chk
		}

		bCones, bStatus := geometry.HorizonCones(b.Position, b.Velocity, p.BeaconHalfAngle, "beacon")
		chk.BeaconHorizon = bStatus
		chk.IridiumSideChecked = true
		chk.IridiumInBeaconFOV = geometry.InAnyCone(ir.Position, bCones)
		if !chk.IridiumInBeaconFOV {
			return chk
		}

	default:
		cone, ok := geometry.NadirCone(ir.Position, p.IridiumHalfAngle, "iridium-nadir")
		if !ok {
			chk.NadirDegenerate = true
			return chk
		}
		chk.Coincident = geometry.TargetAtTip(b.Position, cone)
		chk.BeaconInIridiumFOV = geometry.PointInCone(b.Position, cone)
		if !chk.BeaconInIridiumFOV {
			return chk
		}
	}

	chk.LineOfSightChecked = true
	chk.LineOfSightClear = geometry.LineOfSightClear(b.Position, ir.Position, p.EarthCenter, p.EarthRadiusKm)
	chk.Active = chk.LineOfSightClear
	return chk
}
