package domain

import (
	"fmt"
	"math"
)

// Wave power constants.
const (
	// SeawaterDensity in kg/m³.
	SeawaterDensity = 1024.0
	// GravitySquared is g² in m²/s⁴; the flux formula uses g squared.
	GravitySquared = 9.81 * 9.81
	// EnergyColumn is the name of the derived energy flux column.
	EnergyColumn = "CgE"
)

// EnergyCoefficient is ρg²/(64π).
var EnergyCoefficient = (SeawaterDensity * GravitySquared) / (64.0 * math.Pi)

// EnergyFlux returns the deep-water wave energy flux in W/m of wave crest
// length for significant wave height hs (m) and period tp (s):
//
//	CgE = ρg²/(64π) · hs² · tp
func EnergyFlux(hs, tp float64) float64 {
	return EnergyCoefficient * hs * hs * tp
}

// ComputeEnergy adds the CgE column to wide, computed from the hs and tp
// columns. Rows where either input is missing get a missing CgE.
func ComputeEnergy(wide *WideTable, hsColumn, tpColumn string) (*WideTable, error) {
	hs, ok := wide.Column(hsColumn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, hsColumn)
	}
	tp, ok := wide.Column(tpColumn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, tpColumn)
	}

	energy := make([]Cell, wide.Len())
	for i := range energy {
		if !hs[i].Valid || !tp[i].Valid {
			continue
		}
		energy[i] = NewCell(EnergyFlux(hs[i].Value, tp[i].Value))
	}

	if err := wide.SetColumn(EnergyColumn, energy); err != nil {
		return nil, err
	}
	return wide, nil
}
