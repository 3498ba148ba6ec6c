package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// UnitCodePrefix starts every positional polling-unit code.
const UnitCodePrefix = "PU-"

// unitNamespace scopes name-based polling-unit ids.
var unitNamespace = uuid.MustParse("6f1c2a4e-7b1d-4f0e-9a53-2d8e5c7b9a10")

// Bounds is an inclusive latitude/longitude box.
type Bounds struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// NigeriaBounds approximates the national territory with a small margin.
var NigeriaBounds = Bounds{
	MinLat: 4.0, MaxLat: 14.0,
	MinLng: 2.5, MaxLng: 15.0,
}

// Contains reports whether (lat, lng) lies inside b.
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat &&
		lng >= b.MinLng && lng <= b.MaxLng
}

// Validate checks that the box is well formed.
func (b Bounds) Validate() error {
	if b.MinLat >= b.MaxLat || b.MinLng >= b.MaxLng {
		return fmt.Errorf("invalid bounds: lat [%g, %g], lng [%g, %g]",
			b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
	}
	return nil
}

// Validator turns resolved rows into polling units.
type Validator struct {
	bounds Bounds
}

// NewValidator returns a validator gating coordinates by bounds.
func NewValidator(bounds Bounds) *Validator {
	return &Validator{bounds: bounds}
}

// UnitCode derives the unit code from a row's 1-based source position. The
// code depends only on the position, so skipped rows never shift it.
func UnitCode(position int) string {
	return fmt.Sprintf("%s%06d", UnitCodePrefix, position)
}

// UnitID returns the stable id for a unit code.
func UnitID(unitCode string) string {
	return uuid.NewSHA1(unitNamespace, []byte(unitCode)).String()
}

// GateCoordinates returns both coordinates only if both parse as finite
// numbers inside the bounding box. Otherwise it returns nil, nil.
func (v *Validator) GateCoordinates(lat, lng *string) (*float64, *float64) {
	if lat == nil || lng == nil {
		return nil, nil
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(*lat), 64)
	if err != nil {
		return nil, nil
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(*lng), 64)
	if err != nil {
		return nil, nil
	}
	if math.IsNaN(la) || math.IsNaN(lo) || !v.bounds.Contains(la, lo) {
		return nil, nil
	}
	return &la, &lo
}

// Build assembles the polling unit for row under wardID.
func (v *Validator) Build(row RawImportRow, wardID string) PollingUnit {
	code := UnitCode(row.Position)
	lat, lng := v.GateCoordinates(row.Lat, row.Lng)
	return PollingUnit{
		ID:        UnitID(code),
		Name:      row.Name,
		UnitCode:  code,
		WardID:    wardID,
		Latitude:  lat,
		Longitude: lng,
	}
}
