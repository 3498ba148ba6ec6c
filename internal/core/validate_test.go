package core

import (
	"testing"
)

func strPtr(s string) *string { return &s }

func TestUnitCode(t *testing.T) {
	if got := UnitCode(1); got != "PU-000001" {
		t.Errorf("UnitCode(1) = %q", got)
	}
	if got := UnitCode(1234567); got != "PU-1234567" {
		t.Errorf("UnitCode(1234567) = %q", got)
	}
}

func TestUnitID_Stable(t *testing.T) {
	a, b := UnitID("PU-000001"), UnitID("PU-000001")
	if a != b {
		t.Errorf("UnitID not stable: %q vs %q", a, b)
	}
	if a == UnitID("PU-000002") {
		t.Error("different codes share an id")
	}
}

func TestGateCoordinates(t *testing.T) {
	v := NewValidator(NigeriaBounds)

	tests := []struct {
		name     string
		lat, lng *string
		ok       bool
	}{
		{"inside", strPtr("6.5"), strPtr("3.3"), true},
		{"padded", strPtr(" 6.5 "), strPtr("3.3"), true},
		{"on the edge", strPtr("4"), strPtr("15"), true},
		{"lat out of range", strPtr("3.99"), strPtr("7"), false},
		{"lng out of range", strPtr("9"), strPtr("15.01"), false},
		{"swapped", strPtr("3.3"), strPtr("6.5"), false},
		{"not a number", strPtr("abc"), strPtr("3.3"), false},
		{"NaN", strPtr("NaN"), strPtr("3.3"), false},
		{"infinite", strPtr("Inf"), strPtr("3.3"), false},
		{"missing lng", strPtr("6.5"), nil, false},
		{"missing both", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lng := v.GateCoordinates(tt.lat, tt.lng)
			if (lat != nil) != tt.ok || (lng != nil) != tt.ok {
				t.Errorf("GateCoordinates = %v, %v; want both present = %v", lat, lng, tt.ok)
			}
		})
	}
}

func TestValidatorBuild(t *testing.T) {
	v := NewValidator(NigeriaBounds)

	pu := v.Build(RawImportRow{
		Position: 42,
		Name:     "Central School",
		Lat:      strPtr("6.6"),
		Lng:      strPtr("3.35"),
	}, "ward-1")

	if pu.UnitCode != "PU-000042" || pu.ID != UnitID("PU-000042") {
		t.Errorf("code/id = %q/%q", pu.UnitCode, pu.ID)
	}
	if pu.WardID != "ward-1" || pu.Name != "Central School" {
		t.Errorf("unexpected unit %+v", pu)
	}
	if pu.Latitude == nil || *pu.Latitude != 6.6 || pu.Longitude == nil || *pu.Longitude != 3.35 {
		t.Errorf("coordinates = %v, %v", pu.Latitude, pu.Longitude)
	}
}

func TestBoundsValidate(t *testing.T) {
	if err := NigeriaBounds.Validate(); err != nil {
		t.Errorf("NigeriaBounds invalid: %v", err)
	}
	if err := (Bounds{MinLat: 5, MaxLat: 5, MinLng: 0, MaxLng: 1}).Validate(); err == nil {
		t.Error("degenerate bounds accepted")
	}
}
