package common

import (
	"errors"
	"math"
	"testing"
)

func TestHaversineDistance_KnownPair(t *testing.T) {
	// Riyadh -> Jeddah, roughly 845 km.
	riyadh := NewLocation(24.7136, 46.6753)
	jeddah := NewLocation(21.4858, 39.1925)

	got := HaversineDistance(riyadh, jeddah)
	if math.Abs(got-845) > 10 {
		t.Fatalf("expected ~845 km, got %f", got)
	}
}

func TestHaversineDistance_SamePoint_IsZero(t *testing.T) {
	p := NewLocation(24.7136, 46.6753)
	if d := HaversineDistance(p, p); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestValidateLatLng(t *testing.T) {
	cases := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"valid", 24.7, 46.6, false},
		{"lat too high", 90.1, 0, true},
		{"lat too low", -90.1, 0, true},
		{"lng too high", 0, 180.1, true},
		{"lng too low", 0, -180.1, true},
		{"boundary", 90, 180, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateLatLng(tc.lat, tc.lng)
			if tc.wantErr && !errors.Is(err, ErrInvalidLatLng) {
				t.Fatalf("expected ErrInvalidLatLng, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateInZone(t *testing.T) {
	center := NewLocation(24.7136, 46.6753)

	inside := NewLocation(24.75, 46.70)
	if err := ValidateInZone(inside, center, 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outside := NewLocation(26.0, 48.0)
	if err := ValidateInZone(outside, center, 30); !errors.Is(err, ErrOutOfZone) {
		t.Fatalf("expected ErrOutOfZone, got %v", err)
	}
}
