package service

import (
	"math"
	"testing"
)

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		tolerance              float64
	}{
		{
			name: "same point",
			lat1: 35.6812, lng1: 139.7671,
			lat2: 35.6812, lng2: 139.7671,
			want: 0, tolerance: 0.001,
		},
		{
			// Tokyo Station to Shinjuku Station, roughly 6.2 km.
			name: "across the city",
			lat1: 35.6812, lng1: 139.7671,
			lat2: 35.6896, lng2: 139.7006,
			want: 6100, tolerance: 200,
		},
		{
			// One degree of latitude is about 111 km anywhere on the globe.
			name: "one degree of latitude",
			lat1: 0, lng1: 0,
			lat2: 1, lng2: 0,
			want: 111195, tolerance: 100,
		},
		{
			name: "short hop",
			lat1: 35.6812, lng1: 139.7671,
			lat2: 35.6817, lng2: 139.7671,
			want: 55.6, tolerance: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMeters(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("DistanceMeters() = %.1f, want %.1f ± %.1f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestDistanceMetersIsSymmetric(t *testing.T) {
	a := DistanceMeters(35.6812, 139.7671, 35.6896, 139.7006)
	b := DistanceMeters(35.6896, 139.7006, 35.6812, 139.7671)
	if math.Abs(a-b) > 0.001 {
		t.Errorf("distance not symmetric: %.4f vs %.4f", a, b)
	}
}

func TestArrivalRadiusBoundary(t *testing.T) {
	// A fix 55 meters from the destination is inside the 100 meter radius;
	// a fix 550 meters away is outside.
	dest := struct{ lat, lng float64 }{35.6812, 139.7671}

	near := DistanceMeters(35.6817, 139.7671, dest.lat, dest.lng)
	if near > arrivalRadiusMeters {
		t.Errorf("near fix is %.1fm away, expected inside the arrival radius", near)
	}

	far := DistanceMeters(35.6862, 139.7671, dest.lat, dest.lng)
	if far <= arrivalRadiusMeters {
		t.Errorf("far fix is %.1fm away, expected outside the arrival radius", far)
	}
}
