package service

import (
	"math"
	"testing"

	"github.com/carnest/carnest-go/internal/models"
)

func TestEstimateDistance(t *testing.T) {
	es := NewEstimateService()

	tests := []struct {
		name   string
		origin models.Coord
		dest   models.Coord
		want   float64
	}{
		{
			name:   "Same point",
			origin: models.Coord{Lat: 37.3382, Lng: -121.8863},
			dest:   models.Coord{Lat: 37.3382, Lng: -121.8863},
			want:   0,
		},
		{
			name:   "One degree of latitude",
			origin: models.Coord{Lat: 0, Lng: 0},
			dest:   models.Coord{Lat: 1, Lng: 0},
			want:   144.56, // 111.19 km * 1.3
		},
		{
			name:   "San Jose to Fresno",
			origin: models.Coord{Lat: 37.338207, Lng: -121.886330},
			dest:   models.Coord{Lat: 36.737797, Lng: -119.787125},
			want:   256, // ~197 km straight line
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := es.EstimateDistance(tt.origin, tt.dest)
			// Allow 2% tolerance
			tolerance := math.Max(tt.want*0.02, 0.01)
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("EstimateDistance() = %v, want ~%v", got, tt.want)
			}
		})
	}
}

func TestEstimateDuration(t *testing.T) {
	es := NewEstimateService()

	tests := []struct {
		distance float64
		want     int
	}{
		{0, 5},
		{2, 5},
		{80, 60},
		{100, 75},
		{240, 180},
	}

	for _, tt := range tests {
		if got := es.EstimateDuration(tt.distance); got != tt.want {
			t.Errorf("EstimateDuration(%v) = %d, want %d", tt.distance, got, tt.want)
		}
	}
}

func TestEstimateRide(t *testing.T) {
	es := NewEstimateService()
	ride := &models.Ride{GoingFromLat: 0, GoingFromLng: 0, GoingToLat: 1, GoingToLng: 0}

	got := es.EstimateRide(ride)
	if got.DistanceKm != es.EstimateDistance(ride.Origin(), ride.Destination()) {
		t.Errorf("DistanceKm = %v", got.DistanceKm)
	}
	if got.DurationMins != es.EstimateDuration(got.DistanceKm) {
		t.Errorf("DurationMins = %d", got.DurationMins)
	}
}
