package service

import (
	"math"

	"github.com/carnest/carnest-go/internal/models"
)

const (
	// roadFactor converts straight-line distance to an approximate road distance.
	roadFactor = 1.3
	// averageSpeedKmh is the assumed highway speed between cities.
	averageSpeedKmh = 80.0
	minDurationMins = 5
)

// Estimate is a rough trip size shown on a ride card before the real
// route is resolved.
type Estimate struct {
	DistanceKm   float64 `json:"distance_km"`
	DurationMins int     `json:"duration_mins"`
}

type EstimateService interface {
	EstimateRide(ride *models.Ride) Estimate
	EstimateDistance(origin, dest models.Coord) float64
	EstimateDuration(distanceKm float64) int
}

type estimateService struct{}

func NewEstimateService() EstimateService {
	return &estimateService{}
}

func (s *estimateService) EstimateRide(ride *models.Ride) Estimate {
	distance := s.EstimateDistance(ride.Origin(), ride.Destination())
	return Estimate{
		DistanceKm:   distance,
		DurationMins: s.EstimateDuration(distance),
	}
}

// EstimateDistance calculates straight-line distance and multiplies by road factor
func (s *estimateService) EstimateDistance(origin, dest models.Coord) float64 {
	straightLine := haversineDistance(origin.Lat, origin.Lng, dest.Lat, dest.Lng)
	return round(straightLine * roadFactor)
}

// EstimateDuration estimates trip duration in minutes at averageSpeedKmh.
func (s *estimateService) EstimateDuration(distanceKm float64) int {
	durationMins := int(math.Ceil(distanceKm / averageSpeedKmh * 60))
	if durationMins < minDurationMins {
		durationMins = minDurationMins
	}
	return durationMins
}

// haversineDistance calculates the distance between two points on Earth
func haversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadius = 6371 // km

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}
