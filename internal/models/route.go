package models

// Route is a resolved driving path between two coordinates.
type Route struct {
	Points          []Coord `json:"points"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// RoutePreview binds a resolved route to the ride it was resolved for.
type RoutePreview struct {
	RideID int64  `json:"ride_id"`
	Route  *Route `json:"route"`
}
