package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Decimal accepts both JSON numbers and the quoted decimal strings the
// backend emits for price and coordinate columns.
type Decimal float64

func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*d = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*d = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("decimal %q: %w", s, err)
		}
		*d = Decimal(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*d = Decimal(f)
	return nil
}

type Coord struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

type Ride struct {
	ID             int64     `json:"id"`
	GoingFrom      string    `json:"going_from"`
	GoingFromLat   Decimal   `json:"going_from_lat"`
	GoingFromLng   Decimal   `json:"going_from_lng"`
	GoingTo        string    `json:"going_to"`
	GoingToLat     Decimal   `json:"going_to_lat"`
	GoingToLng     Decimal   `json:"going_to_lng"`
	DateTime       time.Time `json:"date_time"`
	Duration       string    `json:"duration"`
	PricePerSeat   *Decimal  `json:"price_per_seat,omitempty"`
	AvailableSeats int       `json:"available_seats"`
	VehicleName    string    `json:"vehicle_name"`
	DriverName     string    `json:"driver_name"`
}

// Origin returns the pickup coordinate.
func (r *Ride) Origin() Coord {
	return Coord{Lat: float64(r.GoingFromLat), Lng: float64(r.GoingFromLng)}
}

// Destination returns the drop-off coordinate.
func (r *Ride) Destination() Coord {
	return Coord{Lat: float64(r.GoingToLat), Lng: float64(r.GoingToLng)}
}

// IsFull returns true if no seats are left on the ride
func (r *Ride) IsFull() bool {
	return r.AvailableSeats <= 0
}

// PriceLabel formats the per-seat price, empty when the ride has none.
func (r *Ride) PriceLabel() string {
	if r.PricePerSeat == nil || *r.PricePerSeat == 0 {
		return ""
	}
	return fmt.Sprintf("$ %.2f", float64(*r.PricePerSeat))
}

// RideDetail is the full record returned when fetching a single ride.
type RideDetail struct {
	Ride
	DriverID        int64   `json:"driver_id,omitempty"`
	DriverPicture   string  `json:"driver_profile_picture,omitempty"`
	VehicleID       int64   `json:"vehicle_id,omitempty"`
	VehiclePlate    string  `json:"vehicle_plate_number,omitempty"`
	VehicleColor    string  `json:"vehicle_color,omitempty"`
	TotalSeats      int     `json:"total_seats,omitempty"`
	Description     string  `json:"description,omitempty"`
	ContributionFee Decimal `json:"contribution_fee,omitempty"`
}

type RideListResponse struct {
	Rides []Ride `json:"rides"`
}

// RideSearch filters the ride list. All fields are optional.
type RideSearch struct {
	GoingFrom string `json:"going_from,omitempty" validate:"omitempty,max=255"`
	GoingTo   string `json:"going_to,omitempty" validate:"omitempty,max=255"`
	Date      string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Seats     int    `json:"seats,omitempty" validate:"omitempty,min=1,max=8"`
}
