package models

import (
	"time"
	"unicode/utf8"
)

type Profile struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	PhoneNumber    string `json:"phone_number,omitempty"`
}

// Initial returns the first letter of the first name, used as avatar fallback.
func (p *Profile) Initial() string {
	if p == nil || p.FirstName == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(p.FirstName)
	return string(r)
}

type GovtIDType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Vehicle struct {
	ID               int64     `json:"id"`
	Make             string    `json:"make"`
	Model            string    `json:"model"`
	Year             int       `json:"year"`
	PlateNumber      string    `json:"plate_number"`
	Color            *string   `json:"color,omitempty"`
	NumberOfSeats    int       `json:"number_of_seats"`
	State            *string   `json:"state,omitempty"`
	CreatedDate      time.Time `json:"created_date"`
	LastModifiedDate time.Time `json:"last_modified_date"`
}

// DisplayName mirrors how rides label the vehicle, e.g. "Toyota Corolla".
func (v *Vehicle) DisplayName() string {
	if v.Model == "" {
		return v.Make
	}
	return v.Make + " " + v.Model
}

type SetTokenRequest struct {
	AccessToken string `json:"access_token" validate:"required,min=8"`
}
