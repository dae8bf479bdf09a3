// internal/domain/evacuation/entity.go
package evacuation

import (
	"time"

	"amayalert-service/internal/domain/notification"
)

type Status string

const (
	StatusOpen        Status = "open"
	StatusFull        Status = "full"
	StatusClosed      Status = "closed"
	StatusMaintenance Status = "maintenance"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusFull, StatusClosed, StatusMaintenance:
		return true
	}
	return false
}

type Center struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Address          string    `json:"address"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Capacity         int       `json:"capacity"`
	CurrentOccupancy int       `json:"current_occupancy"`
	Status           Status    `json:"status"`
	ContactName      *string   `json:"contact_name"`
	ContactPhone     *string   `json:"contact_phone"`
	PhotoURL         *string   `json:"photo_url"`
	CreatedBy        *string   `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type CenterRequest struct {
	Name             string  `json:"name"`
	Address          string  `json:"address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Capacity         int     `json:"capacity"`
	CurrentOccupancy int     `json:"current_occupancy"`
	Status           Status  `json:"status"`
	ContactName      *string `json:"contact_name"`
	ContactPhone     *string `json:"contact_phone"`
	PhotoURL         *string `json:"photo_url"`
}

// UpdateCenterRequest carries a partial update; nil fields keep their
// stored value. An empty contact or photo string clears it.
type UpdateCenterRequest struct {
	Name             *string  `json:"name"`
	Address          *string  `json:"address"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Capacity         *int     `json:"capacity"`
	CurrentOccupancy *int     `json:"current_occupancy"`
	Status           *Status  `json:"status"`
	ContactName      *string  `json:"contact_name"`
	ContactPhone     *string  `json:"contact_phone"`
	PhotoURL         *string  `json:"photo_url"`
}

// Apply merges the provided fields over c.
func (r *UpdateCenterRequest) Apply(c *Center) *CenterRequest {
	merged := &CenterRequest{
		Name:             c.Name,
		Address:          c.Address,
		Latitude:         c.Latitude,
		Longitude:        c.Longitude,
		Capacity:         c.Capacity,
		CurrentOccupancy: c.CurrentOccupancy,
		Status:           c.Status,
		ContactName:      c.ContactName,
		ContactPhone:     c.ContactPhone,
		PhotoURL:         c.PhotoURL,
	}
	if r.Name != nil {
		merged.Name = *r.Name
	}
	if r.Address != nil {
		merged.Address = *r.Address
	}
	if r.Latitude != nil {
		merged.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		merged.Longitude = *r.Longitude
	}
	if r.Capacity != nil {
		merged.Capacity = *r.Capacity
	}
	if r.CurrentOccupancy != nil {
		merged.CurrentOccupancy = *r.CurrentOccupancy
	}
	if r.Status != nil {
		merged.Status = *r.Status
	}
	if r.ContactName != nil {
		merged.ContactName = r.ContactName
	}
	if r.ContactPhone != nil {
		merged.ContactPhone = r.ContactPhone
	}
	if r.PhotoURL != nil {
		merged.PhotoURL = r.PhotoURL
	}
	return merged
}

type ListFilters struct {
	Search string `form:"search"`
	Status string `form:"status"`
}

func (f ListFilters) IsDefault() bool {
	return f.Search == "" && f.Status == ""
}

type CreateResult struct {
	Center        *Center                 `json:"center"`
	Notifications *notification.EmailOnly `json:"notifications"`
}
