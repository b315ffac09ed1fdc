package models

// Building owns a local planar frame. Lat/Lon is the frame origin.
type Building struct {
	ID        int64    `json:"id" db:"id"`
	Name      string   `json:"name" db:"name"`
	Address   string   `json:"address,omitempty" db:"address"`
	Lat       *float64 `json:"lat,omitempty" db:"lat"`
	Lon       *float64 `json:"lon,omitempty" db:"lon"`
	CreatedAt int64    `json:"created_at" db:"created_at"`
	UpdatedAt int64    `json:"updated_at" db:"updated_at"`
}

// HasGeoReference reports whether the building has reference coordinates.
func (b *Building) HasGeoReference() bool {
	return b.Lat != nil && b.Lon != nil
}

// BuildingCreate is the request body for creating a building.
type BuildingCreate struct {
	Name    string   `json:"name" binding:"required"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat" binding:"omitempty,min=-90,max=90"`
	Lon     *float64 `json:"lon" binding:"omitempty,min=-180,max=180"`
}
