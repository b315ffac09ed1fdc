package models

// FloorPolygon is the outline of one floor in the building's local frame.
// Points are [x, y, z] triples.
type FloorPolygon struct {
	ID         int64        `json:"id" db:"id"`
	BuildingID int64        `json:"building_id" db:"building_id"`
	Floor      int          `json:"floor" db:"floor"`
	Points     [][3]float64 `json:"points" db:"points_json"`
	CreatedAt  int64        `json:"created_at" db:"created_at"`
	UpdatedAt  int64        `json:"updated_at" db:"updated_at"`
}

// FloorPolygonInput is the request body for creating or replacing a polygon.
type FloorPolygonInput struct {
	Floor  int          `json:"floor"`
	Points [][3]float64 `json:"points" binding:"required,min=3"`
}

// LocateResult reports where a point lies relative to a floor outline.
type LocateResult struct {
	BuildingID int64      `json:"building_id"`
	Floor      int        `json:"floor"`
	Inside     bool       `json:"inside"`
	Nearest    [2]float64 `json:"nearest"`
	Distance   float64    `json:"distance"` // to the nearest boundary point
	Area       float64    `json:"area"`
	Centroid   [2]float64 `json:"centroid"`
}
