package models

// POI is a point of interest inside a building.
type POI struct {
	ID         int64    `json:"id" db:"id"`
	BuildingID int64    `json:"building_id" db:"building_id"`
	Floor      int      `json:"floor" db:"floor"`
	X          float64  `json:"x" db:"x"`
	Y          float64  `json:"y" db:"y"`
	Z          *float64 `json:"z,omitempty" db:"z"`
	Type       string   `json:"type" db:"type"`
	Name       string   `json:"name,omitempty" db:"name"`
	CreatedAt  int64    `json:"created_at" db:"created_at"`
	UpdatedAt  int64    `json:"updated_at" db:"updated_at"`
}

// POIInput is the request body for creating or replacing a POI.
type POIInput struct {
	BuildingID int64    `json:"building_id" binding:"required"`
	Floor      int      `json:"floor"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          *float64 `json:"z"`
	Type       string   `json:"type" binding:"required"`
	Name       string   `json:"name"`
}

// Route is a straight route between two POIs.
type Route struct {
	BuildingID int64        `json:"building_id"`
	Start      POI          `json:"start"`
	End        POI          `json:"end"`
	Path       [][3]float64 `json:"path"`
	Length     float64      `json:"length"` // meters
}

// BuildingMap bundles everything needed to draw one building.
type BuildingMap struct {
	Building Building       `json:"building"`
	Floors   []FloorPolygon `json:"floors"`
	Anchors  []Anchor       `json:"anchors"`
	POIs     []POI          `json:"pois"`
}
