package models

// UnknownAccuracy is the stored accuracy of an anchor that has never been
// positioned.
const UnknownAccuracy = 9999.0

// Anchor is a fixed (or mobile) Wi-Fi transmitter identified by its BSSID.
type Anchor struct {
	ID         int64    `json:"id" db:"id"`
	BSSID      string   `json:"bssid" db:"bssid"` // upper-case, colon separated
	SSID       string   `json:"ssid,omitempty" db:"ssid"`
	Label      string   `json:"label,omitempty" db:"label"`
	BuildingID *int64   `json:"building_id,omitempty" db:"building_id"`
	Floor      int      `json:"floor" db:"floor"`
	X          *float64 `json:"x" db:"x"` // local frame, meters
	Y          *float64 `json:"y" db:"y"`
	Z          *float64 `json:"z" db:"z"`
	Accuracy   float64  `json:"accuracy" db:"accuracy"` // meters, 9999 = unknown
	IsMobile   bool     `json:"is_mobile" db:"is_mobile"`
	CreatedAt  int64    `json:"created_at" db:"created_at"`
	UpdatedAt  int64    `json:"updated_at" db:"updated_at"`
}

// Positioned reports whether x and y are known.
func (a *Anchor) Positioned() bool {
	return a.X != nil && a.Y != nil
}

// InBuilding reports whether the anchor is assigned to buildingID.
func (a *Anchor) InBuilding(buildingID int64) bool {
	return a.BuildingID != nil && *a.BuildingID == buildingID
}

// AnchorUpdate carries the editable fields of an anchor. Nil fields are left
// unchanged.
type AnchorUpdate struct {
	SSID     *string  `json:"ssid"`
	Label    *string  `json:"label"`
	BSSID    *string  `json:"bssid"`
	Floor    *int     `json:"floor"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Z        *float64 `json:"z"`
	Accuracy *float64 `json:"accuracy"`
}
