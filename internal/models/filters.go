package models

// AnchorFilter represents filter parameters for listing anchors
type AnchorFilter struct {
	BuildingID  *int64   `form:"building_id"`
	Floor       *int     `form:"floor"`
	BSSID       string   `form:"bssid"` // substring match
	SSID        string   `form:"ssid"`  // substring match
	IsMobile    *bool    `form:"is_mobile"`
	AccuracyMin *float64 `form:"accuracy_min"`
	AccuracyMax *float64 `form:"accuracy_max"`
	OrderBy     string   `form:"order_by"`  // id, bssid, accuracy, created_at, updated_at
	OrderDir    string   `form:"order_dir"` // asc, desc
	Limit       int      `form:"limit"`
	Offset      int      `form:"offset"`
}

// POIFilter represents filter parameters for listing POIs
type POIFilter struct {
	BuildingID *int64 `form:"building_id"`
	Floor      *int   `form:"floor"`
	Type       string `form:"type"`
}

// RouteQuery is the query string of GET /api/v1/route.
type RouteQuery struct {
	BuildingID int64 `form:"building_id" binding:"required"`
	StartPOIID int64 `form:"start_poi_id" binding:"required"`
	EndPOIID   int64 `form:"end_poi_id" binding:"required"`
}

// LocateQuery is the query string of GET /api/v1/buildings/:id/locate.
type LocateQuery struct {
	Floor int     `form:"floor"`
	X     float64 `form:"x"`
	Y     float64 `form:"y"`
}
