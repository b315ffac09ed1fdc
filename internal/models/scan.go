package models

// Scan is one capture event by a mobile device.
type Scan struct {
	ID         int64    `json:"id" db:"id"`
	BuildingID int64    `json:"building_id" db:"building_id"`
	Floor      int      `json:"floor" db:"floor"`
	X          *float64 `json:"x,omitempty" db:"x"`
	Y          *float64 `json:"y,omitempty" db:"y"`
	Z          *float64 `json:"z,omitempty" db:"z"`
	Lat        *float64 `json:"lat,omitempty" db:"lat"`
	Lon        *float64 `json:"lon,omitempty" db:"lon"`
	Accuracy   *float64 `json:"accuracy,omitempty" db:"accuracy"` // self-reported, meters
	Yaw        *float64 `json:"yaw,omitempty" db:"yaw"`
	Pitch      *float64 `json:"pitch,omitempty" db:"pitch"`
	Roll       *float64 `json:"roll,omitempty" db:"roll"`
	CapturedAt int64    `json:"captured_at" db:"captured_at"` // Unix milliseconds
	CreatedAt  int64    `json:"created_at" db:"created_at"`
}

// HasLocalPosition reports whether x, y and z are all set.
func (s *Scan) HasLocalPosition() bool {
	return s.X != nil && s.Y != nil && s.Z != nil
}

// ScanUpload is the request body of POST /api/v1/scans.
type ScanUpload struct {
	BuildingID   int64               `json:"building_id" binding:"required"`
	Floor        int                 `json:"floor"`
	X            *float64            `json:"x"`
	Y            *float64            `json:"y"`
	Z            *float64            `json:"z"`
	Lat          *float64            `json:"lat"`
	Lon          *float64            `json:"lon"`
	Accuracy     *float64            `json:"accuracy"`
	Yaw          *float64            `json:"yaw"`
	Pitch        *float64            `json:"pitch"`
	Roll         *float64            `json:"roll"`
	Timestamp    *int64              `json:"timestamp"` // Unix milliseconds
	Observations []ObservationUpload `json:"observations" binding:"required,min=1,dive"`
}

// ObservationUpload is one reading inside a scan upload.
type ObservationUpload struct {
	SSID      string `json:"ssid"`
	BSSID     string `json:"bssid" binding:"required"`
	RSSI      int    `json:"rssi" binding:"max=0"`
	Frequency *int   `json:"frequency"`
}

// UploadResult is returned after a scan has been stored.
type UploadResult struct {
	ScanID         int64   `json:"scan_id"`
	AnchorsTouched []int64 `json:"anchors_touched"`
}
