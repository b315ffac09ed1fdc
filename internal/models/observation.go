package models

// Observation is one signal-strength reading of an anchor within a scan.
type Observation struct {
	ID        int64  `json:"id" db:"id"`
	ScanID    int64  `json:"scan_id" db:"scan_id"`
	AnchorID  *int64 `json:"anchor_id,omitempty" db:"anchor_id"`
	SSID      string `json:"ssid,omitempty" db:"ssid"`
	BSSID     string `json:"bssid" db:"bssid"`
	RSSI      int    `json:"rssi" db:"rssi"` // dBm, <= 0
	Frequency *int   `json:"frequency,omitempty" db:"frequency"`
}

// ObservationSample is an observation joined to its scan's local position.
type ObservationSample struct {
	ObservationID int64
	ScanID        int64
	RSSI          int
	X, Y, Z       float64
	ScanAccuracy  *float64
	CapturedAt    int64
}
