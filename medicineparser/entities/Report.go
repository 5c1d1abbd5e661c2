package entities

import "time"

// Report types accepted from patients
const (
	ReportTypeShortage   = "shortage"
	ReportTypePriceSpike = "price_spike"
)

// ShortageReport is a patient report about a medicine in a location
type ShortageReport struct {
	ID            string    `json:"id"`
	MedicineName  string    `json:"medicine_name"`
	LocationName  string    `json:"location_name"`
	ReportType    string    `json:"report_type"`
	PharmacyID    *int64    `json:"pharmacy_id,omitempty"`
	ReportedPrice *float64  `json:"reported_price,omitempty"`
	ExpectedPrice *float64  `json:"expected_price,omitempty"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

// ShortageAlert is raised when enough reports accumulate for a medicine/location pair
type ShortageAlert struct {
	ID           string    `json:"id"`
	MedicineName string    `json:"medicine_name"`
	LocationName string    `json:"location_name"`
	AlertType    string    `json:"alert_type"`
	Severity     string    `json:"severity"`
	Description  string    `json:"description"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
