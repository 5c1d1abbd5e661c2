package entities

// Pharmacy is a search candidate with its priced inventory.
// MedicinePrices keys are matched case-insensitively.
type Pharmacy struct {
	ID             int64              `json:"id" yaml:"id"`
	Name           string             `json:"pharmacy_name" yaml:"name"`
	Address        string             `json:"address" yaml:"address"`
	Latitude       float64            `json:"latitude" yaml:"latitude"`
	Longitude      float64            `json:"longitude" yaml:"longitude"`
	MedicinePrices map[string]float64 `json:"medicine_prices" yaml:"medicine_prices"`
}

// NearbyPharmacy is a pharmacy within the search radius that stocks at least
// one requested medicine. MedicinePrices only holds the requested medicines.
type NearbyPharmacy struct {
	ID             int64              `json:"id"`
	Name           string             `json:"pharmacy_name"`
	Address        string             `json:"address"`
	Latitude       float64            `json:"latitude"`
	Longitude      float64            `json:"longitude"`
	MedicinePrices map[string]float64 `json:"medicine_prices"`
	DistanceKm     float64            `json:"distance_km"`
}

// Location is a named point used to resolve a user's city
type Location struct {
	Name      string  `json:"name" yaml:"name"`
	Latitude  float64 `json:"lat" yaml:"latitude"`
	Longitude float64 `json:"lng" yaml:"longitude"`
}
