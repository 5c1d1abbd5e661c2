package geo

import (
	"math"
	"sort"
	"strings"

	"github.com/giygas/medishortage-api/medicineparser/entities"
)

// Default search radii for named-location and coordinate searches
const (
	DefaultSearchRadiusKm     = 15.0
	DefaultCoordinateRadiusKm = 20.0
	MaxRadiusKm               = 500.0
)

// Nearby returns the candidates within radiusKm of the user that price at least
// one of the requested medicines, closest first. The radius is inclusive and is
// compared against the unrounded distance; equal distances keep input order.
func Nearby(userLat, userLon float64, candidates []entities.Pharmacy, radiusKm float64, requested []string) []entities.NearbyPharmacy {
	results := []entities.NearbyPharmacy{}

	wanted := make(map[string]bool, len(requested))
	for _, name := range requested {
		if name = normalizeMedicineName(name); name != "" {
			wanted[name] = true
		}
	}
	if len(wanted) == 0 || len(candidates) == 0 {
		return results
	}

	distances := make([]float64, 0, len(candidates))
	for _, pharmacy := range candidates {
		distance := Haversine(userLat, userLon, pharmacy.Latitude, pharmacy.Longitude)
		if distance > radiusKm {
			continue
		}

		prices := make(map[string]float64)
		for medicine, price := range pharmacy.MedicinePrices {
			if wanted[normalizeMedicineName(medicine)] {
				prices[medicine] = price
			}
		}
		if len(prices) == 0 {
			continue
		}

		results = append(results, entities.NearbyPharmacy{
			ID:             pharmacy.ID,
			Name:           pharmacy.Name,
			Address:        pharmacy.Address,
			Latitude:       pharmacy.Latitude,
			Longitude:      pharmacy.Longitude,
			MedicinePrices: prices,
			DistanceKm:     math.Round(distance*100) / 100,
		})
		distances = append(distances, distance)
	}

	sort.Stable(byDistance{results: results, distances: distances})

	return results
}

// ParseMedicineList splits a comma separated list of medicine names
func ParseMedicineList(list string) []string {
	var names []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

func normalizeMedicineName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// byDistance sorts results by their unrounded distances
type byDistance struct {
	results   []entities.NearbyPharmacy
	distances []float64
}

func (b byDistance) Len() int           { return len(b.results) }
func (b byDistance) Less(i, j int) bool { return b.distances[i] < b.distances[j] }
func (b byDistance) Swap(i, j int) {
	b.results[i], b.results[j] = b.results[j], b.results[i]
	b.distances[i], b.distances[j] = b.distances[j], b.distances[i]
}
