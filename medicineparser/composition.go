package medicineparser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/giygas/medishortage-api/medicineparser/entities"
)

var (
	ingredientSeparators = regexp.MustCompile(`[+,&]`)
	ingredientRegex      = regexp.MustCompile(`(?i)(.+?)\s*(\d+\.?\d*)\s*(mg|g|mcg|ml|%)?`)
)

// ParseComposition splits a composition such as "Amoxycillin (500mg) + Clavulanic Acid (125mg)"
// into its ingredients. Parts without a number are kept with a zero dosage and no unit.
func ParseComposition(composition string) []entities.Ingredient {
	composition = strings.TrimSpace(composition)
	if composition == "" {
		return []entities.Ingredient{}
	}

	ingredients := []entities.Ingredient{}
	for _, part := range ingredientSeparators.Split(composition, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		match := ingredientRegex.FindStringSubmatch(part)
		if match == nil {
			ingredients = append(ingredients, entities.Ingredient{
				Name:     part,
				FullText: part,
			})
			continue
		}

		dosage, err := strconv.ParseFloat(match[2], 64)
		if err != nil {
			dosage = 0
		}
		unit := strings.ToLower(match[3])
		if unit == "" {
			unit = "mg"
		}

		ingredients = append(ingredients, entities.Ingredient{
			Name:     strings.TrimRight(match[1], " (["),
			Dosage:   dosage,
			Unit:     unit,
			FullText: part,
		})
	}

	return ingredients
}
