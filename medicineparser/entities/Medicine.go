package entities

// Medicine is one row of the reference medicine dataset.
type Medicine struct {
	Name         string `json:"medicine_name"`
	Composition  string `json:"composition"`
	DosageMg     int    `json:"dosage_mg"`
	Type         string `json:"type"`
	Manufacturer string `json:"manufacturer"`
	ImageURL     string `json:"image_url"`
	Uses         string `json:"uses,omitempty"`
	SideEffects  string `json:"side_effects,omitempty"`
}

// Alternative is a medicine ranked against a query medicine.
// Similarity is on a 0-100 scale, rounded to two decimals.
type Alternative struct {
	Medicine
	Similarity float64 `json:"similarity"`
}

// AlternativesResult is the response shape for an alternatives lookup
type AlternativesResult struct {
	Medicine     Medicine      `json:"main_medicine"`
	Alternatives []Alternative `json:"alternatives"`
	TotalFound   int           `json:"total_found"`
}

// Ingredient is one part of a parsed composition string
type Ingredient struct {
	Name     string  `json:"name"`
	Dosage   float64 `json:"dosage"`
	Unit     string  `json:"unit"`
	FullText string  `json:"full_text"`
}
