package mediacache

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/adlens/adscache/common/models"
)

// extractDerived pulls the three quick-lookup fields out of an analysis
// blob. Extraction is best-effort: any shape mismatch yields the zero
// value for that field, never an error.
func extractDerived(blob []byte) models.DerivedAnalysis {
	hasPeople := extractHasPeople(blob)
	return models.DerivedAnalysis{
		DominantColors: extractDominantColors(blob),
		HasPeople:      &hasPeople,
		TextElements:   extractTextElements(blob),
	}
}

// extractDominantColors reads colors.dominant_colors as a list of
// strings and joins it comma-delimited. Nil when absent, empty, or not
// a string list.
func extractDominantColors(blob []byte) *string {
	colors := gjson.GetBytes(blob, "colors.dominant_colors")
	if !colors.IsArray() {
		return nil
	}

	var parts []string
	for _, color := range colors.Array() {
		if color.Type != gjson.String {
			return nil
		}
		parts = append(parts, color.Str)
	}

	if len(parts) == 0 {
		return nil
	}

	joined := strings.Join(parts, ",")
	return &joined
}

// extractHasPeople reports whether people_description holds non-blank
// text.
func extractHasPeople(blob []byte) bool {
	desc := gjson.GetBytes(blob, "people_description")
	return desc.Type == gjson.String && strings.TrimSpace(desc.Str) != ""
}

// extractTextElements flattens the text_elements object, whose values
// are strings or string lists, into a single " | " delimited string.
// Nil when absent, empty, or shaped differently.
func extractTextElements(blob []byte) *string {
	elements := gjson.GetBytes(blob, "text_elements")
	if !elements.IsObject() {
		return nil
	}

	var all []string
	valid := true
	elements.ForEach(func(_, value gjson.Result) bool {
		switch {
		case value.IsArray():
			for _, item := range value.Array() {
				if item.Type != gjson.String {
					valid = false
					return false
				}
				all = append(all, item.Str)
			}
		case value.Type == gjson.String:
			all = append(all, value.Str)
		}
		// Other value shapes are skipped, not errors
		return true
	})

	if !valid || len(all) == 0 {
		return nil
	}

	joined := strings.Join(all, " | ")
	return &joined
}

// validBlob reports whether bytes hold syntactically valid JSON
func validBlob(blob []byte) bool {
	return gjson.ValidBytes(blob)
}
