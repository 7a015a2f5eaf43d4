package product

import (
	"strings"

	"listingsmith/internal/services/vision"
	"listingsmith/internal/textutil"
)

const analysisNameRunes = 30

// ApplyAnalysis merges image-analysis suggestions into an input. The name and
// material are only filled when empty; type and target audience take the
// suggested values; selling points are replaced by the joined suggestions.
func ApplyAnalysis(in Input, analysis vision.Analysis) Input {
	if strings.TrimSpace(in.Name) == "" {
		in.Name = textutil.TruncateRunes(strings.TrimSpace(analysis.Description), analysisNameRunes)
	}
	if category := strings.TrimSpace(analysis.Category); category != "" {
		in.Type = category
	}
	if strings.TrimSpace(in.Material) == "" {
		in.Material = strings.TrimSpace(analysis.Style)
	}
	if audience := strings.TrimSpace(analysis.TargetAudience); audience != "" {
		in.TargetAudience = audience
	}
	if len(analysis.SellingPoints) > 0 {
		in.SellingPoints = strings.Join(analysis.SellingPoints, "\n")
	}
	return in
}
