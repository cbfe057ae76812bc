package normalize

import (
	"regexp"

	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
)

var (
	reLeadingCode = regexp.MustCompile(`^(\d{1,6})(?:\D|$)`)
	// REF 12, Ref.: 12, COD-12, CÓD 12 (folded to COD), ART:12
	reTaggedCode = regexp.MustCompile(`(?i)\b(?:REF|COD|ART)\.?[:\s\-]*(\d{1,6})(?:\D|$)`)
)

// ProductCode recovers a supplier product code embedded in a line description,
// either as a leading number ("1234 Azeite Extra") or after a REF/COD/ART tag
// ("Azeite REF: 5678"). It returns nil when neither form is present.
func ProductCode(v any) *string {
	desc, ok := entity.Text(v)
	if !ok {
		return nil
	}
	if m := reLeadingCode.FindStringSubmatch(desc); m != nil {
		return &m[1]
	}
	if m := reTaggedCode.FindStringSubmatch(fold(desc)); m != nil {
		return &m[1]
	}
	return nil
}
