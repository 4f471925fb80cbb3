package patient

import (
	"fmt"

	"github.com/covidtrack/registry/internal/domain/shared"
)

const (
	// at or above: accepted outright
	highConfidenceScore = 60
	// below: retried on the layout transliteration, then rejected
	minClassifierScore = 40
)

var documentPhrases = []struct {
	phrase string
	kind   DocumentKind
}{
	{"паспорт российский", DocumentKindDomesticPassport},
	{"заграничный паспорт", DocumentKindForeignPassport},
	{"водительское удостоверение, права", DocumentKindDriverLicense},
}

// Confidence describes how a document description was classified.
type Confidence struct {
	Score int
	// ViaLayout is set when the description only matched after re-reading it
	// in the Cyrillic keyboard layout.
	ViaLayout bool
}

// IsLow reports an accepted match below the high-confidence score.
func (c Confidence) IsLow() bool {
	return c.Score < highConfidenceScore
}

// ClassifyDocumentKind maps a free-text document description such as
// "паспорт", "права водителя" or "pfuhfybxysq gfcgjhn" onto a DocumentKind.
func ClassifyDocumentKind(raw string) (DocumentKind, Confidence, error) {
	kind, score := bestDocumentMatch(raw)
	if score >= minClassifierScore {
		return kind, Confidence{Score: score}, nil
	}

	kind, score = bestDocumentMatch(FromLatinLayout(raw))
	if score >= minClassifierScore {
		return kind, Confidence{Score: score, ViaLayout: true}, nil
	}

	return "", Confidence{Score: score}, shared.NewDomainError(shared.CodeInvalidDocumentType,
		fmt.Sprintf("unrecognized document type %q (score %d)", raw, score))
}

// bestDocumentMatch scores raw against every phrase with PartialTokenSetRatio.
// Ties are broken by TokenSetRatio, then by phrase order.
func bestDocumentMatch(raw string) (DocumentKind, int) {
	var (
		bestKind    DocumentKind
		bestPartial = -1
		bestFull    = -1
	)
	for _, p := range documentPhrases {
		partial := PartialTokenSetRatio(raw, p.phrase)
		full := TokenSetRatio(raw, p.phrase)
		if partial > bestPartial || (partial == bestPartial && full > bestFull) {
			bestKind, bestPartial, bestFull = p.kind, partial, full
		}
	}
	return bestKind, bestPartial
}
