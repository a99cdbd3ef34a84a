package listing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Language codes carried in a DescriptionBundle. Spanish is the source
// language; the rest are translation targets.
const (
	LangES = "es"
	LangEN = "en"
	LangFR = "fr"
	LangDE = "de"
	LangIT = "it"
	LangPL = "pl"
)

// TargetLanguages lists the translation targets in stable order.
var TargetLanguages = []string{LangEN, LangFR, LangDE, LangIT, LangPL}

// DescriptionBundle maps language code to description text. The source
// language entry comes from the CRM; target entries come from the
// translation engine and are never overwritten by a sync.
type DescriptionBundle map[string]string

// Get returns the trimmed text for lang, or "".
func (b DescriptionBundle) Get(lang string) string {
	return strings.TrimSpace(b[lang])
}

// Has reports whether the bundle carries a non-empty text for lang.
func (b DescriptionBundle) Has(lang string) bool {
	return b.Get(lang) != ""
}

// MissingTargets returns the target languages with no stored text.
func (b DescriptionBundle) MissingTargets() []string {
	var missing []string
	for _, lang := range TargetLanguages {
		if !b.Has(lang) {
			missing = append(missing, lang)
		}
	}
	return missing
}

// Merge copies non-empty texts from other into the bundle without
// clobbering existing non-empty entries.
func (b DescriptionBundle) Merge(other DescriptionBundle) {
	for lang, text := range other {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if !b.Has(lang) {
			b[lang] = text
		}
	}
}

// ListingRecord is the locally persisted metadata of one CRM listing.
// Records are never deleted; availability is tracked by the
// NoDisponible flag.
type ListingRecord struct {
	CodOfer      int64
	Ref          string
	Poblacion    string
	Tipo         string
	Precio       decimal.Decimal
	NoDisponible bool
	Descriptions DescriptionBundle
	FullData     map[string]any
	Photos       []string
	MainPhoto    string
	UpdatedAt    time.Time
}

// Available reports whether the listing is currently published.
func (r *ListingRecord) Available() bool {
	return !r.NoDisponible
}
