package integration

import (
	"context"

	"github.com/shopspring/decimal"
)

// TranslationRequest asks the language engine to render one source text
// into a set of target languages in a single call.
type TranslationRequest struct {
	CodOfer     int64
	SourceLang  string
	SourceText  string
	TargetLangs []string
}

// TranslationOutput is the engine's answer for one listing.
type TranslationOutput struct {
	// Texts maps target language code to translated text. Languages the
	// engine failed to produce are absent.
	Texts map[string]string

	// TokensUsed is the total token count billed for the call.
	TokensUsed int

	// CostEstimate is the billed cost derived from TokensUsed and the
	// configured per-1K-token price.
	CostEstimate decimal.Decimal
}

// Translator is the outbound port to the LLM translation engine.
type Translator interface {
	// Translate renders the request's source text into every requested
	// target language. Returns ErrTranslationFailed (wrapped) when the
	// engine's response cannot be used.
	Translate(ctx context.Context, req TranslationRequest) (*TranslationOutput, error)
}
