package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vidahome/backend/internal/domain/integration"
)

// maxResponseSize limits how much of an engine response is read (2MB)
const maxResponseSize = 2 * 1024 * 1024

// Config holds the language engine endpoint and pricing.
type Config struct {
	APIURL          string
	APIKey          string
	Model           string
	Temperature     float64
	PricePerKTokens string
	MaxSourceChars  int
	Timeout         time.Duration
}

// Client talks to a chat-completions style language engine. It
// implements integration.Translator.
type Client struct {
	cfg        Config
	price      decimal.Decimal
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an engine client. The per-1K-token price must be a
// valid decimal string.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	price, err := decimal.NewFromString(cfg.PricePerKTokens)
	if err != nil {
		return nil, fmt.Errorf("invalid price_per_k_tokens %q: %w", cfg.PricePerKTokens, err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxSourceChars == 0 {
		cfg.MaxSourceChars = 500
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.4
	}

	return &Client{
		cfg:        cfg,
		price:      price,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("translation"),
	}, nil
}

// chatRequest is the engine's chat-completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the engine's answer the client uses.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Translate implements integration.Translator.
func (c *Client) Translate(ctx context.Context, req integration.TranslationRequest) (*integration.TranslationOutput, error) {
	source := strings.TrimSpace(req.SourceText)
	if source == "" {
		return nil, fmt.Errorf("%w: empty source text", integration.ErrTranslationFailed)
	}
	if len(source) > c.cfg.MaxSourceChars {
		// Back up to a rune boundary so the cut never splits an
		// accented character in half.
		cut := c.cfg.MaxSourceChars
		for cut > 0 && !utf8.RuneStart(source[cut]) {
			cut--
		}
		source = source[:cut]
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt(req)},
			{Role: "user", Content: source},
		},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", integration.ErrTranslationFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", integration.ErrTranslationFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrTranslationFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", integration.ErrTranslationFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: engine returned status %d", integration.ErrTranslationFailed, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: non-JSON response", integration.ErrTranslationFailed)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", integration.ErrTranslationFailed)
	}

	texts, err := extractTexts(parsed.Choices[0].Message.Content, req.TargetLangs)
	if err != nil {
		return nil, err
	}

	tokens := parsed.Usage.TotalTokens
	cost := decimal.NewFromInt(int64(tokens)).Div(decimal.NewFromInt(1000)).Mul(c.price)

	c.logger.Debug("translated listing",
		zap.Int64("cod_ofer", req.CodOfer),
		zap.Int("tokens", tokens),
		zap.String("cost", cost.String()),
	)

	return &integration.TranslationOutput{
		Texts:        texts,
		TokensUsed:   tokens,
		CostEstimate: cost,
	}, nil
}

// systemPrompt instructs the engine to answer with a strict JSON
// object keyed by target language code.
func (c *Client) systemPrompt(req integration.TranslationRequest) string {
	return fmt.Sprintf(
		"You are a professional real estate translator. Translate the property description the user provides from %s into the languages %s. "+
			"Respond with a single strict JSON object whose keys are exactly those language codes and whose values are the translated texts. "+
			"Do not add explanations, markdown or any text outside the JSON object.",
		req.SourceLang, strings.Join(req.TargetLangs, ", "))
}

// extractTexts locates the JSON object inside the engine's answer and
// keeps the requested languages. Engines routinely wrap the object in
// prose or code fences, so everything outside the outermost braces is
// discarded.
func extractTexts(content string, targetLangs []string) (map[string]string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in engine output", integration.ErrTranslationFailed)
	}

	var all map[string]string
	if err := json.Unmarshal([]byte(content[start:end+1]), &all); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON in engine output", integration.ErrTranslationFailed)
	}

	texts := make(map[string]string, len(targetLangs))
	for _, lang := range targetLangs {
		if text := strings.TrimSpace(all[lang]); text != "" {
			texts[lang] = text
		}
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: engine produced no requested language", integration.ErrTranslationFailed)
	}

	return texts, nil
}

// Ensure Client implements the port
var _ integration.Translator = (*Client)(nil)
