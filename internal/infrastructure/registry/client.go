package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vidahome/backend/internal/domain/integration"
	"github.com/vidahome/backend/internal/infrastructure/ratelimit"
)

// maxResponseSize limits how much of a registry response is read (5MB)
const maxResponseSize = 5 * 1024 * 1024

// markerServiceDown is the overload notice the registry serves with
// HTTP 200 when its backend is saturated.
const markerServiceDown = "Sistema no disponible"

// Registry operations and their rate limit keys.
const (
	opSearchByAddress   = "Consulta_DNPLOC"
	opSearchByReference = "Consulta_DNPRC"
	opListStreets       = "ObtenerCallejero"
	opListNumbers       = "ObtenerNumerero"
)

// Config holds the registry hosts and HTTP settings.
type Config struct {
	// BaseURLs are tried in order when a host is unreachable. Only
	// transport failures advance to the next host; application errors
	// do not.
	BaseURLs []string
	Timeout  time.Duration
}

// Client talks to the government cadastral registry. It implements
// integration.AddressRegistry. Every operation consumes the injected
// rate limiter before any network I/O.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    ratelimit.Limiter
	logger     *zap.Logger
}

// NewClient creates a registry client.
func NewClient(cfg Config, limiter ratelimit.Limiter, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		logger:     logger.Named("registry"),
	}
}

// call performs one registry operation and returns the unwrapped
// payload. An *AppError return means the registry answered but
// reported an application-level failure.
func (c *Client) call(ctx context.Context, op string, params url.Values) (map[string]json.RawMessage, error) {
	if err := c.limiter.Allow(op); err != nil {
		return nil, err
	}

	body, err := c.fetch(ctx, op, params)
	if err != nil {
		return nil, err
	}

	if strings.Contains(string(body), markerServiceDown) {
		return nil, fmt.Errorf("%w: overload notice", ErrServiceDown)
	}

	result, err := unwrapResult(body)
	if err != nil {
		return nil, err
	}
	if appErr := appError(result); appErr != nil {
		return nil, appErr
	}

	return result, nil
}

// fetch tries each configured host in order until one answers.
func (c *Client) fetch(ctx context.Context, op string, params url.Values) ([]byte, error) {
	var lastErr error

	for _, base := range c.cfg.BaseURLs {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/"+op+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("%w: build request: %v", ErrServiceDown, err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("registry host unreachable", zap.String("host", base), zap.Error(err))
			lastErr = err
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read response: %v", ErrServiceDown, err)
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: status %d", ErrServiceDown, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d", ErrEnvelope, resp.StatusCode)
		}

		return body, nil
	}

	return nil, fmt.Errorf("%w: all hosts unreachable: %v", ErrServiceDown, lastErr)
}

// SearchByAddress implements integration.AddressRegistry.
func (c *Client) SearchByAddress(ctx context.Context, q integration.AddressQuery) ([]integration.AddressCandidate, error) {
	province := strings.ToUpper(strings.TrimSpace(q.Province))
	municipality := strings.ToUpper(strings.TrimSpace(q.Municipality))
	number := strings.TrimSpace(q.Number)

	sigla := normalizeSigla(q.StreetType)
	street := strings.ToUpper(strings.TrimSpace(q.Street))
	if sigla == "" {
		sigla, street = splitStreetType(street)
	}

	candidates, err := c.searchDNPLOC(ctx, province, municipality, sigla, street, number)

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code == codeNumberNotFound {
		// The street is known but the number is not. Walk the street's
		// portal index and resolve the recovered parcel instead.
		return c.searchViaNumbers(ctx, province, municipality, sigla, street, number)
	}
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s %s %s, %s", integration.ErrNoAddressMatch, sigla, street, number, municipality)
	}
	return candidates, nil
}

func (c *Client) searchDNPLOC(ctx context.Context, province, municipality, sigla, street, number string) ([]integration.AddressCandidate, error) {
	params := url.Values{}
	params.Set("Provincia", province)
	params.Set("Municipio", municipality)
	params.Set("Sigla", sigla)
	params.Set("Calle", street)
	params.Set("Numero", number)

	result, err := c.call(ctx, opSearchByAddress, params)
	if err != nil {
		return nil, err
	}
	return parseCandidates(result)
}

// searchViaNumbers is the fallback ladder for unknown portal numbers:
// the requested number first, then the whole street, taking the first
// recovered parcel reference.
func (c *Client) searchViaNumbers(ctx context.Context, province, municipality, sigla, street, number string) ([]integration.AddressCandidate, error) {
	for _, prefix := range []string{number, "1"} {
		numbers, err := c.listNumbers(ctx, province, municipality, sigla, street, prefix)
		if err != nil {
			var appErr *AppError
			if errors.As(err, &appErr) {
				continue
			}
			return nil, err
		}
		if len(numbers) == 0 {
			continue
		}

		candidates, err := c.SearchByReference(ctx, numbers[0].ParcelReference)
		if err != nil && !errors.Is(err, integration.ErrNoAddressMatch) {
			return nil, err
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}

	return nil, fmt.Errorf("%w: %s %s %s, %s", integration.ErrNoAddressMatch, sigla, street, number, municipality)
}

// SearchByReference implements integration.AddressRegistry. Both full
// 20-character references and 14-character parcel references are
// accepted; a parcel reference returns every unit on the parcel.
func (c *Client) SearchByReference(ctx context.Context, reference string) ([]integration.AddressCandidate, error) {
	reference = strings.ToUpper(strings.TrimSpace(reference))
	if len(reference) != 14 && len(reference) != 20 {
		return nil, fmt.Errorf("%w: reference must be 14 or 20 characters", integration.ErrNoAddressMatch)
	}

	params := url.Values{}
	params.Set("RefCat", reference)

	result, err := c.call(ctx, opSearchByReference, params)
	if err != nil {
		return nil, err
	}

	candidates, err := parseCandidates(result)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: reference %s", integration.ErrNoAddressMatch, reference)
	}
	return candidates, nil
}

// ListStreets implements integration.AddressRegistry.
func (c *Client) ListStreets(ctx context.Context, province, municipality, query string) ([]integration.Street, error) {
	params := url.Values{}
	params.Set("Provincia", strings.ToUpper(strings.TrimSpace(province)))
	params.Set("Municipio", strings.ToUpper(strings.TrimSpace(municipality)))
	params.Set("TipoVia", "")
	params.Set("NomVia", strings.ToUpper(strings.TrimSpace(query)))

	result, err := c.call(ctx, opListStreets, params)
	if err != nil {
		return nil, err
	}

	raw, ok := result["callejero"]
	if !ok {
		return nil, nil
	}
	records, err := normalizeList(raw, "calle")
	if err != nil {
		return nil, err
	}

	streets := make([]integration.Street, 0, len(records))
	for _, r := range records {
		var entry struct {
			Dir wireDir `json:"dir"`
		}
		if err := json.Unmarshal(r, &entry); err != nil {
			return nil, fmt.Errorf("%w: malformed street record", ErrEnvelope)
		}
		streets = append(streets, integration.Street{Type: entry.Dir.TV, Name: entry.Dir.NV})
	}
	return streets, nil
}

// ListStreetNumbers implements integration.AddressRegistry.
func (c *Client) ListStreetNumbers(ctx context.Context, province, municipality, streetType, street, prefix string) ([]integration.StreetNumber, error) {
	sigla := normalizeSigla(streetType)
	upperStreet := strings.ToUpper(strings.TrimSpace(street))
	if sigla == "" {
		sigla, upperStreet = splitStreetType(upperStreet)
	}

	return c.listNumbers(ctx,
		strings.ToUpper(strings.TrimSpace(province)),
		strings.ToUpper(strings.TrimSpace(municipality)),
		sigla, upperStreet, strings.TrimSpace(prefix))
}

func (c *Client) listNumbers(ctx context.Context, province, municipality, sigla, street, prefix string) ([]integration.StreetNumber, error) {
	params := url.Values{}
	params.Set("Provincia", province)
	params.Set("Municipio", municipality)
	params.Set("Sigla", sigla)
	params.Set("Calle", street)
	params.Set("Numero", prefix)

	result, err := c.call(ctx, opListNumbers, params)
	if err != nil {
		return nil, err
	}

	// The number list arrives either at the root or nested under a
	// second numerero wrapper.
	raw, ok := result["nump"]
	if !ok {
		raw, ok = result["numerero"]
		if !ok {
			return nil, nil
		}
	}
	records, err := normalizeList(raw, "nump")
	if err != nil {
		return nil, err
	}

	numbers := make([]integration.StreetNumber, 0, len(records))
	for _, r := range records {
		var entry struct {
			Num struct {
				PNP flexString `json:"pnp"`
			} `json:"num"`
			PC struct {
				PC1 string `json:"pc1"`
				PC2 string `json:"pc2"`
			} `json:"pc"`
		}
		if err := json.Unmarshal(r, &entry); err != nil {
			return nil, fmt.Errorf("%w: malformed number record", ErrEnvelope)
		}
		numbers = append(numbers, integration.StreetNumber{
			Number:          entry.Num.PNP.String(),
			ParcelReference: entry.PC.PC1 + entry.PC.PC2,
		})
	}
	return numbers, nil
}

// Ensure Client implements the port
var _ integration.AddressRegistry = (*Client)(nil)
