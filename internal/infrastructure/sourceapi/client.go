package sourceapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vidahome/backend/internal/domain/integration"
)

// maxResponseSize limits how much of a gateway response is read (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Auth failure markers the gateway emits as plain text with HTTP 200.
const (
	markerIPNotValidated     = "IP NO VALIDADA"
	markerDomainNotValidated = "DOMINIO NO VALIDADO"
)

// Config holds the gateway endpoint and agency credentials.
type Config struct {
	BaseURL      string
	AgencyNumber int
	AgencySuffix int
	Password     string
	LanguageID   int
	Domain       string
	ClientIP     string
	PhotoBaseURL string
	UserAgent    string
	Timeout      time.Duration
	PageSize     int
}

// Client talks to the property CRM gateway. It implements
// integration.PropertySource.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a gateway client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 50
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("sourceapi"),
	}
}

// execute posts the queued processes and returns the response envelope
// keyed by process name.
func (c *Client) execute(ctx context.Context, procs []process) (map[string]json.RawMessage, error) {
	param, err := c.buildParam(procs)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("param", param)
	form.Set("elDominio", c.cfg.Domain)
	form.Set("laIP", c.cfg.ClientIP)
	form.Set("json", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", integration.ErrSourceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", integration.ErrSourceUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: gateway returned status %d", integration.ErrSourceUnavailable, resp.StatusCode)
	}

	// The gateway reports auth failures as plain text with HTTP 200.
	text := string(body)
	if strings.Contains(text, markerIPNotValidated) || strings.Contains(text, markerDomainNotValidated) {
		return nil, fmt.Errorf("%w: %s", integration.ErrSourceNotAuthorized, strings.TrimSpace(firstLine(text)))
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.logger.Warn("non-JSON gateway response", zap.Int("bytes", len(body)))
		return nil, fmt.Errorf("%w: non-JSON response", integration.ErrSourceUnavailable)
	}

	return envelope, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	if len(s) > 120 {
		return s[:120]
	}
	return s
}

// listProcess fetches one list-style process and decodes its records,
// dropping the leading metadata element.
func (c *Client) listProcess(ctx context.Context, p process) ([]integration.SourceProperty, int, error) {
	envelope, err := c.execute(ctx, []process{p})
	if err != nil {
		return nil, 0, err
	}

	records, err := normalizeRecords(envelope[p.kind])
	if err != nil {
		return nil, 0, err
	}
	meta, records := splitListResponse(records)

	props := make([]integration.SourceProperty, 0, len(records))
	for _, raw := range records {
		prop, err := decodeProperty(raw)
		if err != nil {
			c.logger.Warn("skipping undecodable record", zap.Error(err))
			continue
		}
		props = append(props, *prop)
	}

	return props, int(meta.Total), nil
}

// ListProperties implements integration.PropertySource.
func (c *Client) ListProperties(ctx context.Context, page integration.SourcePage) ([]integration.SourceProperty, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = c.cfg.PageSize
	}

	props, _, err := c.listProcess(ctx, process{
		kind: procPagination,
		pos:  page.Offset + 1,
		num:  limit,
	})
	return props, err
}

// ListFeatured implements integration.PropertySource.
func (c *Client) ListFeatured(ctx context.Context, limit int) ([]integration.SourceProperty, error) {
	if limit <= 0 {
		limit = c.cfg.PageSize
	}

	props, _, err := c.listProcess(ctx, process{
		kind: procFeatured,
		pos:  1,
		num:  limit,
	})
	return props, err
}

// GetPropertyDetail implements integration.PropertySource. The detail
// process returns the long description but omits some list fields, so
// both are queued in one request and merged with the detail record
// taking precedence.
func (c *Client) GetPropertyDetail(ctx context.Context, codOfer int64) (*integration.SourceProperty, error) {
	where := fmt.Sprintf("cod_ofer=%d", codOfer)
	envelope, err := c.execute(ctx, []process{
		{kind: procDetail, pos: 1, num: 1, where: where},
		{kind: procPagination, pos: 1, num: 1, where: where},
	})
	if err != nil {
		return nil, err
	}

	detail := c.decodeSingle(envelope[procDetail], false)
	listed := c.decodeSingle(envelope[procPagination], true)

	switch {
	case detail == nil && listed == nil:
		return nil, fmt.Errorf("%w: cod_ofer=%d", integration.ErrListingNotFound, codOfer)
	case detail == nil:
		return listed, nil
	case listed == nil:
		return detail, nil
	}

	mergeProperty(detail, listed)
	return detail, nil
}

// decodeSingle extracts the first data record of a process result, or
// nil when the result carries no records.
func (c *Client) decodeSingle(raw json.RawMessage, hasMeta bool) *integration.SourceProperty {
	records, err := normalizeRecords(raw)
	if err != nil || len(records) == 0 {
		return nil
	}
	if hasMeta {
		_, records = splitListResponse(records)
		if len(records) == 0 {
			return nil
		}
	}

	prop, err := decodeProperty(records[0])
	if err != nil {
		c.logger.Warn("skipping undecodable record", zap.Error(err))
		return nil
	}
	return prop
}

// mergeProperty fills zero-valued fields of dst from src.
func mergeProperty(dst, src *integration.SourceProperty) {
	if dst.Descripcion == "" {
		dst.Descripcion = src.Descripcion
	}
	if dst.Ref == "" {
		dst.Ref = src.Ref
	}
	if dst.Poblacion == "" {
		dst.Poblacion = src.Poblacion
	}
	if dst.Zona == "" {
		dst.Zona = src.Zona
	}
	if dst.Tipo == "" {
		dst.Tipo = src.Tipo
	}
	if dst.Precio == 0 {
		dst.Precio = src.Precio
	}
	if dst.PrecioAlq == 0 {
		dst.PrecioAlq = src.PrecioAlq
	}
	if dst.NumFotos == 0 {
		dst.NumFotos = src.NumFotos
	}
	if dst.FotoLetra == "" {
		dst.FotoLetra = src.FotoLetra
	}
	if dst.NumAgencia == 0 {
		dst.NumAgencia = src.NumAgencia
	}
}

// PhotoURLs implements integration.PropertySource. Gallery URLs follow
// the CDN layout {base}/{agency}/{cod_ofer}/{letter}-{n}.jpg with a
// 1-based photo index.
func (c *Client) PhotoURLs(p *integration.SourceProperty) []string {
	if p.NumFotos <= 0 || p.FotoLetra == "" {
		return nil
	}

	agency := p.NumAgencia
	if agency == 0 {
		agency = c.cfg.AgencyNumber
	}

	urls := make([]string, 0, p.NumFotos)
	for i := 1; i <= p.NumFotos; i++ {
		urls = append(urls, fmt.Sprintf("%s/%d/%d/%s-%d.jpg", c.cfg.PhotoBaseURL, agency, p.CodOfer, p.FotoLetra, i))
	}
	return urls
}

// MainPhotoURL implements integration.PropertySource.
func (c *Client) MainPhotoURL(p *integration.SourceProperty) string {
	urls := c.PhotoURLs(p)
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}

// Ensure Client implements the port
var _ integration.PropertySource = (*Client)(nil)
