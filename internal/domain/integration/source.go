package integration

import (
	"context"
	"strings"
)

// SourceProperty is a property record as delivered by the external CRM
// web service. Field names mirror the wire protocol so that the raw
// payload can be stored verbatim alongside the normalized record.
type SourceProperty struct {
	CodOfer      int64   `json:"cod_ofer"`
	Ref          string  `json:"ref"`
	Poblacion    string  `json:"poblacion"`
	Zona         string  `json:"zona"`
	Tipo         string  `json:"nbtipo"`
	Precio       float64 `json:"precioinmo"`
	PrecioAlq    float64 `json:"precioalq"`
	Habitaciones int     `json:"habitaciones"`
	HabDobles    int     `json:"habdobles"`
	Banyos       int     `json:"banyos"`
	Aseos        int     `json:"aseos"`
	MUtiles      float64 `json:"m_utiles"`
	MCons        float64 `json:"m_cons"`
	MTerraza     float64 `json:"m_terraza"`
	MParcela     float64 `json:"m_parcela"`
	Planta       int     `json:"planta"`
	Ascensor     bool    `json:"ascensor"`
	Parking      bool    `json:"parking"`
	Terraza      bool    `json:"terraza"`
	PiscinaCom   bool    `json:"piscina_com"`
	PiscinaProp  bool    `json:"piscina_prop"`
	AireCon      bool    `json:"aire_con"`
	Calefaccion  bool    `json:"calefaccion"`
	DistMar      int     `json:"distmar"`
	NumFotos     int     `json:"numfotos"`
	FotoLetra    string  `json:"fotoletra"`
	NumAgencia   int     `json:"numagencia"`
	Descripcion  string  `json:"descrip"`
	Prospecto    bool    `json:"prospecto"`
	Vendido      bool    `json:"vendido"`
	NoDisponible bool    `json:"nodisponible"`

	// Raw holds the untouched wire payload for audit and replay.
	Raw map[string]any `json:"-"`
}

// IsValid reports whether the record is a publishable listing: it must
// carry a reference and not be a prospect, sold, or withdrawn by the
// CRM.
func (p *SourceProperty) IsValid() bool {
	return strings.TrimSpace(p.Ref) != "" && !p.Prospecto && !p.Vendido && !p.NoDisponible
}

// SourcePage identifies a page of the remote catalog.
type SourcePage struct {
	Offset int
	Limit  int
}

// PropertySource is the outbound port to the property CRM.
// Implementations live in the infrastructure layer.
type PropertySource interface {
	// ListProperties returns one page of the remote catalog. An empty
	// slice signals the end of the catalog.
	ListProperties(ctx context.Context, page SourcePage) ([]SourceProperty, error)

	// ListFeatured returns up to limit highlighted listings.
	ListFeatured(ctx context.Context, limit int) ([]SourceProperty, error)

	// GetPropertyDetail returns the full record for a single listing,
	// including its long description. Returns ErrListingNotFound when
	// the remote catalog has no such listing.
	GetPropertyDetail(ctx context.Context, codOfer int64) (*SourceProperty, error)

	// PhotoURLs derives the ordered gallery URLs for a listing. URLs
	// are constructed, never fetched.
	PhotoURLs(p *SourceProperty) []string

	// MainPhotoURL derives the cover photo URL, or "" when the listing
	// has no photos.
	MainPhotoURL(p *SourceProperty) string
}
