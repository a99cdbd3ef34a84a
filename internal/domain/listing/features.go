package listing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidahome/backend/internal/domain/integration"
)

// FeatureRecord is the denormalized, filterable feature row of one
// listing. It is recomputed in full from the source payload on every
// sync; stale fields never survive a recompute.
type FeatureRecord struct {
	CodOfer             int64
	Habitaciones        int // simple + double bedrooms
	HabitacionesSimples int
	HabitacionesDobles  int
	Banos               int
	Aseos               int
	Superficie          float64 // usable area, built area when unset
	MTerraza            float64
	MParcela            float64
	Planta              int
	Precio              decimal.Decimal
	PrecioAlq           decimal.Decimal
	Ascensor            bool
	Parking             bool
	Terraza             bool
	PiscinaCom          bool
	PiscinaProp         bool
	AireCon             bool
	Calefaccion         bool
	Zona                string
	Tipo                string
	DistMar             int
	SyncedAt            time.Time
}

// DeriveFeatures computes the feature row for a source payload.
//
// The CRM reports simple and double bedrooms in separate counters; the
// total bedroom count is their sum. Usable area wins over built area,
// built area fills in when usable is zero. Floors below zero and
// negative prices are clamped.
func DeriveFeatures(p *integration.SourceProperty, now time.Time) FeatureRecord {
	simples := max(p.Habitaciones, 0)
	dobles := max(p.HabDobles, 0)

	superficie := p.MUtiles
	if superficie <= 0 {
		superficie = p.MCons
	}

	return FeatureRecord{
		CodOfer:             p.CodOfer,
		Habitaciones:        simples + dobles,
		HabitacionesSimples: simples,
		HabitacionesDobles:  dobles,
		Banos:               max(p.Banyos, 0),
		Aseos:               max(p.Aseos, 0),
		Superficie:          max(superficie, 0),
		MTerraza:            max(p.MTerraza, 0),
		MParcela:            max(p.MParcela, 0),
		Planta:              max(p.Planta, 0),
		Precio:              clampPrice(p.Precio),
		PrecioAlq:           clampPrice(p.PrecioAlq),
		Ascensor:            p.Ascensor,
		Parking:             p.Parking,
		Terraza:             p.Terraza,
		PiscinaCom:          p.PiscinaCom,
		PiscinaProp:         p.PiscinaProp,
		AireCon:             p.AireCon,
		Calefaccion:         p.Calefaccion,
		Zona:                p.Zona,
		Tipo:                p.Tipo,
		DistMar:             max(p.DistMar, 0),
		SyncedAt:            now,
	}
}

func clampPrice(v float64) decimal.Decimal {
	if v < 0 {
		v = 0
	}
	return decimal.NewFromFloat(v)
}
