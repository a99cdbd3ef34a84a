package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidahome/backend/internal/domain/listing"
)

// PropertyMetadataModel is the persistence model for the ListingRecord
// domain entity. Rows are never deleted; availability is tracked by
// the no_disponible flag.
type PropertyMetadataModel struct {
	CodOfer          int64           `gorm:"primaryKey;column:cod_ofer"`
	Ref              string          `gorm:"type:varchar(50);not null;index:idx_property_metadata_ref"`
	Poblacion        string          `gorm:"type:varchar(100)"`
	Tipo             string          `gorm:"type:varchar(100)"`
	Precio           decimal.Decimal `gorm:"type:numeric(12,2)"`
	NoDisponible     bool            `gorm:"not null;default:false;index:idx_property_metadata_nodisp"`
	DescriptionsJSON string          `gorm:"type:jsonb;column:descriptions"`
	FullDataJSON     string          `gorm:"type:jsonb;column:full_data"`
	PhotosJSON       string          `gorm:"type:jsonb;column:photos"`
	MainPhoto        string          `gorm:"type:text"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PropertyMetadataModel) TableName() string {
	return "property_metadata"
}

// ToDomain converts the persistence model to a domain ListingRecord.
func (m *PropertyMetadataModel) ToDomain() *listing.ListingRecord {
	rec := &listing.ListingRecord{
		CodOfer:      m.CodOfer,
		Ref:          m.Ref,
		Poblacion:    m.Poblacion,
		Tipo:         m.Tipo,
		Precio:       m.Precio,
		NoDisponible: m.NoDisponible,
		Descriptions: make(listing.DescriptionBundle),
		Photos:       make([]string, 0),
		MainPhoto:    m.MainPhoto,
		UpdatedAt:    m.UpdatedAt,
	}

	if m.DescriptionsJSON != "" {
		var bundle listing.DescriptionBundle
		if err := json.Unmarshal([]byte(m.DescriptionsJSON), &bundle); err == nil {
			rec.Descriptions = bundle
		}
	}
	if m.FullDataJSON != "" {
		var full map[string]any
		if err := json.Unmarshal([]byte(m.FullDataJSON), &full); err == nil {
			rec.FullData = full
		}
	}
	if m.PhotosJSON != "" {
		var photos []string
		if err := json.Unmarshal([]byte(m.PhotosJSON), &photos); err == nil {
			rec.Photos = photos
		}
	}

	return rec
}

// FromDomain populates the persistence model from a domain ListingRecord.
func (m *PropertyMetadataModel) FromDomain(rec *listing.ListingRecord) {
	m.CodOfer = rec.CodOfer
	m.Ref = rec.Ref
	m.Poblacion = rec.Poblacion
	m.Tipo = rec.Tipo
	m.Precio = rec.Precio
	m.NoDisponible = rec.NoDisponible
	m.MainPhoto = rec.MainPhoto
	m.UpdatedAt = rec.UpdatedAt

	m.DescriptionsJSON = marshalOrEmptyObject(rec.Descriptions)
	m.FullDataJSON = marshalOrEmptyObject(rec.FullData)

	if len(rec.Photos) > 0 {
		if b, err := json.Marshal(rec.Photos); err == nil {
			m.PhotosJSON = string(b)
		}
	} else {
		m.PhotosJSON = "[]"
	}
}

func marshalOrEmptyObject(v any) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "{}"
	}
	return string(b)
}

// PropertyMetadataModelFromDomain creates a new persistence model from
// a domain ListingRecord.
func PropertyMetadataModelFromDomain(rec *listing.ListingRecord) *PropertyMetadataModel {
	m := &PropertyMetadataModel{}
	m.FromDomain(rec)
	return m
}

// PropertyFeaturesModel is the persistence model for the FeatureRecord
// domain entity. The row is overwritten in full on every sync.
type PropertyFeaturesModel struct {
	CodOfer             int64           `gorm:"primaryKey;column:cod_ofer"`
	Habitaciones        int             `gorm:"not null;default:0"`
	HabitacionesSimples int             `gorm:"not null;default:0"`
	HabitacionesDobles  int             `gorm:"not null;default:0"`
	Banos               int             `gorm:"not null;default:0"`
	Aseos               int             `gorm:"not null;default:0"`
	Superficie          float64         `gorm:"not null;default:0"`
	MTerraza            float64         `gorm:"not null;default:0"`
	MParcela            float64         `gorm:"not null;default:0"`
	Planta              int             `gorm:"not null;default:0"`
	Precio              decimal.Decimal `gorm:"type:numeric(12,2)"`
	PrecioAlq           decimal.Decimal `gorm:"type:numeric(12,2)"`
	Ascensor            bool            `gorm:"not null;default:false"`
	Parking             bool            `gorm:"not null;default:false"`
	Terraza             bool            `gorm:"not null;default:false"`
	PiscinaCom          bool            `gorm:"not null;default:false"`
	PiscinaProp         bool            `gorm:"not null;default:false"`
	AireCon             bool            `gorm:"not null;default:false"`
	Calefaccion         bool            `gorm:"not null;default:false"`
	Zona                string          `gorm:"type:varchar(100)"`
	Tipo                string          `gorm:"type:varchar(100)"`
	DistMar             int             `gorm:"not null;default:0"`
	SyncedAt            time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PropertyFeaturesModel) TableName() string {
	return "property_features"
}

// ToDomain converts the persistence model to a domain FeatureRecord.
func (m *PropertyFeaturesModel) ToDomain() *listing.FeatureRecord {
	return &listing.FeatureRecord{
		CodOfer:             m.CodOfer,
		Habitaciones:        m.Habitaciones,
		HabitacionesSimples: m.HabitacionesSimples,
		HabitacionesDobles:  m.HabitacionesDobles,
		Banos:               m.Banos,
		Aseos:               m.Aseos,
		Superficie:          m.Superficie,
		MTerraza:            m.MTerraza,
		MParcela:            m.MParcela,
		Planta:              m.Planta,
		Precio:              m.Precio,
		PrecioAlq:           m.PrecioAlq,
		Ascensor:            m.Ascensor,
		Parking:             m.Parking,
		Terraza:             m.Terraza,
		PiscinaCom:          m.PiscinaCom,
		PiscinaProp:         m.PiscinaProp,
		AireCon:             m.AireCon,
		Calefaccion:         m.Calefaccion,
		Zona:                m.Zona,
		Tipo:                m.Tipo,
		DistMar:             m.DistMar,
		SyncedAt:            m.SyncedAt,
	}
}

// FromDomain populates the persistence model from a domain FeatureRecord.
func (m *PropertyFeaturesModel) FromDomain(f *listing.FeatureRecord) {
	m.CodOfer = f.CodOfer
	m.Habitaciones = f.Habitaciones
	m.HabitacionesSimples = f.HabitacionesSimples
	m.HabitacionesDobles = f.HabitacionesDobles
	m.Banos = f.Banos
	m.Aseos = f.Aseos
	m.Superficie = f.Superficie
	m.MTerraza = f.MTerraza
	m.MParcela = f.MParcela
	m.Planta = f.Planta
	m.Precio = f.Precio
	m.PrecioAlq = f.PrecioAlq
	m.Ascensor = f.Ascensor
	m.Parking = f.Parking
	m.Terraza = f.Terraza
	m.PiscinaCom = f.PiscinaCom
	m.PiscinaProp = f.PiscinaProp
	m.AireCon = f.AireCon
	m.Calefaccion = f.Calefaccion
	m.Zona = f.Zona
	m.Tipo = f.Tipo
	m.DistMar = f.DistMar
	m.SyncedAt = f.SyncedAt
}

// PropertyFeaturesModelFromDomain creates a new persistence model from
// a domain FeatureRecord.
func PropertyFeaturesModelFromDomain(f *listing.FeatureRecord) *PropertyFeaturesModel {
	m := &PropertyFeaturesModel{}
	m.FromDomain(f)
	return m
}
