package sourceapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/vidahome/backend/internal/domain/integration"
)

// The gateway serializes everything as strings and is inconsistent
// about it between process types, so every numeric and boolean field
// goes through a forgiving decoder.

// flexInt decodes from a JSON number or a numeric string.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	// Some counters arrive as "3.0".
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric value %q", s)
	}
	*f = flexInt(v)
	return nil
}

// flexFloat decodes from a JSON number or a numeric string, accepting
// a comma decimal separator.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric value %q", s)
	}
	*f = flexFloat(v)
	return nil
}

// flexBool decodes "1"/"0", "true"/"false", numbers and booleans.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.ToLower(strings.Trim(string(data), `"`))
	switch s {
	case "", "null", "0", "false", "no":
		*f = false
	default:
		*f = true
	}
	return nil
}

// wireProperty mirrors one gateway record.
type wireProperty struct {
	CodOfer      flexInt   `json:"cod_ofer"`
	Ref          string    `json:"ref"`
	Poblacion    string    `json:"poblacion"`
	Zona         string    `json:"zona"`
	Tipo         string    `json:"nbtipo"`
	Precio       flexFloat `json:"precioinmo"`
	PrecioAlq    flexFloat `json:"precioalq"`
	Habitaciones flexInt   `json:"habitaciones"`
	HabDobles    flexInt   `json:"habdobles"`
	Banyos       flexInt   `json:"banyos"`
	Aseos        flexInt   `json:"aseos"`
	MUtiles      flexFloat `json:"m_utiles"`
	MCons        flexFloat `json:"m_cons"`
	MTerraza     flexFloat `json:"m_terraza"`
	MParcela     flexFloat `json:"m_parcela"`
	Planta       flexInt   `json:"planta"`
	Ascensor     flexBool  `json:"ascensor"`
	Parking      flexBool  `json:"parking"`
	Terraza      flexBool  `json:"terraza"`
	PiscinaCom   flexBool  `json:"piscina_com"`
	PiscinaProp  flexBool  `json:"piscina_prop"`
	AireCon      flexBool  `json:"aire_con"`
	Calefaccion  flexBool  `json:"calefaccion"`
	DistMar      flexInt   `json:"distmar"`
	NumFotos     flexInt   `json:"numfotos"`
	FotoLetra    string    `json:"fotoletra"`
	NumAgencia   flexInt   `json:"numagencia"`
	Descripcion  string    `json:"descrip"`
	Prospecto    flexBool  `json:"prospecto"`
	Vendido      flexBool  `json:"vendido"`
	NoDisponible flexBool  `json:"nodisponible"`
}

// decodeProperty converts one raw record into the domain payload,
// keeping the untouched wire object alongside.
func decodeProperty(raw json.RawMessage) (*integration.SourceProperty, error) {
	var w wireProperty
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: malformed record: %v", integration.ErrSourceUnavailable, err)
	}
	if w.CodOfer == 0 {
		return nil, fmt.Errorf("%w: record without cod_ofer", integration.ErrSourceUnavailable)
	}

	var rawMap map[string]any
	if err := json.Unmarshal(raw, &rawMap); err != nil {
		rawMap = nil
	}

	return &integration.SourceProperty{
		CodOfer:      int64(w.CodOfer),
		Ref:          strings.TrimSpace(w.Ref),
		Poblacion:    w.Poblacion,
		Zona:         w.Zona,
		Tipo:         w.Tipo,
		Precio:       float64(w.Precio),
		PrecioAlq:    float64(w.PrecioAlq),
		Habitaciones: int(w.Habitaciones),
		HabDobles:    int(w.HabDobles),
		Banyos:       int(w.Banyos),
		Aseos:        int(w.Aseos),
		MUtiles:      float64(w.MUtiles),
		MCons:        float64(w.MCons),
		MTerraza:     float64(w.MTerraza),
		MParcela:     float64(w.MParcela),
		Planta:       int(w.Planta),
		Ascensor:     bool(w.Ascensor),
		Parking:      bool(w.Parking),
		Terraza:      bool(w.Terraza),
		PiscinaCom:   bool(w.PiscinaCom),
		PiscinaProp:  bool(w.PiscinaProp),
		AireCon:      bool(w.AireCon),
		Calefaccion:  bool(w.Calefaccion),
		DistMar:      int(w.DistMar),
		NumFotos:     int(w.NumFotos),
		FotoLetra:    strings.TrimSpace(w.FotoLetra),
		NumAgencia:   int(w.NumAgencia),
		Descripcion:  w.Descripcion,
		Prospecto:    bool(w.Prospecto),
		Vendido:      bool(w.Vendido),
		NoDisponible: bool(w.NoDisponible),
		Raw:          rawMap,
	}, nil
}

// normalizeRecords turns a process result into a flat record list. The
// gateway answers with either a JSON array or a bare object depending
// on the element count.
func normalizeRecords(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("%w: malformed record list: %v", integration.ErrSourceUnavailable, err)
		}
		return list, nil
	case '{':
		return []json.RawMessage{trimmed}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected record payload", integration.ErrSourceUnavailable)
	}
}

// listMeta is the synthetic first element of every list response,
// carrying the remote total.
type listMeta struct {
	Total flexInt `json:"total"`
}

// splitListResponse separates the leading metadata element from the
// data records of a list process result.
func splitListResponse(records []json.RawMessage) (listMeta, []json.RawMessage) {
	if len(records) == 0 {
		return listMeta{}, nil
	}

	var meta listMeta
	// The metadata element has no cod_ofer; a decode failure just
	// leaves the total at zero.
	_ = json.Unmarshal(records[0], &meta)
	return meta, records[1:]
}
