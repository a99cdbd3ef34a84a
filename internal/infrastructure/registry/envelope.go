package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/vidahome/backend/internal/domain/integration"
)

// resultKeys are the per-operation wrappers the registry nests its
// payload under. Some deployments answer with the bare payload at the
// root instead, so unwrapping probes each key and falls back to the
// root object.
var resultKeys = []string{
	"consulta_dnplocResult",
	"consulta_dnprcResult",
	"consulta_callejeroResult",
	"consulta_numereroResult",
}

// unwrapResult peels the operation wrapper off a response body and
// returns the payload object.
func unwrapResult(body []byte) (map[string]json.RawMessage, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("%w: non-JSON response", ErrEnvelope)
	}

	for _, key := range resultKeys {
		raw, ok := root[key]
		if !ok {
			continue
		}
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: malformed %s", ErrEnvelope, key)
		}
		return inner, nil
	}

	return root, nil
}

// flexString decodes from a JSON string or number; the registry is not
// consistent about which it uses.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	*f = flexString(strings.Trim(s, `"`))
	return nil
}

func (f flexString) String() string { return string(f) }

// wireError is one entry of the registry's application error list.
type wireError struct {
	Cod flexString `json:"cod"`
	Des string     `json:"des"`
}

// appError extracts the registry's application-level error from a
// payload, if any. The registry reports these with HTTP 200, so every
// response must be checked.
func appError(result map[string]json.RawMessage) error {
	raw, ok := result["lerr"]
	if !ok {
		return nil
	}

	entries, err := normalizeList(raw, "")
	if err != nil || len(entries) == 0 {
		return nil
	}

	var we wireError
	if err := json.Unmarshal(entries[0], &we); err != nil {
		return fmt.Errorf("%w: malformed error list", ErrEnvelope)
	}

	code, _ := strconv.Atoi(we.Cod.String())
	return &AppError{Code: code, Message: strings.TrimSpace(we.Des)}
}

// normalizeList flattens the registry's three list spellings into a
// slice: a bare object, an array, or an object nested under nestedKey.
func normalizeList(raw json.RawMessage, nestedKey string) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("%w: malformed list", ErrEnvelope)
		}
		return list, nil
	case '{':
		if nestedKey != "" {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(trimmed, &obj); err != nil {
				return nil, fmt.Errorf("%w: malformed object", ErrEnvelope)
			}
			if inner, ok := obj[nestedKey]; ok {
				return normalizeList(inner, "")
			}
		}
		return []json.RawMessage{trimmed}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected list payload", ErrEnvelope)
	}
}

// --- wire shapes -----------------------------------------------------

// wireRC is the split cadastral reference.
type wireRC struct {
	PC1 string `json:"pc1"`
	PC2 string `json:"pc2"`
	Car string `json:"car"`
	CC1 string `json:"cc1"`
	CC2 string `json:"cc2"`
}

// compose joins the reference fragments in wire order.
func (rc wireRC) compose() string {
	return rc.PC1 + rc.PC2 + rc.Car + rc.CC1 + rc.CC2
}

type wireDir struct {
	TV  string     `json:"tv"`
	NV  string     `json:"nv"`
	PNP flexString `json:"pnp"`
}

type wireLoint struct {
	Es string `json:"es"`
	Pt string `json:"pt"`
	Pu string `json:"pu"`
}

type wireLourb struct {
	Dir   wireDir   `json:"dir"`
	Loint wireLoint `json:"loint"`
}

type wireDT struct {
	NP   string `json:"np"`
	NM   string `json:"nm"`
	Locs struct {
		Lous struct {
			Lourb wireLourb `json:"lourb"`
		} `json:"lous"`
	} `json:"locs"`
}

type wireDebi struct {
	Luso string     `json:"luso"`
	Sfc  flexString `json:"sfc"`
	Ant  flexString `json:"ant"`
}

// wireParcel is one parcel record. Depending on the operation the
// reference arrives under idbi.rc or rc.
type wireParcel struct {
	IDBI struct {
		RC wireRC `json:"rc"`
	} `json:"idbi"`
	RC   wireRC   `json:"rc"`
	DT   wireDT   `json:"dt"`
	Debi wireDebi `json:"debi"`
	LDT  string   `json:"ldt"`
}

// toCandidate converts a parcel record to the domain shape.
func (p *wireParcel) toCandidate() integration.AddressCandidate {
	ref := p.IDBI.RC.compose()
	if ref == "" {
		ref = p.RC.compose()
	}

	lourb := p.DT.Locs.Lous.Lourb
	area, _ := strconv.ParseFloat(p.Debi.Sfc.String(), 64)
	year, _ := strconv.Atoi(p.Debi.Ant.String())

	return integration.AddressCandidate{
		Reference:    ref,
		Address:      strings.TrimSpace(p.LDT),
		Use:          p.Debi.Luso,
		Province:     p.DT.NP,
		Municipality: p.DT.NM,
		StreetType:   lourb.Dir.TV,
		Street:       lourb.Dir.NV,
		Number:       lourb.Dir.PNP.String(),
		Floor:        lourb.Loint.Pt,
		Door:         lourb.Loint.Pu,
		Area:         area,
		BuiltYear:    year,
	}
}

// parseCandidates extracts parcel candidates from a payload. Single
// matches arrive under bico.bi, multiple under lrcdnp.rcdnp.
func parseCandidates(result map[string]json.RawMessage) ([]integration.AddressCandidate, error) {
	var records []json.RawMessage

	if raw, ok := result["bico"]; ok {
		list, err := normalizeList(raw, "bi")
		if err != nil {
			return nil, err
		}
		records = list
	} else if raw, ok := result["lrcdnp"]; ok {
		list, err := normalizeList(raw, "rcdnp")
		if err != nil {
			return nil, err
		}
		records = list
	}

	candidates := make([]integration.AddressCandidate, 0, len(records))
	for _, raw := range records {
		var p wireParcel
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: malformed parcel record", ErrEnvelope)
		}
		c := p.toCandidate()
		if c.Reference == "" {
			continue
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}
