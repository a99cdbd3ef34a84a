package integration

import "context"

// AddressQuery describes a cadastral lookup by postal address. Fields
// are free-form user input; adapters normalize casing and street types.
type AddressQuery struct {
	Province     string
	Municipality string
	StreetType   string
	Street       string
	Number       string
}

// AddressCandidate is one parcel returned by the address registry. It
// is ephemeral: candidates are returned to callers and never persisted.
type AddressCandidate struct {
	Reference    string // 20-character cadastral reference
	Address      string
	Use          string
	Province     string
	Municipality string
	StreetType   string
	Street       string
	Number       string
	Floor        string
	Door         string
	Area         float64
	BuiltYear    int
}

// Street is an entry of a municipal street index.
type Street struct {
	Type string
	Name string
}

// StreetNumber is a known portal number on a street, together with the
// 14-character parcel reference it belongs to.
type StreetNumber struct {
	Number          string
	ParcelReference string
}

// AddressRegistry is the outbound port to the government cadastral
// service. All operations are read-only.
type AddressRegistry interface {
	// SearchByAddress resolves a postal address to parcel candidates.
	// Returns ErrNoAddressMatch when the registry knows the street but
	// not the requested number and no nearby fallback resolves it.
	SearchByAddress(ctx context.Context, q AddressQuery) ([]AddressCandidate, error)

	// SearchByReference resolves a full 20-character cadastral
	// reference to its parcel candidates.
	SearchByReference(ctx context.Context, reference string) ([]AddressCandidate, error)

	// ListStreets returns the street index of a municipality, filtered
	// by an optional name prefix.
	ListStreets(ctx context.Context, province, municipality, query string) ([]Street, error)

	// ListStreetNumbers returns the known portal numbers of a street.
	ListStreetNumbers(ctx context.Context, province, municipality, streetType, street, prefix string) ([]StreetNumber, error)
}
