package integration

import "errors"

// Sentinel errors shared by the outbound integration ports. Adapters
// wrap these with contextual detail; callers test with errors.Is.
var (
	// ErrSourceUnavailable indicates the CRM endpoint could not be
	// reached or answered with something other than its JSON envelope.
	ErrSourceUnavailable = errors.New("property source unavailable")

	// ErrSourceNotAuthorized indicates the CRM rejected the configured
	// credentials, calling domain or IP.
	ErrSourceNotAuthorized = errors.New("property source rejected credentials")

	// ErrInvalidQuery indicates a filter or ordering clause failed
	// sanitization and was never sent.
	ErrInvalidQuery = errors.New("invalid source query clause")

	// ErrListingNotFound indicates the remote catalog has no record for
	// the requested listing.
	ErrListingNotFound = errors.New("listing not found in source catalog")

	// ErrTranslationFailed indicates the language engine returned an
	// unusable response for a listing.
	ErrTranslationFailed = errors.New("translation failed")

	// ErrNoAddressMatch indicates the address registry found no parcel
	// for the query.
	ErrNoAddressMatch = errors.New("no address match")
)
