// Package integration defines the outbound ports of the listing
// backend.
//
// Key concepts:
//   - PropertySource: port for the upstream CRM catalog the listings
//     are synchronized from
//   - AddressRegistry: port for the cadastral registry used for
//     address and parcel lookups
//   - Translator: port for the language engine that produces listing
//     descriptions in the target languages
//
// Ports are defined here in the domain layer; the adapters live under
// internal/infrastructure (sourceapi, registry, translation).
package integration
