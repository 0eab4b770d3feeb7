// Package types contains the core data model and interfaces shared across
// the syncfleet library.
//
// It has no dependencies on other syncfleet packages, which allows internal
// packages to depend on it without creating import cycles. The root
// syncfleet package re-exports the commonly used definitions via type
// aliases for a convenient public API.
package types
