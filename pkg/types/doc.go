// Package types holds the small set of interfaces shared across the
// engine's packages, kept here to avoid circular dependencies.
package types
