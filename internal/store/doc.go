// Package store defines the persistence contracts consumed by the engine's
// services, along with shared transaction plumbing and sentinel errors.
// Storage technology lives behind these interfaces; the implementations are
// under internal/platform.
package store
