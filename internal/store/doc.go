// Package store defines the persistence interfaces for certificate
// records, example certificates, and generation settings.
package store
