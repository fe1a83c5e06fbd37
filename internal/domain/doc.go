// Package domain defines the core certificate entities, their status
// state machines, and shared domain errors.
package domain
