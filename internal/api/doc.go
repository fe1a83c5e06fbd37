// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It covers two distinct surfaces: the
// authenticated certificate API and the unauthenticated worker callback
// endpoints, which trust only the opaque correlation key.
package api
