// Package service implements the certificate business logic: the
// generation orchestrator, the example-certificate dry-run workflow,
// worker callback application, and the generation feature gate.
package service
