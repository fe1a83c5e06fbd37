// Package events provides a lightweight in-process event system used to
// announce certificate status transitions to interested components
// (currently the audit log handler) without coupling services to them.
package events
