// Package xqueue provides the client for submitting certificate
// generation tasks to the external worker queue. A task is a two-part
// envelope: a header carrying the correlation key, callback URL, and
// queue name, and a body carrying the task-specific payload. Each part
// is serialized independently; the body must stay validatable without
// trusting header contents, because the callback handler re-derives
// trust from the correlation key alone.
package xqueue
