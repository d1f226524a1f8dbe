// Package server exposes a ReactiveURL over HTTP and pushes the resulting page
// URL to websocket clients.
//
// One Server owns one page context: a fixed page path, a set of tracked fields
// and their defaults. Clients change fields over HTTP; every change is
// debounced and then broadcast to all websocket clients as
//
//	{"type":"url","url":"/issues?filter%5Bstatus%5D=closed","query":{"q":"","status":"closed"}}
//
// # Routes
//
//	GET    /state          current snapshot and page URL
//	PATCH  /state          update several fields (JSON object)
//	PUT    /state/{field}  set one field (JSON value)
//	DELETE /state          reset every field to its default
//	GET    /url            page URL as text/plain
//	GET    /ws             websocket stream of url messages
//	GET    /metrics        Prometheus metrics, when enabled
//
// Fields equal to their default are left out of the page URL, so an absent key
// always means "default".
package server
