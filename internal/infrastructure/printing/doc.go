// Package printing renders HTML documents to PDF through a headless
// Chrome instance driven over the DevTools protocol.
//
// Renders are bounded by a per-request timeout and a concurrency limit so
// a burst of webhook deliveries cannot spawn an unbounded number of tabs.
package printing
