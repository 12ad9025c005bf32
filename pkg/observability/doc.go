/*
Package observability provides lifecycle hooks for monitoring the regions state
container.

It includes Prometheus metrics for dispatched actions and country fetches,
structured logging hooks, and a helper to chain several hook sets into one.
*/
package observability
