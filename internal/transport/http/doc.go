// Package http serves the regression panels over a read-only JSON API.
//
// Routes:
//
//	GET /healthz                  liveness plus a panel store ping
//	GET /metrics                  Prometheus exposition
//	GET /api/v1/panels/day        whole-day panel, ?symbol=&day=
//	GET /api/v1/panels/halfhour   half-hour panel, ?symbol=&day=
//	GET /api/v1/profile           intraday beta profile, ?symbol=
//
// Missing statistics are encoded as JSON null. Errors use the APIError
// body from internal/errors.
package http
