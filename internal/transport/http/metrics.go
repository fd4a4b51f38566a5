package httptransport

import "expvar"

var (
	metricRoomsCreated  = expvar.NewInt("http_rooms_created_total")
	metricJoinChecks    = expvar.NewInt("http_join_checks_total")
	metricRequestErrors = expvar.NewInt("http_request_errors_total")
)
