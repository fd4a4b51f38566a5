package activity

import "expvar"

var (
	metricActivityQueued  = expvar.NewInt("activity_queued_total")
	metricActivityDropped = expvar.NewInt("activity_dropped_total")
	metricActivityWritten = expvar.NewInt("activity_written_total")
	metricActivityFailed  = expvar.NewInt("activity_failed_total")
)
