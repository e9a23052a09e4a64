/*
Package monitoring provides Prometheus metrics for the browser.

Metrics implements the recorder interfaces of the tab controller and the
session coordinator, so domain code counts events without importing
Prometheus.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
