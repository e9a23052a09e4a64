/*
Package tracing gives every control API request a trace id.

A request that carries X-Trace-ID (and optionally X-Span-ID) joins that
trace, otherwise a new one starts. The ids are echoed in the response and
stored in the request context, so handler logs can carry them with Field.
Finished spans are logged by a collector goroutine: failures at warn, slow
requests at info, everything else at debug.

# Usage

	tracer := tracing.New(logger.Component("trace"), 500*time.Millisecond)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))
*/
package tracing
