// Package devtools serves an HTTP inspector for a running App.
//
// Routes:
//
//	GET  /tree     component tree snapshot as JSON
//	GET  /html     serialized document of every mounted root
//	GET  /metrics  Prometheus metrics, when a gatherer is configured
//	GET  /events   websocket stream of commit events
//	POST /render   re-render the main root (?deep=true for a deep render)
//
// The inspector reads App state through App.Call, so the App's loop should
// be running (loop.Run) while the server is in use.
package devtools
