// Package api exposes the timed content service over HTTP.
//
// Routes:
//
//	GET /health              liveness probe, plain "OK"
//	GET /reading_contents    a reading comprehension story as JSON
//	GET /generations/{key}   generation record of a stored story
//	GET /, /home, /reading   static pages, when a static directory is set
//
// Failures are logged with their cause and answered with a generic
// {"error":"Internal server error"} body.
package api
