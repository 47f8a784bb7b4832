// Package config builds server configuration from defaults, functional
// options and environment variables, and constructs the storage backends it
// names.
//
// Exactly one blob store and at most one column store are chosen at start:
//
//	cfg, err := config.Load(config.WithEnv("TIMED_CONTENT_"))
//	blobs, err := cfg.BuildBlobStore()
//	records, err := cfg.BuildColumnStore()
package config
