// Package timedcontent provides a time-bucketed generate-or-reuse cache for
// expensive, non-deterministic content (typically LLM output) on top of
// pluggable storage backends.
//
// Artifacts are written under hourly buckets keyed by category:
//
//	{category-prefix}/{YYYY-MM-DD-HH}/{uuid}.json
//
// While the current bucket holds fewer than the configured capacity, Lookup
// reports a miss and the caller is expected to generate fresh content and
// hand it to Store. Once the bucket is full, Lookup serves a uniformly random
// entry from it. Buckets are never evicted on the read or write path; see the
// sweep subpackage for optional retention.
//
// # Storage
//
// Two narrow interfaces back the library. BlobStore is implemented by the
// memory, fs and s3 subpackages under storage/. ColumnStore is implemented by
// the memory, bolt, redis and dynamodb subpackages under columnstore/. A
// concrete backend is chosen once at construction (see the config package)
// and the cache never learns which one is active.
package timedcontent
