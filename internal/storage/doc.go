// Package storage persists ticker histories as JSON objects in a key/value
// blob store. One object per ticker under a stable key; writes replace the
// whole object. Backends: local filesystem, Amazon S3, Postgres.
package storage
