// Package fetcher orchestrates one fetch cycle: for every configured
// ticker it reads the persisted history, fetches new records from the
// venue since the last observation, merges, and writes the result back.
//
// Failures are isolated per ticker; the cycle always completes and reports
// a RunResult for the trigger layer to act on. Storage writes are
// merge-based, so overlapping runs cannot lose committed records.
package fetcher
