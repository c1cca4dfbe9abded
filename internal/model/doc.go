// Package model defines the core data types shared across the fetch
// pipeline: market records and per-ticker histories.
package model
