// Package aggregates implements the domain aggregate contracts on top of the table repos.
//
// Every write runs as executeWrite: per-key locks first, then one transaction, then a
// version-checked update. Conflicts and transient database errors are retried a bounded number
// of times before surfacing as CodeConflict or CodeRetryable.
package aggregates
