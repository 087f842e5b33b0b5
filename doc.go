// Package econdata implements a pipeline for macroeconomic time series.
//
// Observations (country, period, metric, value) are fetched from the OECD
// SDMX API, stored in PostgreSQL or in memory, cleaned with data-quality
// heuristics, and extended with derived metrics. A read-only HTTP API serves
// the stored series.
//
// Features:
//   - OECD SDMX CSV ingestion with country batching, rate limiting and retries
//   - Observation-status filtering (normal/estimated kept, provisional optional)
//   - Remediation heuristics: extreme-change sweeps, isolated outliers,
//     level-shift detection and period relabeling
//   - Derived metrics: cumulative indexes, growth deltas, GDP levels and
//     savings per capita
//   - REST API for series, correlations and store statistics
//   - Audit trail for every applied remediation decision
//   - Graceful shutdown handling
//   - Structured logging
//
// All commands support configuration via command-line flags and environment
// variables.
package econdata
