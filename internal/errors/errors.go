package errors

import "errors"

var (
	// Common errors
	ErrMetricNotFound   = errors.New("metric not found")
	ErrUnknownDataset   = errors.New("unknown dataset config")
	ErrNoDataPoints     = errors.New("no data points fetched")
	ErrInvalidPeriod    = errors.New("invalid time period")
	ErrMissingParameter = errors.New("missing required parameter")

	// Database errors
	ErrDatabaseConnection = errors.New("database connection failed")
	ErrTransactionFailed  = errors.New("transaction failed")
)
