// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput indicates the caller supplied a request that fails
// validation. This is the only error class the recommendation entry
// point surfaces; everything else degrades to fallback output.
var ErrInvalidInput = errors.New("invalid input")

// ErrUnavailable indicates an upstream dependency (LLM gateway, content
// API) could not be reached or refused the call.
var ErrUnavailable = errors.New("unavailable")

// ErrTimeout indicates a pipeline run exceeded its wall-clock deadline.
var ErrTimeout = errors.New("timeout")
