package apperrors

import "errors"

// ErrNotFound indicates that a requested resource (journal, receipt,
// audit job, artifact) could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks
// (missing required field, negative amount, non-monotonic document
// number).
var ErrValidation = errors.New("validation error")

// ErrState indicates an operation that is invalid in the current
// session or job state, e.g. appending to a journal before opening it.
var ErrState = errors.New("invalid state for operation")

// ErrIntegrity indicates a hash-chain break or a declared-total
// mismatch. Integrity failures are recorded as anomalies, never
// silently corrected.
var ErrIntegrity = errors.New("integrity violation")

// ErrTransport indicates a network or timeout failure talking to a
// collaborator (PEL, tax authority). Retried only at the documented
// boundaries, otherwise surfaced.
var ErrTransport = errors.New("transport failure")

// ErrDuplicate indicates an attempt to create a resource that already
// exists for its natural key.
var ErrDuplicate = errors.New("resource already exists")
