package lirashield

import "errors"

// ErrValidation indicates malformed or logically invalid input, such as an
// oversell or a zero buy price.
var ErrValidation = errors.New("validation error")

// ErrDataNotFound indicates that a price, rate or CPI print could not be
// resolved, even after falling back to an earlier date.
var ErrDataNotFound = errors.New("data not found")

// ErrProviderUnavailable indicates a transient failure of an upstream data
// provider. It is worth retrying.
var ErrProviderUnavailable = errors.New("provider unavailable")
