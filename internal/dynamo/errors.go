package dynamo

import "errors"

// ErrInvalidState is wrapped by SimError when the plant diverges.
var ErrInvalidState = errors.New("plant state is NaN or Inf")
