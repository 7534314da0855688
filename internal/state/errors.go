package state

import "errors"

// ErrStale is returned when frame data has not been updated within the stale threshold.
var ErrStale = errors.New("state: frame data is stale")
