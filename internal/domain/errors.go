package domain

import "errors"

// ErrNotFound is returned by stores when a station, alias or observation
// does not exist.
var ErrNotFound = errors.New("not found")
