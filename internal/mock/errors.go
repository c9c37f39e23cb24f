package mock

import "errors"

var ErrNotFound = errors.New("mock: not found")
