package urls

import "errors"

// ErrInvalidURL is returned when a URL is malformed or lacks scheme and host.
var ErrInvalidURL = errors.New("invalid URL")
