package repository

import (
	"errors"
	"time"
)

// ErrNotFound is returned by every store when a document does not exist.
var ErrNotFound = errors.New("document not found")

// OpTimeout bounds each single store operation.
const OpTimeout = 5 * time.Second
