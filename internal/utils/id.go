package utils

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var localSeq atomic.Int64

// NewLocalID returns a temporary identifier for a locally echoed message.
// UUIDv7 is time-ordered, so consecutive sends produce monotonically
// distinct ids.
func NewLocalID() string {
	if id, err := uuid.NewV7(); err == nil {
		return "local-" + id.String()
	}

	// Fallback to timestamp plus counter if the entropy source is unavailable.
	return "local-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + strconv.FormatInt(localSeq.Add(1), 10)
}
