package reactive

import (
	"github.com/vango-dev/loom/internal/errors"
)

// ErrCycle is raised (as a panic value) when a memo reads itself, directly or
// through other memos.
var ErrCycle = errors.New("E001")
