package values

import "fmt"

// BatchMode controls when capability mutations reach durable state.
type BatchMode string

const (
	// BatchImmediate commits after every mutating call
	BatchImmediate BatchMode = "immediate"
	// BatchDeferred buffers mutations until an explicit commit
	BatchDeferred BatchMode = "deferred"
)

// IsDeferred returns true if mutations are buffered until commit
func (b BatchMode) IsDeferred() bool {
	return b == BatchDeferred
}

// Validate returns an error if the batch mode value is invalid
func (b BatchMode) Validate() error {
	switch b {
	case BatchImmediate, BatchDeferred:
		return nil
	default:
		return fmt.Errorf("invalid batch mode: %s", b)
	}
}
