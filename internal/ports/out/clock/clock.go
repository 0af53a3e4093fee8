package clock

import "time"

// Clock provides time to the application. An interface keeps timestamps
// deterministic in tests via a manually advanced implementation.
type Clock interface {
	Now() time.Time
}
