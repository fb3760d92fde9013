package safe

import (
	"RoomieChat/logger"
)

// Go starts f on a new goroutine and recovers from panics so a faulty
// worker cannot take the whole gateway down.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
