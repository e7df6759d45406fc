package client

import "time"

// Clock lets tests drive the throttle and cool-down timers.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}
