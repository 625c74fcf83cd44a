package throttle

import (
	"fmt"
	"time"
)

type BucketConf struct {
	Burst     int           // maximum number of tokens in the bucket
	Increment int           // how many tokens to add each period
	Period    time.Duration // how often to add Increment
}

// GroupConf is the JSON form of a bucket group in .core.json `throttle.groups`.
type GroupConf struct {
	Burst     int `json:"burst"`
	Increment int `json:"increment"`
	PeriodMs  int `json:"period_ms"`
}

func (c GroupConf) BucketConf() (*BucketConf, error) {
	if c.Burst <= 0 || c.Increment <= 0 || c.PeriodMs <= 0 {
		return nil, fmt.Errorf("throttle: burst, increment and period_ms must be positive: %+v", c)
	}
	return &BucketConf{Burst: c.Burst, Increment: c.Increment, Period: time.Duration(c.PeriodMs) * time.Millisecond}, nil
}

// Conf is the `throttle` section of .core.json
type Conf struct {
	CleanupCycleSec     int                  `json:"cleanup_cycle_sec"`
	CleanupOlderThanSec int                  `json:"cleanup_older_than_sec"`
	Groups              map[string]GroupConf `json:"groups"`
}
