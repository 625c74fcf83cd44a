package schedjobs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CronJob runs Task on every minute whose fields are all set in the masks.
// Bit i of a mask stands for value i, except DaysOfMonth and Months where bit 0 is 1.
type CronJob struct {
	ID          string
	Spec        string // expression the masks came from, for listings
	Minutes     uint64
	Hours       uint32
	DaysOfMonth uint32
	Months      uint16
	Weekdays    uint8 // bit 0 = Sunday
	Task        func(ctx context.Context) error
	OnFinished  func(error)
}

const (
	AllMinutes     uint64 = 1<<60 - 1
	AllHours       uint32 = 1<<24 - 1
	AllDaysOfMonth uint32 = 1<<31 - 1
	AllMonths      uint16 = 1<<12 - 1
	AllWeekdays    uint8  = 1<<7 - 1
)

// field is the value range of one cron column.
type field struct {
	name     string
	min, max int
}

var fields = [5]field{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day of month", 1, 31},
	{"month", 1, 12},
	{"day of week", 0, 6},
}

// NewCronJob parses a five column expression: minute hour day-of-month month day-of-week.
// Each column takes `*`, a value, a range `a-b`, a step `*/n` or `a-b/n`, and comma lists of those.
// Both day columns must match, unlike classic cron which ORs them.
func NewCronJob(jobID, spec string, task func(ctx context.Context) error) (*CronJob, error) {
	cols := strings.Fields(spec)
	if len(cols) != len(fields) {
		return nil, fmt.Errorf("cron %q: want %d fields, got %d", spec, len(fields), len(cols))
	}
	var masks [5]uint64
	for i, col := range cols {
		m, err := fields[i].parse(col)
		if err != nil {
			return nil, fmt.Errorf("cron %q: %w", spec, err)
		}
		masks[i] = m
	}
	return &CronJob{
		ID:          jobID,
		Spec:        strings.Join(cols, " "),
		Minutes:     masks[0],
		Hours:       uint32(masks[1]),
		DaysOfMonth: uint32(masks[2] >> 1),
		Months:      uint16(masks[3] >> 1),
		Weekdays:    uint8(masks[4]),
		Task:        task,
	}, nil
}

// NewEveryMinuteJob matches every minute.
func NewEveryMinuteJob(jobID string, task func(ctx context.Context) error) *CronJob {
	job, _ := NewCronJob(jobID, "* * * * *", task)
	return job
}

// NewHourlyJob runs at the given minute of every hour.
func NewHourlyJob(jobID string, minute int, task func(ctx context.Context) error) *CronJob {
	job := NewEveryMinuteJob(jobID, task)
	job.Minutes = BitsFromMinutes([]int{minute})
	job.Spec = strconv.Itoa(minute) + " * * * *"
	return job
}

// parse returns a mask where bit v is value v.
func (f field) parse(col string) (uint64, error) {
	var mask uint64
	for _, part := range strings.Split(col, ",") {
		rng, stepStr, hasStep := strings.Cut(part, "/")
		step := 1
		if hasStep {
			n, err := strconv.Atoi(stepStr)
			if err != nil || n <= 0 {
				return 0, fmt.Errorf("%s: bad step %q", f.name, stepStr)
			}
			step = n
		}
		lo, hi := f.min, f.max
		if rng != "*" {
			a, b, isRange := strings.Cut(rng, "-")
			var err error
			if lo, err = f.value(a); err != nil {
				return 0, err
			}
			hi = lo
			if isRange {
				if hi, err = f.value(b); err != nil {
					return 0, err
				}
			} else if hasStep {
				hi = f.max
			}
			if hi < lo {
				return 0, fmt.Errorf("%s: empty range %q", f.name, rng)
			}
		}
		for v := lo; v <= hi; v += step {
			mask |= 1 << v
		}
	}
	return mask, nil
}

func (f field) value(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < f.min || v > f.max {
		return 0, fmt.Errorf("%s: %q is not within %d-%d", f.name, s, f.min, f.max)
	}
	return v, nil
}

func (job *CronJob) Matches(now time.Time) bool {
	return job.Minutes&(1<<now.Minute()) != 0 &&
		job.Hours&(1<<now.Hour()) != 0 &&
		job.DaysOfMonth&(1<<(now.Day()-1)) != 0 &&
		job.Months&(1<<(now.Month()-1)) != 0 &&
		job.Weekdays&(1<<now.Weekday()) != 0
}

func bitsFrom[M uint8 | uint16 | uint32 | uint64](list []int, lo, hi int) M {
	var m M
	for _, v := range list {
		if v >= lo && v <= hi {
			m |= 1 << (v - lo)
		}
	}
	return m
}

func BitsFromMinutes(list []int) uint64     { return bitsFrom[uint64](list, 0, 59) }
func BitsFromHours(list []int) uint32       { return bitsFrom[uint32](list, 0, 23) }
func BitsFromDaysOfMonth(list []int) uint32 { return bitsFrom[uint32](list, 1, 31) }
func BitsFromWeekdays(list []int) uint8     { return bitsFrom[uint8](list, 0, 6) }
