package query

import (
	"github.com/pkg/errors"
)

// Interval is the bucketing granularity for time-series queries.
type Interval uint8

const (
	IntervalRaw Interval = iota
	IntervalHour
	IntervalDay
	IntervalWeek
	IntervalMonth
)

func ToInterval(val string) (Interval, error) {
	switch val {
	case "raw":
		return IntervalRaw, nil
	case "hour":
		return IntervalHour, nil
	case "day":
		return IntervalDay, nil
	case "week":
		return IntervalWeek, nil
	case "month":
		return IntervalMonth, nil
	default:
		return 0, errors.Errorf("unexpected value: %v", val)
	}
}

func ToIntervalWithFallback(val string, fallback Interval) Interval {
	res, err := ToInterval(val)
	if err != nil {
		return fallback
	}
	return res
}
