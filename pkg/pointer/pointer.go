package pointer

import "time"

// String returns a pointer to the provided string value
func String(value string) *string {
	return &value
}

// StringIfValid returns a pointer to the value if it's valid, otherwise nil
func StringIfValid(valid bool, value string) *string {
	if valid {
		return &value
	}
	return nil
}

// StringCopy returns a pointer that's a copy of the provided value
func StringCopy(value *string) *string {
	if value == nil {
		return nil
	}

	return String(*value)
}

// Uint64 returns a pointer to the provided uint64 value
func Uint64(value uint64) *uint64 {
	return &value
}

// Time returns a pointer to the provided time value
func Time(value time.Time) *time.Time {
	return &value
}

// TimeOrDefault returns the pointer if not nil, otherwise the default value
func TimeOrDefault(value *time.Time, defaultValue time.Time) *time.Time {
	if value != nil {
		return value
	}
	return &defaultValue
}

// TimeIfValid returns a pointer to the value if it's valid, otherwise nil
func TimeIfValid(valid bool, value time.Time) *time.Time {
	if valid {
		return &value
	}
	return nil
}

// TimeCopy returns a pointer that's a copy of the provided value
func TimeCopy(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}

	return Time(*value)
}
