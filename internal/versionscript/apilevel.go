package versionscript

import (
	"fmt"
	"math"
	"strconv"
)

// APILevel is a platform API level.
type APILevel int

// FutureAPILevel stands for the unreleased API ("current" or "future"). No
// numeric level parses to it.
const FutureAPILevel APILevel = math.MaxInt

// ParseAPILevel accepts a non-negative integer, "current" or "future".
func ParseAPILevel(s string) (APILevel, error) {
	switch s {
	case "current", "future":
		return FutureAPILevel, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || APILevel(n) >= FutureAPILevel {
		return 0, fmt.Errorf("invalid API level %q: want \"current\" or a non-negative integer", s)
	}
	return APILevel(n), nil
}

func (a APILevel) String() string {
	if a == FutureAPILevel {
		return "future"
	}
	return strconv.Itoa(int(a))
}
