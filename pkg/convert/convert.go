// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert provides quick type-conversion utilities.

It wraps [strconv] to provide fault-tolerant conversions for query parameters,
where a malformed value should fall back to a default instead of failing the
request.

Do not use this package if distinguishing between malformed data and zero values
is important in your domain logic; use explicit standard libraries instead.
*/
package convert

import (
	"strconv"
)

// ToIntD converts a string to an int, returning the provided default if parsing fails or string is empty.
func ToIntD(str string, def int) int {
	if str == "" {
		return def
	}
	if v, err := strconv.Atoi(str); err == nil {
		return v
	}
	return def
}

// ToBoolD parses a boolean string ("true", "1", "false", "0"), returning def
// when the value is empty or malformed.
func ToBoolD(str string, def bool) bool {
	if str == "" {
		return def
	}
	if v, err := strconv.ParseBool(str); err == nil {
		return v
	}
	return def
}
