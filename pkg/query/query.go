// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses list-style URL query parameters.
package query

import (
	"net/http"
	"strings"
)

// StringSlice parses a single comma-separated query string
// into a trimmed slice of strings.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, v := range strings.Split(val, ",") {
		clean := strings.TrimSpace(v)
		if clean != "" {
			res = append(res, clean)
		}
	}
	return res
}

// Values collects a parameter given either repeatedly (?role=a&role=b) or
// comma-separated (?role=a,b).
func Values(r *http.Request, key string) []string {
	var res []string
	for _, raw := range r.URL.Query()[key] {
		res = append(res, StringSlice(raw)...)
	}
	return res
}
