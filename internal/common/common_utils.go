package common

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

func GetResponseTime(init time.Time) string {
	timeDiff := time.Since(init).Milliseconds()
	return fmt.Sprintf("%dms", timeDiff)
}

// Pagination reads page and per_page query parameters.
// per_page is capped at 100 and defaults to 20.
func Pagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	switch {
	case perPage < 1:
		perPage = 20
	case perPage > 100:
		perPage = 100
	}
	return page, perPage
}

// MaskCardNumber keeps only the last four digits visible.
func MaskCardNumber(number string) string {
	digits := strings.ReplaceAll(number, " ", "")
	if len(digits) <= 4 {
		return digits
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}

// CacheKey joins a prefix and parts into a cache key.
func CacheKey(prefix string, parts ...string) string {
	return prefix + strings.Join(parts, ":")
}
