package invoice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var trailingNumberRe = regexp.MustCompile(`^(.*?)(\d+)([^\d]*)$`)

// SuggestNextInvoiceNo increments the last run of digits in an invoice
// number, preserving zero padding and any non-digit suffix. An empty input
// starts a fresh sequence; a number without digits gets "-1" appended.
func SuggestNextInvoiceNo(current string) string {
	s := strings.TrimSpace(current)
	if s == "" {
		return DefaultInvoiceNo
	}
	m := trailingNumberRe.FindStringSubmatch(s)
	if m == nil {
		return s + "-1"
	}
	prefix, digits, suffix := m[1], m[2], m[3]
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return s + "-1"
	}
	next := strconv.FormatInt(n+1, 10)
	if len(next) < len(digits) {
		next = strings.Repeat("0", len(digits)-len(next)) + next
	}
	return fmt.Sprintf("%s%s%s", prefix, next, suffix)
}
