package sanitize

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
	"github.com/joseph-ayodele/supplier-invoices/internal/utils"
)

var (
	// 2024-03-07, 2024/3/7, optionally followed by a time part
	reDateYMD = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})(?:[T\s].*)?$`)
	// 07-03-2024, 7/3/2024
	reDateDMY = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{4})(?:[T\s].*)?$`)

	reNonDigit = regexp.MustCompile(`\D`)
)

// NormalizeDate rewrites an invoice date to YYYY-MM-DD. Day-first dates are
// reordered; anything unrecognized or not on the calendar (2024-02-30) yields nil.
func NormalizeDate(v any) *string {
	s, ok := entity.Text(v)
	if !ok {
		return nil
	}
	var y, m, d string
	if g := reDateYMD.FindStringSubmatch(s); g != nil {
		y, m, d = g[1], g[2], g[3]
	} else if g := reDateDMY.FindStringSubmatch(s); g != nil {
		y, m, d = g[3], g[2], g[1]
	} else {
		return nil
	}
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	out := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	if _, err := utils.ParseYMD(out); err != nil {
		return nil
	}
	return &out
}

// NormalizeNIF strips everything but digits ("PT 123 456 789" -> "123456789")
// and keeps the result only when exactly 9 digits remain.
func NormalizeNIF(v any) *string {
	s, ok := entity.Text(v)
	if !ok {
		return nil
	}
	digits := reNonDigit.ReplaceAllString(s, "")
	if len(digits) != 9 {
		return nil
	}
	return &digits
}

// ValidNIFChecksum verifies the mod-11 check digit of a 9 digit Portuguese NIF.
func ValidNIFChecksum(nif string) bool {
	if len(nif) != 9 {
		return false
	}
	sum := 0
	for i := 0; i < 8; i++ {
		c := nif[i]
		if c < '0' || c > '9' {
			return false
		}
		sum += int(c-'0') * (9 - i)
	}
	check := 11 - sum%11
	if check >= 10 {
		check = 0
	}
	return int(nif[8]-'0') == check
}
