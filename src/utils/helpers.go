package utils

import (
	"crypto/rand"
	"fmt"
	"hms/src/config"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// GenerateResourceID builds a facility-unique code such as
// SUR-1724800000000-9XK2, matching the code scheme clinical staff already
// use on printed labels.
func GenerateResourceID(prefix string) string {
	max := big.NewInt(36 * 36 * 36 * 36)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		n = big.NewInt(time.Now().UnixNano() % (36 * 36 * 36 * 36))
	}
	suffix := strings.ToUpper(strconv.FormatInt(n.Int64(), 36))
	for len(suffix) < 4 {
		suffix = "0" + suffix
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), suffix)
}

// ParseDateOnly parses a YYYY-MM-DD string and truncates it to midnight UTC
// so that all bookings for one calendar day compare equal on ScheduledDate.
func ParseDateOnly(value string) (time.Time, error) {
	d, err := time.Parse(config.DATE_PARSE_FORMAT, value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
}

func Paginate(page, limit int) (offset int, lim int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return (page - 1) * limit, limit
}
