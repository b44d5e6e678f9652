package models

import (
	"fmt"
	"time"

	"github.com/akihokurino/works-server/internal/common"
)

const ymdLayout = "2006-01-02"

// YMD is a calendar date without a time zone. The zero value is "no date".
type YMD struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseYMD accepts "YYYY-MM-DD". The empty string yields the zero YMD.
func ParseYMD(s string) (YMD, error) {
	if s == "" {
		return YMD{}, nil
	}
	if len(s) != len(ymdLayout) {
		return YMD{}, fmt.Errorf("%w: invalid date %q", common.ErrBadRequest, s)
	}
	t, err := time.Parse(ymdLayout, s)
	if err != nil {
		return YMD{}, fmt.Errorf("%w: invalid date %q: %w", common.ErrBadRequest, s, err)
	}
	return YMD{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d YMD) IsZero() bool {
	return d == YMD{}
}

func (d YMD) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time is the instant 09:00 UTC of the date, or nil for the zero YMD.
func (d YMD) Time() *time.Time {
	if d.IsZero() {
		return nil
	}
	t := time.Date(d.Year, d.Month, d.Day, 9, 0, 0, 0, time.UTC)
	return &t
}
