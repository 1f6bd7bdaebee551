package utils

import "time"

// ISOMillis is the timestamp layout stored in createdAt: RFC3339 with
// millisecond precision, always UTC.
const ISOMillis = "2006-01-02T15:04:05.000Z07:00"

// FormatISO renders t in the stored createdAt layout.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOMillis)
}

// ParseISO parses a stored createdAt value. Any RFC3339 variant is accepted.
func ParseISO(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
