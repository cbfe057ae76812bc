package utils

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"
)

// ISODate is the layout of purchase dates throughout the service.
const ISODate = "2006-01-02"

func ParseYMD(s string) (time.Time, error) {
	t, err := time.ParseInLocation(ISODate, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	// strip time to midnight UTC to match DATE semantics
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// DateString renders a DATE column value scanned into any. Drivers disagree:
// pgx yields time.Time, sqlite yields TEXT.
func DateString(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		s = t.UTC().Format(ISODate)
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return nil
	}
	if len(s) > len(ISODate) {
		s = s[:len(ISODate)]
	}
	if _, err := ParseYMD(s); err != nil {
		return nil
	}
	return &s
}

// TimeValue converts a scanned timestamp column into a time.Time.
func TimeValue(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		return parseTimestamp(t)
	case []byte:
		return parseTimestamp(string(t))
	}
	return time.Time{}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	ISODate,
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// StrOrEmpty dereferences p, mapping nil to "".
func StrOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// DecimalOrEmpty renders d with fixed places, mapping null to "".
func DecimalOrEmpty(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(places)
}

// ToStruct converts any JSON-marshalable value into a protobuf Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return structpb.NewStruct(m)
}
