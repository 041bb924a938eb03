package wikibase

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Data value types as serialised in the "type" field of a datavalue.
const (
	TypeString          = "string"
	TypeEntityID        = "wikibase-entityid"
	TypeTime            = "time"
	TypeGlobeCoordinate = "globecoordinate"
	TypeMonolingualText = "monolingualtext"
)

// ErrInvalidDate is returned when a date string is not YYYY, YYYY-MM or YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date: expected YYYY, YYYY-MM or YYYY-MM-DD")

// DataValue is a typed Wikibase value. Value holds the JSON encoding of the
// type-specific payload.
type DataValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

func newDataValue(typ string, v any) DataValue {
	raw, err := json.Marshal(v)
	if err != nil {
		// All payloads are plain structs and strings.
		panic(fmt.Sprintf("wikibase: marshal %s value: %v", typ, err))
	}
	return DataValue{Type: typ, Value: raw}
}

// StringValue returns a string data value. It is used for external
// identifiers, URLs and plain strings alike.
func StringValue(s string) DataValue {
	return newDataValue(TypeString, s)
}

type entityIDValue struct {
	EntityType string `json:"entity-type"`
	NumericID  int64  `json:"numeric-id"`
	ID         string `json:"id"`
}

// ItemValue returns a wikibase-entityid value for the item qid (e.g. "Q866").
func ItemValue(qid string) DataValue {
	numeric, _ := strconv.ParseInt(strings.TrimPrefix(qid, "Q"), 10, 64)
	return newDataValue(TypeEntityID, entityIDValue{
		EntityType: "item",
		NumericID:  numeric,
		ID:         qid,
	})
}

type monolingualValue struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// MonolingualValue returns a monolingualtext value.
func MonolingualValue(text, language string) DataValue {
	return newDataValue(TypeMonolingualText, monolingualValue{Text: text, Language: language})
}

type coordinateValue struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude"`
	Precision float64  `json:"precision"`
	Globe     string   `json:"globe"`
}

// CoordinateValue returns a globecoordinate value on Earth.
func CoordinateValue(latitude, longitude, precision float64) DataValue {
	return newDataValue(TypeGlobeCoordinate, coordinateValue{
		Latitude:  latitude,
		Longitude: longitude,
		Precision: precision,
		Globe:     EntityURIPrefix + EntityEarth,
	})
}

// Precision is the precision of a time value.
type Precision int

// Time precisions used by this module.
const (
	PrecisionYear  Precision = 9
	PrecisionMonth Precision = 10
	PrecisionDay   Precision = 11
)

// String returns the precision name.
func (p Precision) String() string {
	switch p {
	case PrecisionYear:
		return "year"
	case PrecisionMonth:
		return "month"
	case PrecisionDay:
		return "day"
	default:
		return "precision(" + strconv.Itoa(int(p)) + ")"
	}
}

// WbTime is a Gregorian calendar date with a precision.
// Components below the precision are zero.
type WbTime struct {
	Year      int
	Month     int
	Day       int
	Precision Precision
}

// NewWbTime truncates t (in UTC) to the given precision.
func NewWbTime(t time.Time, precision Precision) WbTime {
	t = t.UTC()
	w := WbTime{Year: t.Year(), Precision: precision}
	if precision >= PrecisionMonth {
		w.Month = int(t.Month())
	}
	if precision >= PrecisionDay {
		w.Day = t.Day()
	}
	return w
}

// String returns the Wikibase time string, e.g. "+2023-05-00T00:00:00Z".
func (w WbTime) String() string {
	return fmt.Sprintf("%+05d-%02d-%02dT00:00:00Z", w.Year, w.Month, w.Day)
}

type timeValue struct {
	Time          string    `json:"time"`
	Timezone      int       `json:"timezone"`
	Before        int       `json:"before"`
	After         int       `json:"after"`
	Precision     Precision `json:"precision"`
	CalendarModel string    `json:"calendarmodel"`
}

// TimeValue returns a time value in the proleptic Gregorian calendar.
func TimeValue(w WbTime) DataValue {
	return newDataValue(TypeTime, timeValue{
		Time:          w.String(),
		Precision:     w.Precision,
		CalendarModel: EntityURIPrefix + EntityGregorianCalendar,
	})
}

var isoDatePattern = regexp.MustCompile(`^(\d{4})(?:-(\d{2})(?:-(\d{2}))?)?$`)

// ParseISODate parses "YYYY", "YYYY-MM" or "YYYY-MM-DD" into a WbTime whose
// precision follows the number of components given.
func ParseISODate(s string) (WbTime, error) {
	m := isoDatePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return WbTime{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	year, _ := strconv.Atoi(m[1])
	w := WbTime{Year: year, Precision: PrecisionYear}

	if m[2] != "" {
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return WbTime{}, fmt.Errorf("%w: month out of range in %q", ErrInvalidDate, s)
		}
		w.Month = month
		w.Precision = PrecisionMonth
	}

	if m[3] != "" {
		day, _ := strconv.Atoi(m[3])
		t := time.Date(year, time.Month(w.Month), day, 0, 0, 0, 0, time.UTC)
		if day < 1 || t.Day() != day {
			return WbTime{}, fmt.Errorf("%w: day out of range in %q", ErrInvalidDate, s)
		}
		w.Day = day
		w.Precision = PrecisionDay
	}

	return w, nil
}

// AsString decodes a string value.
func (v DataValue) AsString() (string, bool) {
	if v.Type != TypeString {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v.Value, &s); err != nil {
		return "", false
	}
	return s, true
}

// AsItem decodes a wikibase-entityid value and returns its id.
func (v DataValue) AsItem() (string, bool) {
	if v.Type != TypeEntityID {
		return "", false
	}
	var e entityIDValue
	if err := json.Unmarshal(v.Value, &e); err != nil {
		return "", false
	}
	if e.ID == "" && e.NumericID > 0 {
		e.ID = "Q" + strconv.FormatInt(e.NumericID, 10)
	}
	return e.ID, e.ID != ""
}

var wbTimePattern = regexp.MustCompile(`^([+-]\d+)-(\d{2})-(\d{2})T`)

// AsTime decodes a time value.
func (v DataValue) AsTime() (WbTime, bool) {
	if v.Type != TypeTime {
		return WbTime{}, false
	}
	var tv timeValue
	if err := json.Unmarshal(v.Value, &tv); err != nil {
		return WbTime{}, false
	}
	m := wbTimePattern.FindStringSubmatch(tv.Time)
	if m == nil {
		return WbTime{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return WbTime{Year: year, Month: month, Day: day, Precision: tv.Precision}, true
}
