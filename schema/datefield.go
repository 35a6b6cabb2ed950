package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Wire formats for date column values.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// DateFieldKind tags the variants of DateField.
type DateFieldKind int

// Date field variants.
const (
	PointKind DateFieldKind = iota + 1
	RangeKind
)

// String implements fmt.Stringer.
func (k DateFieldKind) String() string {
	switch k {
	case PointKind:
		return "point"
	case RangeKind:
		return "range"
	default:
		return "unknown"
	}
}

var (
	// ErrEmptyDateField is returned for absent or blank column values.
	ErrEmptyDateField = errors.New("empty date field")

	// ErrUnknownDateShape is returned when a value is neither a point nor a range.
	ErrUnknownDateShape = errors.New("unrecognized date field shape")
)

// DateField is a classified date column value.
type DateField interface {
	Kind() DateFieldKind
	// Resolve returns the date the timeline uses for this value.
	Resolve() (time.Time, bool)
}

// PointDate is a single date with an optional time of day.
type PointDate struct {
	Date string `mapstructure:"date" json:"date"`
	Time string `mapstructure:"time" json:"time,omitempty"`
}

// Kind implements DateField.
func (PointDate) Kind() DateFieldKind { return PointKind }

// Resolve implements DateField. A malformed time of day is ignored.
func (p PointDate) Resolve() (time.Time, bool) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(p.Date))
	if err != nil {
		return time.Time{}, false
	}
	if p.Time != "" {
		if t, err := time.Parse(TimeLayout, strings.TrimSpace(p.Time)); err == nil {
			d = d.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second)
		}
	}
	return d, true
}

// RangeDate is a from/to range where either end may be null.
type RangeDate struct {
	From *string `mapstructure:"from" json:"from"`
	To   *string `mapstructure:"to" json:"to"`
}

// Kind implements DateField.
func (RangeDate) Kind() DateFieldKind { return RangeKind }

// Resolve implements DateField. The end of the range wins, falling back to its start.
func (r RangeDate) Resolve() (time.Time, bool) {
	for _, s := range []*string{r.To, r.From} {
		if s == nil {
			continue
		}
		if d, err := time.Parse(DateLayout, strings.TrimSpace(*s)); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// ClassifyDateField turns a raw column value into a DateField.
// Accepted inputs are maps with a "date" key (point) or "from"/"to" keys (range),
// and JSON strings encoding either shape.
func ClassifyDateField(raw any) (DateField, error) {
	switch v := raw.(type) {
	case nil:
		return nil, ErrEmptyDateField
	case DateField:
		return v, nil
	case string:
		return classifyJSON([]byte(v))
	case []byte:
		return classifyJSON(v)
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnknownDateShape, raw)
	}

	_, hasDate := m["date"]
	_, hasFrom := m["from"]
	_, hasTo := m["to"]

	switch {
	case hasDate:
		var p PointDate
		if err := decodeDateField(m, &p); err != nil {
			return nil, err
		}
		return p, nil
	case hasFrom || hasTo:
		var r RangeDate
		if err := decodeDateField(m, &r); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, ErrUnknownDateShape
	}
}

// ResolveDate classifies raw and resolves it in one step.
func ResolveDate(raw any) (time.Time, DateFieldKind, error) {
	field, err := ClassifyDateField(raw)
	if err != nil {
		return time.Time{}, 0, err
	}
	d, ok := field.Resolve()
	if !ok {
		return time.Time{}, field.Kind(), fmt.Errorf("unparseable %s date", field.Kind())
	}
	return d, field.Kind(), nil
}

// WithDate returns a copy of field moved to the given date.
// Points keep their time of day; ranges move their end and pull the start back
// if it would otherwise come after the end.
func WithDate(field DateField, date time.Time) DateField {
	s := date.Format(DateLayout)
	switch f := field.(type) {
	case PointDate:
		return PointDate{Date: s, Time: f.Time}
	case RangeDate:
		out := RangeDate{From: f.From, To: &s}
		if f.From != nil {
			if from, err := time.Parse(DateLayout, *f.From); err == nil && from.After(date) {
				out.From = &s
			}
		}
		return out
	default:
		return PointDate{Date: s}
	}
}

// EncodeDateField converts a DateField back to its wire map.
func EncodeDateField(field DateField) map[string]any {
	switch f := field.(type) {
	case PointDate:
		m := map[string]any{"date": f.Date}
		if f.Time != "" {
			m["time"] = f.Time
		}
		return m
	case RangeDate:
		m := map[string]any{"from": nil, "to": nil}
		if f.From != nil {
			m["from"] = *f.From
		}
		if f.To != nil {
			m["to"] = *f.To
		}
		return m
	default:
		return nil
	}
}

func classifyJSON(b []byte) (DateField, error) {
	if strings.TrimSpace(string(b)) == "" {
		return nil, ErrEmptyDateField
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownDateShape, err)
	}
	return ClassifyDateField(m)
}

func decodeDateField(m map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       timeToStringHook,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(m); err != nil {
		return fmt.Errorf("decode date field: %w", err)
	}
	return nil
}

// timeToStringHook lets decoders that already produced time.Time values through.
func timeToStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if t, ok := data.(time.Time); ok && to.Kind() == reflect.String {
		return t.Format(DateLayout), nil
	}
	return data, nil
}
