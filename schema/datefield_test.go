package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestClassifyDateField(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		wantKind DateFieldKind
		wantDate string
		wantErr  error
	}{
		{name: "point map", raw: map[string]any{"date": "2025-03-14"}, wantKind: PointKind, wantDate: "2025-03-14"},
		{name: "point json", raw: `{"date":"2025-03-14","time":"10:30:00"}`, wantKind: PointKind, wantDate: "2025-03-14"},
		{name: "range both", raw: map[string]any{"from": "2025-01-01", "to": "2025-02-01"}, wantKind: RangeKind, wantDate: "2025-02-01"},
		{name: "range open end", raw: map[string]any{"from": "2025-01-01", "to": nil}, wantKind: RangeKind, wantDate: "2025-01-01"},
		{name: "range json", raw: []byte(`{"from":null,"to":"2025-06-30"}`), wantKind: RangeKind, wantDate: "2025-06-30"},
		{name: "nil", raw: nil, wantErr: ErrEmptyDateField},
		{name: "blank string", raw: "   ", wantErr: ErrEmptyDateField},
		{name: "unknown keys", raw: map[string]any{"when": "2025-01-01"}, wantErr: ErrUnknownDateShape},
		{name: "not json", raw: "tomorrow", wantErr: ErrUnknownDateShape},
		{name: "number", raw: 42, wantErr: ErrUnknownDateShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, err := ClassifyDateField(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, field.Kind())

			d, ok := field.Resolve()
			require.True(t, ok)
			assert.Equal(t, tt.wantDate, d.Format(DateLayout))
		})
	}
}

func TestResolveDate(t *testing.T) {
	d, kind, err := ResolveDate(map[string]any{"date": "2025-03-14", "time": "06:00:00"})
	require.NoError(t, err)
	assert.Equal(t, PointKind, kind)
	assert.Equal(t, time.Date(2025, 3, 14, 6, 0, 0, 0, time.UTC), d)

	// A malformed time of day does not invalidate the date.
	d, _, err = ResolveDate(map[string]any{"date": "2025-03-14", "time": "noon"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), d)

	_, kind, err = ResolveDate(map[string]any{"from": nil, "to": nil})
	assert.Error(t, err)
	assert.Equal(t, RangeKind, kind)

	_, _, err = ResolveDate(map[string]any{"date": "14/03/2025"})
	assert.Error(t, err)
}

func TestClassifyDateFieldDecodesTimeValues(t *testing.T) {
	field, err := ClassifyDateField(map[string]any{"date": time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	d, ok := field.Resolve()
	require.True(t, ok)
	assert.Equal(t, "2024-12-31", d.Format(DateLayout))
}

func TestWithDate(t *testing.T) {
	target := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("point keeps time", func(t *testing.T) {
		got := WithDate(PointDate{Date: "2025-01-01", Time: "09:00:00"}, target)
		assert.Equal(t, PointDate{Date: "2025-05-01", Time: "09:00:00"}, got)
	})

	t.Run("range moves end", func(t *testing.T) {
		got := WithDate(RangeDate{From: strPtr("2025-04-01"), To: strPtr("2025-04-10")}, target).(RangeDate)
		assert.Equal(t, "2025-04-01", *got.From)
		assert.Equal(t, "2025-05-01", *got.To)
	})

	t.Run("range start pulled back", func(t *testing.T) {
		got := WithDate(RangeDate{From: strPtr("2025-06-01"), To: strPtr("2025-06-10")}, target).(RangeDate)
		assert.Equal(t, "2025-05-01", *got.From)
		assert.Equal(t, "2025-05-01", *got.To)
	})

	t.Run("nil becomes point", func(t *testing.T) {
		assert.Equal(t, PointDate{Date: "2025-05-01"}, WithDate(nil, target))
	})
}

func TestEncodeDateField(t *testing.T) {
	assert.Equal(t, map[string]any{"date": "2025-01-02"}, EncodeDateField(PointDate{Date: "2025-01-02"}))
	assert.Equal(t, map[string]any{"from": nil, "to": "2025-01-02"}, EncodeDateField(RangeDate{To: strPtr("2025-01-02")}))
	assert.Nil(t, EncodeDateField(nil))

	// Encoded values classify back to the same variant.
	field, err := ClassifyDateField(EncodeDateField(RangeDate{From: strPtr("2025-01-01"), To: strPtr("2025-01-02")}))
	require.NoError(t, err)
	assert.Equal(t, RangeKind, field.Kind())
}
