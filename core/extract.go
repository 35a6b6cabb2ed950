package core

import (
	"fmt"

	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/schema"
)

// ExtractItems builds timeline items from records using the given date column.
// Records without a parseable date are skipped and counted.
func ExtractItems(records []schema.ItemRecord, column string) ([]schema.TimelineItem, int, error) {
	if column == "" {
		return nil, 0, ErrMissingDateColumn
	}

	items := make([]schema.TimelineItem, 0, len(records))
	excluded := 0
	for _, rec := range records {
		date, _, err := schema.ResolveDate(rec.Columns[column])
		if err != nil {
			contract.LogDebug("skipping item %s: %v", rec.ID, err)
			excluded++
			continue
		}
		label := rec.Name
		if label == "" {
			label = rec.ID
		}
		items = append(items, schema.TimelineItem{
			ID:     rec.ID,
			Label:  label,
			Date:   date,
			Group:  rec.Group,
			Record: rec,
		})
	}
	return items, excluded, nil
}

// LogDegenerateWindow warns that positions fall back to an equal split.
func LogDegenerateWindow(window schema.TimeWindow) {
	contract.LogWarn("Degenerate timeline window", fmt.Errorf("%s to %s has no span, spreading items evenly",
		window.Start.Format(schema.DateLayout), window.End.Format(schema.DateLayout)))
}
