package schedule

import "encoding/json"

// NormalizeDay converts a raw decoded day record into a canonical DaySchedule.
// Two stored shapes exist in the wild: a flat map of lesson-keyed children and
// a map with an explicit "lessons" wrapper; both are accepted here so no call
// site ever needs to care. Malformed or incomplete lesson records are skipped;
// the number of skipped records is returned so callers can log it.
func NormalizeDay(raw map[string]interface{}) (DaySchedule, int) {
	if raw == nil {
		return nil, 0
	}

	entries := raw
	if wrapped, ok := raw["lessons"].(map[string]interface{}); ok {
		entries = wrapped
	}

	ds := make(DaySchedule, len(entries))
	var skipped int
	for _, v := range entries {
		fields, ok := v.(map[string]interface{})
		if !ok {
			skipped++
			continue
		}
		number, ok := asInt(fields["number"])
		if !ok {
			skipped++
			continue
		}
		subject, okSubj := fields["subject"].(string)
		room, okRoom := fields["room"].(string)
		start, okStart := fields["startTime"].(string)
		end, okEnd := fields["endTime"].(string)
		if !(okSubj && okRoom && okStart && okEnd) {
			skipped++
			continue
		}
		ds[number] = Lesson{
			Number:    number,
			Subject:   subject,
			Room:      room,
			StartTime: start,
			EndTime:   end,
		}
	}
	if len(ds) == 0 {
		return nil, skipped
	}
	return ds, skipped
}

// asInt tolerates the numeric types JSON decoding may produce.
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}
