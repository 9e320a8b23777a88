package schedule

import (
	"encoding/json"
	"reflect"
	"testing"
)

func decode(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return raw
}

func TestNormalizeDay(t *testing.T) {
	want := DaySchedule{
		1: {Number: 1, Subject: "Algorithms", Room: "147", StartTime: "08:05", EndTime: "08:50"},
		2: {Number: 2, Subject: "Networks", Room: "149", StartTime: "09:00", EndTime: "09:45"},
	}

	flat := `{
		"1": {"number": 1, "subject": "Algorithms", "room": "147", "startTime": "08:05", "endTime": "08:50"},
		"2": {"number": 2, "subject": "Networks", "room": "149", "startTime": "09:00", "endTime": "09:45"}
	}`
	wrapped := `{"lessons": ` + flat + `}`

	for _, tt := range []struct {
		name string
		raw  string
	}{
		{name: "flat shape", raw: flat},
		{name: "lessons-wrapped shape", raw: wrapped},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, skipped := NormalizeDay(decode(t, tt.raw))
			if skipped != 0 {
				t.Errorf("skipped = %d, want 0", skipped)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("NormalizeDay() = %v, want %v", got, want)
			}
		})
	}
}

func TestNormalizeDay_skipsMalformedRecords(t *testing.T) {
	raw := decode(t, `{
		"1": {"number": 1, "subject": "Algorithms", "room": "147", "startTime": "08:05", "endTime": "08:50"},
		"2": {"number": 2, "subject": "Networks"},
		"3": "garbage",
		"4": {"subject": "English", "room": "422", "startTime": "11:00", "endTime": "11:45"}
	}`)

	got, skipped := NormalizeDay(raw)
	if skipped != 3 {
		t.Errorf("skipped = %d, want 3", skipped)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if _, ok := got[1]; !ok {
		t.Error("valid lesson 1 was dropped")
	}
}

func TestNormalizeDay_allMalformedIsNil(t *testing.T) {
	got, skipped := NormalizeDay(decode(t, `{"1": {"number": 1}}`))
	if got != nil {
		t.Errorf("NormalizeDay() = %v, want nil", got)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
}

func TestNormalizeDay_nil(t *testing.T) {
	if got, _ := NormalizeDay(nil); got != nil {
		t.Errorf("NormalizeDay(nil) = %v, want nil", got)
	}
}
