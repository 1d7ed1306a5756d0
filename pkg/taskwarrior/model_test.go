package taskwarrior

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampJSON(t *testing.T) {
	var task Task
	in := `{"uuid":"u","status":"pending","start":"20230102T090000Z","end":""}`
	if err := json.Unmarshal([]byte(in), &task); err != nil {
		t.Fatal(err)
	}
	want := time.Date(2023, 1, 2, 9, 0, 0, 0, time.UTC)
	if p := task.Start.Ptr(); p == nil || !p.Equal(want) {
		t.Fatalf("unexpected start %v", p)
	}
	if task.End.Ptr() != nil || task.Due.Ptr() != nil {
		t.Error("empty and missing dates should be absent")
	}
	if !task.Started() {
		t.Error("task with start and no end is started")
	}

	out, err := json.Marshal(task.Start)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"20230102T090000Z"` {
		t.Errorf("unexpected encoding %s", out)
	}

	if err := json.Unmarshal([]byte(`{"due":"2023-01-02"}`), &task); err == nil {
		t.Error("expected error for a non-taskwarrior date")
	}
}
