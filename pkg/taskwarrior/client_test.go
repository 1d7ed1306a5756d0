package taskwarrior

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestParseTask(t *testing.T) {
	input := `{
		"uuid": "f45a05b3-c12e-42e5-9c9c-333333333333",
		"description": "Buy milk",
		"status": "pending",
		"due": "20230101T120000Z",
		"project": "Groceries",
		"tags": ["buy", "food"],
		"annotations": [
			{"entry": "20230101T120500Z", "description": "Don't forget almond milk"}
		]
	}`

	client := NewClient()
	task, err := client.ParseTask(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseTask failed: %v", err)
	}

	if task.UUID != "f45a05b3-c12e-42e5-9c9c-333333333333" {
		t.Errorf("Expected UUID f45a05b3-c12e-42e5-9c9c-333333333333, got %s", task.UUID)
	}
	if task.Project != "Groceries" {
		t.Errorf("Expected Project 'Groceries', got '%s'", task.Project)
	}
	if len(task.Annotations) != 1 || task.Annotations[0].Description != "Don't forget almond milk" {
		t.Errorf("unexpected annotations %+v", task.Annotations)
	}
	expectedDue, _ := time.Parse(time.RFC3339, "2023-01-01T12:00:00Z")
	if !task.Due.Time.Equal(expectedDue) {
		t.Errorf("Expected Due %v, got %v", expectedDue, task.Due.Time)
	}
}

func TestParseTasksAcceptsArrayAndStream(t *testing.T) {
	client := NewClient()
	inputs := map[string]string{
		"export": `[{"uuid":"a","description":"one","status":"pending"},{"uuid":"b","description":"two","status":"pending"}]`,
		"stream": "{\"uuid\":\"a\",\"description\":\"one\",\"status\":\"pending\"}\n{\"uuid\":\"b\",\"description\":\"two\",\"status\":\"pending\"}\n",
	}
	for name, in := range inputs {
		tasks, err := client.ParseTasks(strings.NewReader(in))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(tasks) != 2 || tasks[1].UUID != "b" {
			t.Errorf("%s: unexpected tasks %+v", name, tasks)
		}
	}

	tasks, err := client.ParseTasks(strings.NewReader("  \n"))
	if err != nil || len(tasks) != 0 {
		t.Errorf("empty input: got %v, %v", tasks, err)
	}
}

func TestGetTasksRunsExport(t *testing.T) {
	orig := execCommand
	defer func() { execCommand = orig }()

	var gotArgs []string
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gotArgs = args
		return exec.CommandContext(ctx, "echo", `[{"uuid":"a","description":"one","status":"pending"}]`)
	}

	tasks, err := NewClient().GetTasks(context.Background(), []string{"project:home"})
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].UUID != "a" {
		t.Errorf("unexpected tasks %+v", tasks)
	}
	if strings.Join(gotArgs, " ") != "project:home export rc.hooks=0" {
		t.Errorf("unexpected args %v", gotArgs)
	}
}
