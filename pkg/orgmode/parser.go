// Package orgmode reads TODO headings from Org files.
//
// Only headings with an :ID: property are read, since the id is what lets a
// second import update the task instead of duplicating it:
//
//	* TODO [#A] Write report :work:q1:
//	  DEADLINE: <2024-01-05 Fri 10:00>
//	  :PROPERTIES:
//	  :ID:       0f8fad5b-d9cb-469f-a165-70867728950e
//	  :END:
//	  Body lines become the description.
package orgmode

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/harrisonrobin/tomato/pkg/model"
)

var (
	headingRegex  = regexp.MustCompile(`^\*+\s+(?:(TODO|NEXT|STARTED|DONE|CANCELLED)\s+)?(?:\[#([A-Z])\]\s*)?(.*?)(?:\s+(:[\w@]+(?::[\w@]+)*:))?\s*$`)
	deadlineRegex = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2})(?:\s+[A-Za-z]{2,3})?(?:\s+(\d{1,2}:\d{2}))?[^>]*>`)
	schedRegex    = regexp.MustCompile(`SCHEDULED:\s+<(\d{4}-\d{2}-\d{2})(?:\s+[A-Za-z]{2,3})?(?:\s+(\d{1,2}:\d{2}))?[^>]*>`)
	idRegex       = regexp.MustCompile(`^:ID:\s+([A-Za-z0-9-]+)`)
)

// ParseFiles parses each file. Every task read from a file is stamped with
// the file's modification time, since Org keeps no per-heading one.
func ParseFiles(paths []string) ([]model.Task, error) {
	var all []model.Task
	for _, path := range paths {
		tasks, err := parseFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, tasks...)
	}
	return all, nil
}

func parseFile(path string) ([]model.Task, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	tasks, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range tasks {
		tasks[i].UpdatedAt = info.ModTime().UTC()
	}
	return tasks, nil
}

// Parse reads the TODO headings of one Org document. Headings without a
// keyword end the previous task without starting a new one.
func Parse(r io.Reader) ([]model.Task, error) {
	var (
		tasks     []model.Task
		current   *model.Task
		scheduled *time.Time
		body      []string
		inDrawer  bool
	)
	flush := func() {
		if current != nil && current.ID != "" && current.Title != "" {
			if current.DueDate == nil {
				current.DueDate = scheduled
			}
			current.Description = strings.TrimSpace(strings.Join(body, "\n"))
			tasks = append(tasks, current.Canonical())
		}
		current, scheduled, body, inDrawer = nil, nil, nil, false
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "*") {
			if m := headingRegex.FindStringSubmatch(line); m != nil {
				flush()
				if m[1] == "" {
					continue
				}
				current = &model.Task{
					Title:              m[3],
					Status:             mapKeyword(m[1]),
					Priority:           mapPriority(m[2]),
					Tags:               []string{},
					EstimatedPomodoros: 1,
				}
				if m[4] != "" {
					current.Tags = strings.Split(strings.Trim(m[4], ":"), ":")
				}
				continue
			}
		}
		if current == nil {
			continue
		}

		switch {
		case line == ":PROPERTIES:":
			inDrawer = true
		case line == ":END:":
			inDrawer = false
		case inDrawer:
			if m := idRegex.FindStringSubmatch(line); m != nil {
				current.ID = m[1]
			}
		case deadlineRegex.MatchString(line) || schedRegex.MatchString(line):
			if m := deadlineRegex.FindStringSubmatch(line); m != nil {
				current.DueDate = orgTime(m[1], m[2])
			}
			if m := schedRegex.FindStringSubmatch(line); m != nil {
				scheduled = orgTime(m[1], m[2])
			}
		default:
			body = append(body, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return tasks, nil
}

// FilterTasks keeps the tasks carrying tag.
func FilterTasks(tasks []model.Task, tag string) []model.Task {
	var filtered []model.Task
	for _, task := range tasks {
		for _, t := range task.Tags {
			if t == tag {
				filtered = append(filtered, task)
				break
			}
		}
	}
	return filtered
}

func mapKeyword(k string) model.TaskStatus {
	switch k {
	case "DONE":
		return model.StatusCompleted
	case "CANCELLED":
		return model.StatusCancelled
	case "STARTED":
		return model.StatusInProgress
	default:
		return model.StatusPending
	}
}

func mapPriority(p string) model.TaskPriority {
	switch p {
	case "A":
		return model.PriorityHigh
	case "C":
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

// orgTime reads an Org date with an optional clock time, in local time.
func orgTime(date, clock string) *time.Time {
	layout, value := "2006-01-02", date
	if clock != "" {
		layout, value = "2006-01-02 15:04", date+" "+clock
	}
	t, err := time.ParseInLocation(layout, value, time.Local)
	if err != nil {
		return nil
	}
	return &t
}
