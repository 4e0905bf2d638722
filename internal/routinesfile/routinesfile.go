// Package routinesfile reads and writes task lists as YAML so a routine can
// be versioned, shared, or seeded into a fresh database.
package routinesfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/routined/internal/model"
)

type Document struct {
	Routines []Routine `yaml:"routines"`
}

type Routine struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description,omitempty"`
	Category     string   `yaml:"category,omitempty"`
	AlarmTime    string   `yaml:"alarm_time"`
	AlarmEnabled *bool    `yaml:"alarm_enabled,omitempty"`
	RepeatDays   []string `yaml:"repeat_days,omitempty,flow"`
	Completed    bool     `yaml:"completed,omitempty"`
}

// Decode parses a routines document. The returned tasks carry no id or
// creation time; the store assigns both on insert.
func Decode(r io.Reader) ([]model.Task, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("routinesfile: decode: %w", err)
	}

	out := make([]model.Task, 0, len(doc.Routines))
	for i, r := range doc.Routines {
		task, err := r.toTask()
		if err != nil {
			return nil, fmt.Errorf("routinesfile: routines[%d]: %w", i, err)
		}
		out = append(out, task)
	}
	return out, nil
}

func Load(path string) ([]model.Task, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(b))
}

// Encode writes tasks in list order.
func Encode(w io.Writer, tasks []model.Task) error {
	doc := Document{Routines: make([]Routine, 0, len(tasks))}
	for _, t := range tasks {
		doc.Routines = append(doc.Routines, fromTask(t))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("routinesfile: encode: %w", err)
	}
	return enc.Close()
}

func Save(path string, tasks []model.Task) error {
	var buf bytes.Buffer
	if err := Encode(&buf, tasks); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (r Routine) toTask() (model.Task, error) {
	days, err := model.ParseRepeatDays(strings.Join(r.RepeatDays, ","))
	if err != nil {
		return model.Task{}, err
	}
	category := model.Category(r.Category)
	if category == "" {
		category = model.CategoryAnytime
	}
	enabled := true
	if r.AlarmEnabled != nil {
		enabled = *r.AlarmEnabled
	}
	task := model.Task{
		Title:        r.Title,
		Description:  r.Description,
		Category:     category,
		AlarmEnabled: enabled,
		AlarmTime:    r.AlarmTime,
		RepeatDays:   days,
	}

	// validate with placeholder identity; the store fills in the real one
	probe := task
	probe.ID = "import"
	probe.CreatedAt = time.Unix(0, 0)
	if r.Completed {
		probe.IsCompleted = true
		probe.CompletedAt = &probe.CreatedAt
	}
	if err := probe.Validate(); err != nil {
		return model.Task{}, err
	}
	task.IsCompleted = r.Completed
	return task, nil
}

func fromTask(t model.Task) Routine {
	enabled := t.AlarmEnabled
	days := make([]string, 0, len(t.RepeatDays))
	for _, d := range t.RepeatDays.Sorted() {
		days = append(days, string(d))
	}
	return Routine{
		Title:        t.Title,
		Description:  t.Description,
		Category:     string(t.Category),
		AlarmTime:    t.AlarmTime,
		AlarmEnabled: &enabled,
		RepeatDays:   days,
		Completed:    t.IsCompleted,
	}
}
