package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/routined/internal/model"
)

type Type string

const (
	TypeAdd      Type = "add"
	TypeComplete Type = "complete"
	TypeDismiss  Type = "dismiss"
	TypeAlarm    Type = "alarm"
	TypeFilter   Type = "filter"
	TypeDelete   Type = "delete"
	TypeEdit     Type = "edit"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func invalid(msg string, err error) *CommandError {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: msg, Err: err}
}

type AddArgs struct {
	Title       string
	Description string
	AlarmTime   string
	RepeatDays  model.RepeatDays
	Category    model.Category
}

// CompleteArgs with an empty Target completes whatever alarm is active.
type CompleteArgs struct {
	Target string
}

type AlarmArgs struct {
	Target  string
	Enabled bool
}

// FilterArgs with an empty Category shows every task.
type FilterArgs struct {
	Category model.Category
}

type DeleteArgs struct {
	Target string
}

// EditArgs changes only the fields that were given; nil means keep.
type EditArgs struct {
	Target      string
	Title       *string
	Description *string
	AlarmTime   *string
	RepeatDays  *model.RepeatDays
	Category    *model.Category
}

// Apply writes the given fields onto t.
func (e EditArgs) Apply(t *model.Task) {
	if e.Title != nil {
		t.Title = *e.Title
	}
	if e.Description != nil {
		t.Description = *e.Description
	}
	if e.AlarmTime != nil {
		t.AlarmTime = *e.AlarmTime
	}
	if e.RepeatDays != nil {
		t.RepeatDays = *e.RepeatDays
	}
	if e.Category != nil {
		t.Category = *e.Category
	}
}

type Command struct {
	Type     Type
	Raw      string
	Add      *AddArgs
	Complete *CompleteArgs
	Alarm    *AlarmArgs
	Filter   *FilterArgs
	Delete   *DeleteArgs
	Edit     *EditArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, strings.TrimSpace(raw[len(parts[0]):]))
	case TypeComplete, "done":
		return parseComplete(input, args)
	case TypeDismiss:
		if len(args) > 0 {
			return Command{}, invalid("dismiss takes no arguments", nil)
		}
		return Command{Type: TypeDismiss, Raw: input}, nil
	case TypeAlarm:
		return parseAlarm(input, args)
	case TypeFilter:
		return parseFilter(input, args)
	case TypeEdit:
		return parseEdit(input, strings.TrimSpace(raw[len(parts[0]):]))
	case TypeDelete, "rm":
		if len(args) != 1 {
			return Command{}, invalid("delete requires a task id", nil)
		}
		return Command{Type: TypeDelete, Raw: input, Delete: &DeleteArgs{Target: args[0]}}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// taskFields is what the add and edit grammars share:
// `[title words] [@HH:MM] [days:Mon,Wed] [cat:morning] [-- description]`.
type taskFields struct {
	title       string
	description *string
	alarmTime   *string
	repeatDays  *model.RepeatDays
	category    *model.Category
}

func scanTaskFields(rest string) (taskFields, error) {
	var f taskFields
	if head, desc, ok := strings.Cut(rest, " -- "); ok {
		rest = head
		d := strings.TrimSpace(desc)
		f.description = &d
	}

	titleParts := make([]string, 0)
	for _, tok := range strings.Fields(rest) {
		lower := strings.ToLower(tok)
		switch {
		case strings.HasPrefix(tok, "@"):
			at := strings.TrimPrefix(tok, "@")
			if _, _, err := model.ParseAlarmTime(at); err != nil {
				return taskFields{}, invalid(fmt.Sprintf("alarm time must be HH:MM, got %q", at), err)
			}
			f.alarmTime = &at
		case strings.HasPrefix(lower, "days:"):
			days, err := model.ParseRepeatDays(tok[len("days:"):])
			if err != nil {
				return taskFields{}, invalid(err.Error(), err)
			}
			f.repeatDays = &days
		case strings.HasPrefix(lower, "cat:"):
			category := model.Category(lower[len("cat:"):])
			if !category.IsValid() {
				return taskFields{}, invalid(fmt.Sprintf("unknown category %q", category), model.ErrInvalidCategory)
			}
			f.category = &category
		default:
			titleParts = append(titleParts, tok)
		}
	}
	f.title = strings.Join(titleParts, " ")
	return f, nil
}

// parseAdd reads `add <title> @HH:MM [days:Mon,Wed] [cat:morning] [-- description]`.
func parseAdd(raw, rest string) (Command, error) {
	f, err := scanTaskFields(rest)
	if err != nil {
		return Command{}, err
	}
	if f.title == "" {
		return Command{}, invalid("add requires a title", nil)
	}
	if f.alarmTime == nil {
		return Command{}, invalid("add requires an alarm time like @07:30", model.ErrInvalidAlarmTime)
	}

	args := AddArgs{Title: f.title, AlarmTime: *f.alarmTime, Category: model.CategoryAnytime}
	if f.description != nil {
		args.Description = *f.description
	}
	if f.repeatDays != nil {
		args.RepeatDays = *f.repeatDays
	}
	if f.category != nil {
		args.Category = *f.category
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &args}, nil
}

// parseEdit reads `edit <id> [title] [@HH:MM] [days:..] [cat:..] [-- description]`.
// A title replaces the old one; `days:daily` clears the repeat days.
func parseEdit(raw, rest string) (Command, error) {
	target, rest, _ := strings.Cut(rest, " ")
	if target == "" || strings.HasPrefix(target, "@") || strings.Contains(target, ":") {
		return Command{}, invalid("edit requires a task id", nil)
	}
	f, err := scanTaskFields(" " + rest)
	if err != nil {
		return Command{}, err
	}

	args := EditArgs{
		Target:      target,
		Description: f.description,
		AlarmTime:   f.alarmTime,
		RepeatDays:  f.repeatDays,
		Category:    f.category,
	}
	if f.title != "" {
		args.Title = &f.title
	}
	if args.Title == nil && args.Description == nil && args.AlarmTime == nil && args.RepeatDays == nil && args.Category == nil {
		return Command{}, invalid("edit needs at least one change", nil)
	}
	return Command{Type: TypeEdit, Raw: raw, Edit: &args}, nil
}

func parseComplete(raw string, args []string) (Command, error) {
	switch len(args) {
	case 0:
		return Command{Type: TypeComplete, Raw: raw, Complete: &CompleteArgs{}}, nil
	case 1:
		return Command{Type: TypeComplete, Raw: raw, Complete: &CompleteArgs{Target: args[0]}}, nil
	default:
		return Command{}, invalid("complete takes at most one task id", nil)
	}
}

func parseAlarm(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalid("alarm requires a task id and on|off", nil)
	}
	var enabled bool
	switch strings.ToLower(args[1]) {
	case "on", "enable", "true":
		enabled = true
	case "off", "disable", "false":
		enabled = false
	default:
		return Command{}, invalid(fmt.Sprintf("alarm state must be on or off, got %q", args[1]), nil)
	}
	return Command{Type: TypeAlarm, Raw: raw, Alarm: &AlarmArgs{Target: args[0], Enabled: enabled}}, nil
}

func parseFilter(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("filter requires a category or all", nil)
	}
	value := strings.ToLower(args[0])
	if value == "all" {
		return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{}}, nil
	}
	category := model.Category(value)
	if !category.IsValid() {
		return Command{}, invalid(fmt.Sprintf("unknown category %q", value), model.ErrInvalidCategory)
	}
	return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{Category: category}}, nil
}

// IsCode reports whether err is a CommandError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var ce *CommandError
	return errors.As(err, &ce) && ce.Code == code
}
