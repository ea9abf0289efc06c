package tools

import (
	"context"
	"strconv"
	"time"
)

// CurrentTimeTool returns the current date and time.
type CurrentTimeTool struct{}

func (c *CurrentTimeTool) Name() string {
	return "current_time"
}

func (c *CurrentTimeTool) Description() string {
	return "Get the current date and time"
}

func (c *CurrentTimeTool) Parameters() map[string]any {
	return map[string]any{
		"format": map[string]any{
			"type":        "string",
			"description": "Time format: 'iso' (default), 'human', 'date', 'time', 'unix', or a Go format string like '2006-01-02 15:04:05'",
		},
	}
}

func (c *CurrentTimeTool) Required() []string {
	return []string{}
}

func (c *CurrentTimeTool) Call(ctx context.Context, args map[string]any) (string, error) {
	now := time.Now()
	format := time.RFC3339

	if f, ok := args["format"].(string); ok {
		switch f {
		case "iso", "":
			format = time.RFC3339
		case "human":
			format = "January 2, 2006 at 3:04 PM MST"
		case "date":
			format = "2006-01-02"
		case "time":
			format = "15:04:05"
		case "unix":
			return strconv.FormatInt(now.Unix(), 10), nil
		default:
			format = f
		}
	}

	return now.Format(format), nil
}
