package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandSink runs a shell command for each notification, e.g.
// "notify-send {{.Title}} {{.Body}}". Placeholders expand to single-quoted
// shell words.
type CommandSink struct {
	Command string
}

// Name implements Sink.
func (c *CommandSink) Name() string { return "command" }

// Send implements Sink.
func (c *CommandSink) Send(ctx context.Context, n Notification) error {
	if c.Command == "" {
		return nil
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", templateCommand(c.Command, n))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// templateCommand replaces placeholders in the command template with
// notification values.
func templateCommand(command string, n Notification) string {
	r := strings.NewReplacer(
		"{{.Title}}", shellQuote(n.Title),
		"{{.Body}}", shellQuote(n.Body),
		"{{.URL}}", shellQuote(n.Link),
	)
	return r.Replace(command)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
