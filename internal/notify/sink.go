package notify

import (
	"context"
	"os/exec"
	"time"

	appLog "fitcal/internal/log"
)

// Sink receives fired reminders.
type Sink interface {
	Notify(key string, content Content)
}

// LogSink writes fired reminders to the application log. It is the default
// sink and the fallback when no notify command is configured.
type LogSink struct{}

func (LogSink) Notify(key string, content Content) {
	appLog.Info("reminder fired", "key", key, "title", content.Title, "body", content.Body)
}

// CommandSink invokes an external command (e.g. notify-send) with the
// reminder title and body as its last two arguments. Command failure is
// logged and otherwise swallowed: a missing desktop notifier must never
// break reminder dispatch.
type CommandSink struct {
	Command string
	Args    []string
	Timeout time.Duration
}

func NewCommandSink(command string, args []string) *CommandSink {
	return &CommandSink{Command: command, Args: args, Timeout: 10 * time.Second}
}

func (s *CommandSink) Notify(key string, content Content) {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()

	argv := append(append([]string{}, s.Args...), content.Title, content.Body)
	cmd := exec.CommandContext(ctx, s.Command, argv...)
	if err := cmd.Run(); err != nil {
		appLog.Error("notify command failed", err, "key", key, "command", s.Command)
		return
	}
	appLog.Debug("reminder delivered", "key", key, "command", s.Command)
}
