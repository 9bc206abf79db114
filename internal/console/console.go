// Package console is the operator's line-oriented interface to the autotest
// services. It covers the actions of the operator screens without rendering
// anything beyond plain text.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"mold_autotest/internal/autotest"
	"mold_autotest/internal/config"
	"mold_autotest/internal/logger"
	"mold_autotest/internal/service"
)

const prompt = "> "

// Common messages to avoid magic strings and typos.
const (
	msgUnknownCommand = "unknown command %q, type help for the list"
	msgUsage          = "usage: %s"
	msgRejected       = "rejected: %v"
	msgFailed         = "failed: %v"
	msgNotSaved       = "warning: not saved to the event log: %v"
	msgBye            = "bye"
)

var (
	errQuit  = errors.New("quit")
	errUsage = errors.New("bad arguments")
)

// handler runs one command. Returning errUsage prints the command usage.
type handler func(ctx context.Context, w io.Writer, args []string) error

type command struct {
	name  string
	usage string
	help  string
	run   handler
}

// Console dispatches operator commands to the services.
type Console struct {
	services *service.Service
	log      *logger.Logger
	commands []command
	byName   map[string]command
}

func NewConsole(services *service.Service, log *logger.Logger) *Console {
	c := &Console{services: services, log: log}
	c.commands = []command{
		{"status", "status [side]", "session state, pending test and expected order", c.status},
		{"view", "view <side>", "temperatures and results of one side", c.view},
		{"history", "history <label>", "retained samples of a thermocouple", c.history},
		{"manual", "manual <label>", "start a manual test", c.manual},
		{"confirm", "confirm success|fail", "settle the test awaiting confirmation", c.confirm},
		{"direction", "direction <horizontal|vertical>", "change the expected test order", c.direction},
		{"reset", "reset", "discard the session and start a new one", c.reset},
		{"settings", "settings", "show the test thresholds", c.settings},
		{"set", "set key=value...", "update the test thresholds", c.set},
		{"events", "events [type] [from=..] [to=..] [session=current|<id>]", "list the event log", c.events},
		{"report", "report", "per-side results of the session", c.report},
		{"help", "help", "this list", c.help},
		{"quit", "quit", "leave the console", c.quit},
	}
	c.byName = make(map[string]command, len(c.commands)+1)
	for _, cmd := range c.commands {
		c.byName[cmd.name] = cmd
	}
	c.byName["exit"] = c.byName["quit"]
	return c
}

// Run reads commands from in until quit, EOF or ctx cancellation.
func (c *Console) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(out, prompt)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if err := c.Execute(ctx, sc.Text(), out); errors.Is(err, errQuit) {
			return nil
		}
		fmt.Fprint(out, prompt)
	}
	return sc.Err()
}

// Execute runs a single command line. It returns errQuit for quit and nil
// otherwise; command failures are reported on w.
func (c *Console) Execute(ctx context.Context, line string, w io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	cmd, ok := c.byName[name]
	if !ok {
		fmt.Fprintf(w, msgUnknownCommand+"\n", fields[0])
		return nil
	}
	err := cmd.run(ctx, w, fields[1:])
	switch {
	case err == nil:
	case errors.Is(err, errQuit):
		fmt.Fprintln(w, msgBye)
		return errQuit
	case errors.Is(err, errUsage):
		if err != errUsage {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintf(w, msgUsage+"\n", cmd.usage)
	case isRejection(err):
		fmt.Fprintf(w, msgRejected+"\n", err)
	default:
		if c.log != nil {
			c.log.Errorw("console_command_failed", "command", name, "err", err)
		}
		fmt.Fprintf(w, msgFailed+"\n", err)
	}
	return nil
}

// isRejection reports whether err is an expected refusal of an operator
// action rather than a failure.
func isRejection(err error) bool {
	for _, target := range []error{
		autotest.ErrSessionBusy,
		autotest.ErrAlreadyTested,
		autotest.ErrSensorNotOK,
		autotest.ErrNoReading,
		autotest.ErrNoPendingTest,
		autotest.ErrInvalidResult,
		service.ErrUnknownSensor,
		config.ErrInvalidSetting,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (c *Console) help(ctx context.Context, w io.Writer, args []string) error {
	for _, cmd := range c.commands {
		fmt.Fprintf(w, "  %-58s %s\n", cmd.usage, cmd.help)
	}
	return nil
}

func (c *Console) quit(ctx context.Context, w io.Writer, args []string) error {
	return errQuit
}
