package console

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"mold_autotest/internal/autotest"
	"mold_autotest/internal/config"
	"mold_autotest/internal/service"
	"mold_autotest/internal/thermocouple"
)

const (
	layoutClock = "15:04:05.0"
	noValue     = "-"
)

func parseLabel(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	label, err := strconv.Atoi(args[0])
	if err != nil || label <= 0 {
		return 0, errUsage
	}
	return label, nil
}

func formatTemp(t *float64) string {
	if t == nil {
		return noValue
	}
	return strconv.FormatFloat(*t, 'f', 2, 64)
}

func formatLabels(labels []int) string {
	if len(labels) == 0 {
		return noValue
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ", ")
}

func formatTest(t *service.TestInfo) string {
	if t == nil {
		return noValue
	}
	kind := "auto"
	if t.Manual {
		kind = "manual"
	}
	s := fmt.Sprintf("TC %d (%s, %s) started %s at %.2f", t.Label, t.Side, kind,
		t.StartTime.Format(layoutClock), t.StartTemperature)
	if t.Complete {
		s += fmt.Sprintf(", %s (%s)", t.Result, t.Reason)
	}
	return s
}

func (c *Console) status(ctx context.Context, w io.Writer, args []string) error {
	var side thermocouple.Side
	if len(args) > 1 {
		return errUsage
	}
	if len(args) == 1 {
		s, err := thermocouple.ParseSide(args[0])
		if err != nil {
			return errUsage
		}
		side = s
	}
	info := c.services.Testing.SessionInfo(side)
	fmt.Fprintf(w, "session   %s (started %s)\n", info.SessionID, info.StartedAt.Format(time.DateTime))
	fmt.Fprintf(w, "state     %s\n", info.State)
	fmt.Fprintf(w, "mode      %s\n", info.Mode)
	fmt.Fprintf(w, "tested    %d/%d\n", info.Tested, info.Total)
	fmt.Fprintf(w, "running   %s\n", formatTest(info.Current))
	fmt.Fprintf(w, "pending   %s\n", formatTest(info.Pending))
	if side != "" {
		fmt.Fprintf(w, "next (%s) %s\n", side, formatLabels(info.Ordering))
	}
	return nil
}

func (c *Console) view(ctx context.Context, w io.Writer, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	side, err := thermocouple.ParseSide(args[0])
	if err != nil {
		return errUsage
	}
	v := c.services.Monitoring.SideView(side)
	if v.Fault != "" {
		fmt.Fprintf(w, "%s side fault: %s\n", v.Side, v.Fault)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TC\tX\tY\tSTATUS\tTEMP\tRESULT")
	for _, s := range v.Sensors {
		result := string(s.Result)
		if s.Label == v.Current {
			result = "testing"
		}
		if result == "" {
			result = noValue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n", s.TextLabel, s.X, s.Y, s.Status, formatTemp(s.Temperature), result)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "successful: %s\n", formatLabels(v.Successful))
	fmt.Fprintf(w, "failed:     %s\n", formatLabels(v.Failed))
	return nil
}

func (c *Console) history(ctx context.Context, w io.Writer, args []string) error {
	label, err := parseLabel(args)
	if err != nil {
		return err
	}
	samples, err := c.services.Monitoring.History(label)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Fprintf(w, "TC %d: no samples yet\n", label)
		return nil
	}
	for _, s := range samples {
		temp := noValue
		if s.Valid {
			temp = strconv.FormatFloat(s.Temp, 'f', 2, 64)
		}
		fmt.Fprintf(w, "%s  %s\n", s.Time.Format(layoutClock), temp)
	}
	return nil
}

func (c *Console) manual(ctx context.Context, w io.Writer, args []string) error {
	label, err := parseLabel(args)
	if err != nil {
		return err
	}
	info, err := c.services.Testing.StartManualTest(ctx, label)
	if info.Label == 0 {
		return err
	}
	fmt.Fprintf(w, "manual test started on TC %d at %.2f\n", info.Label, info.StartTemperature)
	if err != nil {
		fmt.Fprintf(w, msgNotSaved+"\n", err)
	}
	return nil
}

func (c *Console) confirm(ctx context.Context, w io.Writer, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	info, err := c.services.Testing.ConfirmTest(ctx, args[0])
	if info.Label == 0 {
		return err
	}
	fmt.Fprintf(w, "TC %d confirmed: %s\n", info.Label, info.Result)
	if err != nil {
		fmt.Fprintf(w, msgNotSaved+"\n", err)
	}
	return nil
}

func (c *Console) direction(ctx context.Context, w io.Writer, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	d, ok := c.services.Testing.SetDirection(ctx, strings.Join(args, " "))
	if !ok {
		fmt.Fprintf(w, "ignored: unknown direction %q, still %s\n", strings.Join(args, " "), d)
		return nil
	}
	fmt.Fprintf(w, "direction: %s\n", d)
	return nil
}

func (c *Console) reset(ctx context.Context, w io.Writer, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	id, err := c.services.Testing.Reset(ctx)
	fmt.Fprintf(w, "new session %s\n", id)
	if err != nil {
		fmt.Fprintf(w, msgNotSaved+"\n", err)
	}
	return nil
}

func (c *Console) settings(ctx context.Context, w io.Writer, args []string) error {
	printSettings(w, c.services.Settings.Get())
	return nil
}

func printSettings(w io.Writer, m config.MSD) {
	kv := config.FormatSettings(m)
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s = %s\n", k, kv[k])
	}
}

func (c *Console) set(ctx context.Context, w io.Writer, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	params := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return errUsage
		}
		params[strings.ToLower(k)] = v
	}
	m, err := c.services.Settings.Update(ctx, params)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "settings updated")
	printSettings(w, m)
	return nil
}

func (c *Console) report(ctx context.Context, w io.Writer, args []string) error {
	r := c.services.Monitoring.Report()
	fmt.Fprintf(w, "mold %s  tester %s  session %s\n", r.MoldName, r.Tester, r.SessionID)
	for _, side := range r.Sides {
		if side.Fault != "" {
			fmt.Fprintf(w, "%s: fault %s\n", side.Side, side.Fault)
			continue
		}
		var ok, failed, untested []int
		for _, e := range side.Entries {
			switch e.Result {
			case autotest.ResultSuccess:
				ok = append(ok, e.Label)
			case autotest.ResultFail:
				failed = append(failed, e.Label)
			default:
				untested = append(untested, e.Label)
			}
		}
		fmt.Fprintf(w, "%s: success %s | fail %s | untested %s\n", side.Side,
			formatLabels(ok), formatLabels(failed), formatLabels(untested))
	}
	fmt.Fprintf(w, "total: %d success, %d fail, %d untested\n", r.Success, r.Fail, r.Untested)
	return nil
}
