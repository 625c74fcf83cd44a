// Package admin holds the commands served on the admin unix socket.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/zeptools/legalgram/docs"
	"github.com/zeptools/legalgram/locks/keyonlylocks"
	"github.com/zeptools/legalgram/metrics"
	"github.com/zeptools/legalgram/schedjobs"
	"github.com/zeptools/legalgram/throttle"
	"github.com/zeptools/legalgram/uds"
	"github.com/zeptools/legalgram/web/session"
)

var errUsage = errors.New("wrong arguments")

// Deps are the components the commands inspect. Nil members leave their commands out.
type Deps struct {
	Registry  *docs.Registry
	Sessions  *session.Manager
	Locks     *keyonlylocks.Set // sessions with a mutation in flight
	Throttle  *throttle.BucketStore[string]
	Scheduler *schedjobs.Scheduler
	Metrics   *metrics.Metrics
}

// Commands builds the command map for uds.NewService.
func Commands(d Deps) map[string]uds.Command {
	cmds := map[string]uds.Command{}
	if d.Registry != nil {
		cmds["doctypes"] = uds.Command{Desc: "list the registered document types", Fn: d.docTypes}
		cmds["reload"] = uds.Command{Desc: "reload the document templates", Fn: d.reload}
	}
	if d.Sessions != nil {
		cmds["sessions"] = uds.Command{Desc: "count stored wizard sessions", Fn: d.sessions}
	}
	if d.Throttle != nil {
		cmds["throttle"] = uds.Command{Desc: "show bucket counts per throttle group", Fn: d.throttle}
	}
	if d.Scheduler != nil {
		cmds["jobs"] = uds.Command{Desc: "list scheduled jobs", Fn: d.jobs}
		cmds["runjob"] = uds.Command{Desc: "run a scheduled job now", Usage: "runjob <id>", Fn: d.runJob}
	}
	return cmds
}

func (d Deps) docTypes(_ context.Context, _ []string, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TYPE\tSTEPS\tNAVIGATION\tSOURCE")
	for _, def := range d.Registry.List() {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", def.Type, def.StepCount(), def.Navigation, def.Source)
	}
	return tw.Flush()
}

func (d Deps) reload(_ context.Context, _ []string, w io.Writer) error {
	n, err := d.Registry.Reload()
	d.Metrics.TemplatesReloaded(n, err)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "reloaded %d document types\n", n)
	return err
}

func (d Deps) sessions(ctx context.Context, _ []string, w io.Writer) error {
	n, err := d.Sessions.Count(ctx)
	if err != nil {
		return err
	}
	d.Metrics.SetWizardSessions(n)
	if d.Locks != nil {
		_, err = fmt.Fprintf(w, "%d wizard sessions, %d busy\n", n, d.Locks.Len())
		return err
	}
	_, err = fmt.Fprintf(w, "%d wizard sessions\n", n)
	return err
}

func (d Deps) throttle(_ context.Context, _ []string, w io.Writer) error {
	stats := d.Throttle.Stats()
	for _, id := range d.Throttle.GroupIDs() {
		if _, err := fmt.Fprintf(w, "%s: %d buckets\n", id, stats[id]); err != nil {
			return err
		}
	}
	return nil
}

func (d Deps) jobs(_ context.Context, _ []string, w io.Writer) error {
	for _, job := range d.Scheduler.CronJobs() {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", job.ID, job.Spec); err != nil {
			return err
		}
	}
	return nil
}

// runJob runs the job inline so the result reaches the caller.
func (d Deps) runJob(ctx context.Context, args []string, w io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: runjob <id>", errUsage)
	}
	for _, job := range d.Scheduler.CronJobs() {
		if job.ID != args[0] {
			continue
		}
		start := time.Now()
		if err := job.Task(ctx); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "%s done in %s\n", job.ID, time.Since(start).Round(time.Millisecond))
		return err
	}
	return fmt.Errorf("no job %q", args[0])
}
