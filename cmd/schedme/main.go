// Command schedme runs a workload through the scheduling engine and writes
// the resulting Gantt timeline.
//
// Usage:
//
//	schedme [flags] <policy> <input-file>
//
// policy is 0 (FCFS), 1 (SRTF) or 2 (MLFQ), or the policy name. The timeline
// is written to <out>/gantt-<policy>-<basename(input-file)>.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/utkarsh5026/schedme/internal/driver"
	"github.com/utkarsh5026/schedme/internal/gantt"
	"github.com/utkarsh5026/schedme/internal/report"
	"github.com/utkarsh5026/schedme/internal/script"
	"github.com/utkarsh5026/schedme/sched"
)

var (
	bold  = color.New(color.Bold)
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed)
)

type options struct {
	out       string
	sems      int
	quanta    string
	pin       bool
	lock      bool
	replay    float64
	progress  bool
	summary   bool
	logLevel  string
	plain     bool
	policyArg string
	input     string
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		red.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		red.Fprintf(os.Stderr, "schedme: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("schedme", flag.ContinueOnError)
	fs.StringVar(&opts.out, "out", "output", "directory for the Gantt file")
	fs.IntVar(&opts.sems, "sems", 10, "number of semaphores")
	fs.StringVar(&opts.quanta, "quanta", "", "comma separated MLFQ quanta for the five levels (default 5,10,15,20,25)")
	fs.BoolVar(&opts.lock, "lock", false, "lock every worker to its own OS thread")
	fs.BoolVar(&opts.pin, "pin", false, "lock every worker to an OS thread pinned to a core")
	fs.Float64Var(&opts.replay, "replay", 0, "replay the timeline on stdout at this many ticks per second (0 = off)")
	fs.BoolVar(&opts.progress, "progress", false, "show a progress bar over engine calls")
	fs.BoolVar(&opts.summary, "summary", false, "print per-worker statistics")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	fs.BoolVar(&opts.plain, "plain", false, "disable colours")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: schedme [flags] <policy> <input-file>")
		fmt.Fprintln(fs.Output(), "  policy: 0 - First Come, First Served")
		fmt.Fprintln(fs.Output(), "  policy: 1 - Shortest Remaining Time First")
		fmt.Fprintln(fs.Output(), "  policy: 2 - Multi-Level Feedback Queue")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return nil, errors.New("expected <policy> <input-file>")
	}
	opts.policyArg, opts.input = fs.Arg(0), fs.Arg(1)
	return opts, nil
}

func parseQuanta(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	quanta := make([]int, 0, len(parts))
	for _, p := range parts {
		q, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || q <= 0 {
			return nil, fmt.Errorf("invalid quantum %q", p)
		}
		quanta = append(quanta, q)
	}
	if len(quanta) != 5 {
		return nil, fmt.Errorf("expected 5 quanta, got %d", len(quanta))
	}
	return quanta, nil
}

func run(ctx context.Context, opts *options) error {
	color.NoColor = color.NoColor || opts.plain

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: opts.plain, FullTimestamp: true})
	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	policy, err := sched.ParsePolicy(opts.policyArg)
	if err != nil {
		return err
	}
	quanta, err := parseQuanta(opts.quanta)
	if err != nil {
		return err
	}
	workers, err := script.ParseFile(opts.input)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"policy":  policy,
		"workers": len(workers),
		"input":   opts.input,
	}).Info("starting run")

	engineOpts := []sched.Option{
		sched.WithSemaphoreCount(opts.sems),
		sched.WithLogger(logger),
	}
	if quanta != nil {
		engineOpts = append(engineOpts, sched.WithMLFQQuanta(quanta...))
	}
	eng, err := sched.New(policy, len(workers), engineOpts...)
	if err != nil {
		return err
	}

	driverOpts := []driver.Option{driver.WithLogger(logger)}
	switch {
	case opts.pin:
		driverOpts = append(driverOpts, driver.WithPinning())
	case opts.lock:
		driverOpts = append(driverOpts, driver.WithThreadLocking())
	}

	var bar *progressbar.ProgressBar
	if opts.progress {
		bar = newProgressBar(script.CallCount(workers))
		driverOpts = append(driverOpts, driver.WithProgress(func() { _ = bar.Add(1) }))
	}

	start := time.Now()
	res, err := driver.Run(ctx, eng, workers, driverOpts...)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}
	if err := eng.Close(); err != nil {
		return err
	}

	path, err := gantt.WriteFile(opts.out, opts.policyArg, opts.input, res.Timeline)
	if err != nil {
		return err
	}

	cpuTick, ioTick := eng.Now()
	logger.WithFields(logrus.Fields{
		"entries":  len(res.Timeline),
		"cpu_tick": cpuTick,
		"io_tick":  ioTick,
		"elapsed":  time.Since(start).Round(time.Microsecond),
	}).Info("run complete")
	green.Printf("Output file: %s\n", path)

	if opts.replay > 0 {
		fmt.Println()
		bold.Println("Timeline")
		if err := gantt.Replay(ctx, os.Stdout, res.Timeline, opts.replay); err != nil {
			return err
		}
	}

	if opts.summary {
		fmt.Println()
		bold.Printf("Summary (%s)\n", policy)
		stats := report.Summarize(workers, res.Timeline)
		if err := report.Render(os.Stdout, stats, !opts.plain); err != nil {
			return err
		}
		turnaround, response := report.Averages(stats)
		fmt.Printf("average turnaround %.2f, average response %.2f\n", turnaround, response)
	}
	return nil
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Simulating"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
