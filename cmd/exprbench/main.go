package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aknopov/fancylogger"
	"github.com/cosmikwolf/exprbench"
	"github.com/cosmikwolf/exprbench/hostclock"
	"github.com/cosmikwolf/exprbench/hwtimer"
	"github.com/cosmikwolf/exprbench/report"
	"github.com/cosmikwolf/exprbench/simtimer"
	"github.com/cosmikwolf/exprbench/workload"
)

var (
	logger = fancylogger.NewLogger(os.Stderr, fancylogger.LiteFg)
)

type options struct {
	runs      int
	size      int
	rate      float64
	workloads []string
	pvals     bool
	raw       bool
}

func main() {
	opts, err := parseArgs(os.Args)
	if err != nil {
		if err.Error() != "flag: help requested" {
			fmt.Fprintf(os.Stderr, "Error: %s\n\n", err)
		}
		os.Exit(1)
	}

	warnCompetingProcs(os.Args[0])
	printHostInfo()

	drv, err := setupTimer(opts.rate)
	if err != nil {
		logger.Error().Msgf("timer bring-up failed: %v", err)
		os.Exit(1)
	}

	tasks, names := buildTasks(opts)

	cpuBefore := procCpuTime()
	startTime := time.Now()
	stats := exprbench.AssertNoErr(exprbench.RunBench(drv, tasks, opts.runs))
	elapsedTime := time.Since(startTime)
	cpuAfter := procCpuTime()

	report.PrintHeader(os.Stdout)
	for i, name := range names {
		report.PrintRow(os.Stdout, name, stats[i])
	}
	if opts.raw {
		for i, name := range names {
			report.PrintRaw(os.Stdout, name, stats[i])
		}
	}

	logger.Info().Msgf("Suite finished: %d workloads x %d runs", len(names), opts.runs)
	logger.Info().Dur("  wall time", elapsedTime).Send()
	logger.Info().Float64("  process CPU (s)", cpuAfter-cpuBefore).Send()
	logger.Info().Int64("  clock read overhead (ns)", hostclock.Overhead()).Send()
	logger.Info().Uint32("  timer overflows", drv.Overflows()).Send()
	logger.Info().Uint32("  timer repairs", drv.Repairs()).Send()
	logger.Info().Uint32("  saturated stops", drv.Saturations()).Send()

	if opts.pvals {
		printPvals(drv, tasks, names, stats, opts.runs)
	}
}

func parseArgs(args []string) (*options, error) {
	progName := filepath.Base(args[0])
	flagSet := flag.NewFlagSet(progName, flag.ContinueOnError)
	flagSet.Usage = func() { usage(flagSet) }

	var opts options
	var workloads string
	flagSet.IntVar(&opts.runs, "runs", 500, "")
	flagSet.IntVar(&opts.size, "size", 1000, "")
	flagSet.Float64Var(&opts.rate, "rate", 1.0, "")
	flagSet.BoolVar(&opts.pvals, "pvals", false, "")
	flagSet.BoolVar(&opts.raw, "r", false, "")
	flagSet.StringVar(&workloads, "workloads", strings.Join(workload.Names(), ","), "")

	if err := flagSet.Parse(args[1:]); err != nil {
		return nil, err
	}

	for _, name := range strings.Split(workloads, ",") {
		if name = strings.TrimSpace(name); name != "" {
			opts.workloads = append(opts.workloads, name)
		}
	}
	return &opts, nil
}

func usage(flagSet *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, "Benchmarks numeric workloads against the tick timer")
	fmt.Fprintf(os.Stderr, "Usage: %s -runs=... -size=... -workloads=...\n", flagSet.Name())
	fmt.Fprintln(os.Stderr, "  -runs - measured runs per workload (default 500)")
	fmt.Fprintln(os.Stderr, "  -size - workload problem size (default 1000)")
	fmt.Fprintln(os.Stderr, "  -rate - timer ticks per nanosecond (default 1.0)")
	fmt.Fprintln(os.Stderr, "  -workloads - comma separated list of")
	for _, name := range workload.Names() {
		fmt.Fprintf(os.Stderr, "    %s\n", name)
	}
	fmt.Fprintln(os.Stderr, "  -pvals - run a second pass and report t-test p-values")
	fmt.Fprintln(os.Stderr, "  -r - print raw tick counts")
}

// setupTimer brings up the driver on a host-clock device model.
func setupTimer(rate float64) (*hwtimer.Driver, error) {
	dev := simtimer.NewHostDevice(hwtimer.PrimaryBase, hwtimer.FallbackBase, rate)
	drv := hwtimer.NewDriver(dev)
	if err := drv.Init(); err != nil {
		return nil, err
	}
	return drv, nil
}

func buildTasks(opts *options) ([]exprbench.TestTask, []string) {
	tasks := make([]exprbench.TestTask, 0, len(opts.workloads))
	names := make([]string, 0, len(opts.workloads))
	for _, name := range opts.workloads {
		factory, err := workload.Lookup(name)
		if err != nil {
			logger.Warn().Msgf("skipping: %v", err)
			continue
		}
		tasks = append(tasks, exprbench.TestTask(factory(opts.size)))
		names = append(names, name)
	}
	return tasks, names
}

func printPvals(drv *hwtimer.Driver, tasks []exprbench.TestTask, names []string, first []exprbench.RunStats, runs int) {
	second := exprbench.AssertNoErr(exprbench.RunBench(drv, tasks, runs))
	pVals, err := exprbench.CalcPvals(first, second)
	if err != nil {
		logger.Warn().Msgf("p-values unavailable: %v", err)
		return
	}
	logger.Info().Msg("P(second pass slower), per workload:")
	for i, name := range names {
		logger.Info().Float64("  "+name, pVals[i]).Send()
	}
}
