package main

import (
	"flag"
	"os"

	"github.com/aknopov/fancylogger"
	"github.com/cosmikwolf/exprbench/hwtimer"
	"github.com/cosmikwolf/exprbench/simtimer"
)

// BenchRequest names a workload to run; Runs == -1 stops the server.
type BenchRequest struct {
	Workload string `json:"workload"`
	Runs     int    `json:"runs"`
	Size     int    `json:"size"`
}

const (
	Port = 8080
)

var (
	logger = fancylogger.NewLogger(os.Stderr, fancylogger.LiteFg)
)

func main() {
	rate := flag.Float64("rate", 1.0, "timer ticks per nanosecond")
	flag.Parse()

	dev := simtimer.NewHostDevice(hwtimer.PrimaryBase, hwtimer.FallbackBase, *rate)
	drv := hwtimer.NewDriver(dev)
	if err := drv.Init(); err != nil {
		logger.Error().Msgf("timer bring-up failed: %v", err)
		os.Exit(1)
	}

	startGin(Port, drv)
}
