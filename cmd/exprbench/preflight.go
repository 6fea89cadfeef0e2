package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	ps "github.com/mitchellh/go-ps"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/cosmikwolf/exprbench"
)

// Function substitutions for unit tests
var (
	listProcsF = ps.Processes
	getpidF    = os.Getpid
)

// warnCompetingProcs flags other running copies of this binary. Two
// harnesses on one host invalidate each other's measurements.
func warnCompetingProcs(argv0 string) {
	for _, p := range competingProcs(filepath.Base(argv0)) {
		logger.Warn().Msgf("another %s is running (pid %d); results may be noisy", p.Executable(), p.Pid())
	}
}

func competingProcs(exe string) []ps.Process {
	procList := exprbench.AssumeOnErr(listProcsF, []ps.Process{})

	competing := make([]ps.Process, 0)
	for _, p := range procList {
		if p.Pid() != getpidF() && strings.Contains(p.Executable(), exe) {
			competing = append(competing, p)
		}
	}
	return competing
}

func printHostInfo() {
	logger.Info().Int("CPUs", runtime.NumCPU()).Send()

	infos := exprbench.AssumeOnErr(func() ([]cpu.InfoStat, error) { return cpu.Info() }, []cpu.InfoStat{})
	if len(infos) > 0 {
		logger.Info().Msgf("CPU: %s @ %.0f MHz", infos[0].ModelName, infos[0].Mhz)
	}
}

// procCpuTime returns this process's cumulative CPU time (user +
// system) in seconds, as a cross-check against tick totals.
func procCpuTime() float64 {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0
	}
	times, err := proc.Times()
	if err != nil {
		return 0
	}
	return times.User + times.System
}
