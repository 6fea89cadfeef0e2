package exprbench

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cosmikwolf/exprbench/hwtimer"
	"github.com/cosmikwolf/exprbench/simtimer"
)

const (
	TotalRuns = 25
)

var (
	errTest = errors.New("test error")
)

func hostDriver(t *testing.T) *hwtimer.Driver {
	t.Helper()

	dev := simtimer.NewHostDevice(hwtimer.PrimaryBase, hwtimer.FallbackBase, 1.0)
	drv := hwtimer.NewDriver(dev)
	drv.SetDiagSink(io.Discard)
	if err := drv.Init(); err != nil {
		t.Fatalf("timer bring-up failed: %v", err)
	}
	return drv
}

func spinTask() error {
	acc := 0.0
	for i := 1; i < 20000; i++ {
		acc += 1 / float64(i)
	}
	if acc < 0 {
		return errTest
	}
	return nil
}

func TestRunBenchStats(t *testing.T) {
	assertT := assert.New(t)

	drv := hostDriver(t)
	tasks := []TestTask{spinTask, func() error { return errTest }}

	stats, err := RunBench(drv, tasks, TotalRuns)
	assertT.NoError(err)
	assertT.Equal(2, len(stats))

	spinStat := stats[0]
	assertT.Equal(TotalRuns, spinStat.Count)
	assertT.Equal(TotalRuns, len(spinStat.Values))
	assertT.Zero(spinStat.Fails)
	assertT.Positive(spinStat.TotalTicks)
	assertT.LessOrEqual(spinStat.MinTicks, spinStat.MedTicks)
	assertT.LessOrEqual(spinStat.MedTicks, spinStat.MaxTicks)
	assertT.InDelta(float64(spinStat.TotalTicks)/float64(TotalRuns), spinStat.AvgTicks, 1.0)

	assertT.Equal(TotalRuns, stats[1].Fails)
}

func TestRunBenchRejectsEmpty(t *testing.T) {
	assertT := assert.New(t)

	drv := hostDriver(t)

	_, err := RunBench(drv, nil, TotalRuns)
	assertT.Error(err)
	_, err = RunBench(drv, []TestTask{spinTask}, 0)
	assertT.Error(err)
}

func TestCalcPvals(t *testing.T) {
	assertT := assert.New(t)

	fast := RunStats{Count: 30, AvgTicks: 1000, StdDev: 50}
	slow := RunStats{Count: 30, AvgTicks: 2000, StdDev: 60}

	pVals, err := CalcPvals([]RunStats{fast}, []RunStats{slow})
	assertT.NoError(err)
	assertT.Equal(1, len(pVals))
	// second series is clearly slower
	assertT.Greater(pVals[0], 0.99)

	pVals, err = CalcPvals([]RunStats{slow}, []RunStats{fast})
	assertT.NoError(err)
	assertT.Less(pVals[0], 0.01)
}

func TestCalcPvalsMismatch(t *testing.T) {
	assertT := assert.New(t)

	_, err := CalcPvals([]RunStats{{}}, []RunStats{{}, {}})
	assertT.ErrorContains(err, "different size")
}

func TestTickStatBridge(t *testing.T) {
	assertT := assert.New(t)

	rs := RunStats{Count: 10, AvgTicks: 1234.5, StdDev: 6.5}
	ts := tickStat2Tstat(rs)
	assertT.EqualValues(10, ts.weight)
	assertT.Equal(1234.5, ts.mean)
	assertT.Equal(6.5*6.5, ts.variance)
}
