// Package exprbench benchmarks numeric workloads against the hardware
// tick timer and compares run series statistically.
package exprbench

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/cosmikwolf/exprbench/hwtimer"
	"github.com/ericlagergren/decimal"
)

// Statistics for running one task, in timer ticks
type RunStats struct {
	Count          int      `json:"count"`
	TotalTicks     uint64   `json:"sum_ticks"`
	AvgTicks       float64  `json:"avg_ticks"`
	MinTicks       uint32   `json:"min_ticks"`
	MaxTicks       uint32   `json:"max_ticks"`
	MedTicks       uint32   `json:"med_ticks"`
	StdDev         float64  `json:"stdev_ticks"`
	Fails          int      `json:"fails"`
	ShortIntervals uint32   `json:"short_intervals"`
	Repairs        uint32   `json:"repairs"`
	Values         []uint32 `json:"ticks"`
}

// Generic test task
type TestTask func() error

type taskFixture struct {
	task           TestTask
	ticks          []uint32
	fails          int
	shortIntervals uint32
	repairs        uint32
}

// No data struct
var ND = struct{}{}

// Timer health check cadence inside the run loop
const checkStride = 64

// Runs each task runsPerTask times against the tick timer and returns
// per-task statistics.
//
// There is one hardware timer and its session surface is
// single-threaded, so tasks run serially in submission order. The
// timer health check runs every checkStride iterations; runs whose
// interval spanned a repair are still reported, with the per-task
// repair count as the reliability signal.
func RunBench(drv *hwtimer.Driver, tasks []TestTask, runsPerTask int) ([]RunStats, error) {
	if len(tasks) == 0 || runsPerTask < 1 {
		return nil, errors.New("nothing to run")
	}

	fixtures := make([]*taskFixture, len(tasks))
	for i, task := range tasks {
		fixtures[i] = &taskFixture{task: task, ticks: make([]uint32, 0, runsPerTask)}
	}

	iter := 0
	for _, fixture := range fixtures {
		shortBase := drv.ShortIntervals()
		repairBase := drv.Repairs()

		for i := 0; i < runsPerTask; i++ {
			if iter%checkStride == 0 {
				drv.Check()
			}
			iter++

			drv.Start()
			err := fixture.task()
			ticks := drv.Stop()

			fixture.ticks = append(fixture.ticks, ticks)
			if err != nil {
				fixture.fails++
			}
		}

		fixture.shortIntervals = drv.ShortIntervals() - shortBase
		fixture.repairs = drv.Repairs() - repairBase
	}

	return calcStats(fixtures), nil
}

func calcStats(fixtures []*taskFixture) []RunStats {
	ret := make([]RunStats, 0, len(fixtures))

	precCtx := decimal.Context128
	for _, fixture := range fixtures {
		sortticks := make([]uint32, len(fixture.ticks))
		copy(sortticks, fixture.ticks)
		sort.Slice(sortticks, func(i, j int) bool { return sortticks[i] < sortticks[j] })

		sum := new(decimal.Big)
		sum2 := new(decimal.Big)
		bigT := new(decimal.Big)
		for _, t := range sortticks {
			bigT.SetUint64(uint64(t))
			precCtx.Add(sum, sum, bigT)
			precCtx.Add(sum2, sum2, bigT.Mul(bigT, bigT))
		}

		testCount := len(sortticks)
		var testStats RunStats
		testStats.Count = testCount
		testStats.TotalTicks = uint64(big2float(sum))
		testStats.AvgTicks = big2float(sum) / float64(testCount)
		testStats.MinTicks = sortticks[0]
		testStats.MedTicks = sortticks[testCount/2]
		testStats.MaxTicks = sortticks[testCount-1]
		fCount := float64(testCount)
		if testCount > 1 {
			testStats.StdDev = math.Sqrt(big2float(sum2)/(fCount-1) - big2float(sum)*big2float(sum)/fCount/(fCount-1))
		}

		testStats.Fails = fixture.fails
		testStats.ShortIntervals = fixture.shortIntervals
		testStats.Repairs = fixture.repairs
		testStats.Values = fixture.ticks

		ret = append(ret, testStats)
	}
	return ret
}

// Compares two series of runs and calculates probabilities that tick
// counts in the second series are larger, using t-test statistics.
//
// Statistics "stats1" and "stats2" should cover the same tasks; run
// counts in task pairs are not required to be equal, but they should
// be larger than 1.
func CalcPvals(stats1, stats2 []RunStats) ([]float64, error) {
	if len(stats1) != len(stats2) {
		return nil, errors.New("different size of tasks")
	}

	pVals := make([]float64, 0, len(stats1))
	for i := range stats1 {
		tSample1 := tickStat2Tstat(stats1[i])
		tSample2 := tickStat2Tstat(stats2[i])

		tRes, err := TwoSampleTTest(tSample1, tSample2, LocationGreater)
		if err != nil {
			return nil, fmt.Errorf("invalid statistics data in sample %d: %v", i, err)
		}

		pVals = append(pVals, tRes.P)
	}

	return pVals, nil
}

func big2float(val *decimal.Big) float64 {
	conv, _ := val.Float64()
	return conv
}

// Aid fo unexpected errors without recovery
func AssertNoErr[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// Recover from error - assume default value
func AssumeOnErr[T any](f func() (T, error), defVal T) T {
	val, err := f()
	if err != nil {
		print(err.Error())
		return defVal
	}
	return val
}
