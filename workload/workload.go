// Package workload provides the built-in numeric workloads the timer
// harness measures.
package workload

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ericlagergren/decimal"
)

// Sink defeats constant folding and dead-code elimination of the
// workload bodies.
var Sink float64

// A Task runs one sized workload iteration.
type Task func() error

// Factory builds a task for the given problem size.
type Factory func(size int) Task

var registry = map[string]Factory{
	"horner":    Horner,
	"sinser":    SineSeries,
	"mandel":    Mandelbrot,
	"flinthill": FlintHills,
}

// Names lists the registered workloads in stable order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a registered workload by name.
func Lookup(name string) (Factory, error) {
	factory, ok := registry[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("unknown workload %q (have %s)", name, strings.Join(Names(), ", "))
	}
	return factory, nil
}

// Horner evaluates a dense polynomial of the given degree by Horner's
// rule at a sweep of points.
func Horner(size int) Task {
	coeffs := make([]float64, size+1)
	for i := range coeffs {
		coeffs[i] = 1.0 / float64(i+1)
	}
	return func() error {
		acc := 0.0
		for p := 0; p < 100; p++ {
			x := 0.01 * float64(p)
			v := 0.0
			for _, c := range coeffs {
				v = v*x + c
			}
			acc += v
		}
		Sink += acc
		return nil
	}
}

// SineSeries sums the Taylor series of sine to "size" terms over a
// sweep of arguments, without calling math.Sin.
func SineSeries(size int) Task {
	return func() error {
		acc := 0.0
		for p := 1; p <= 100; p++ {
			x := float64(p) * 0.0314
			term := x
			sum := x
			for n := 1; n <= size; n++ {
				term *= -x * x / float64(2*n*(2*n+1))
				sum += term
			}
			acc += sum
		}
		Sink += acc
		return nil
	}
}

// Mandelbrot counts escape iterations on a small grid with iteration
// cap "size".
func Mandelbrot(size int) Task {
	return func() error {
		escaped := 0
		for i := 0; i < 32; i++ {
			for j := 0; j < 32; j++ {
				cr := -2.0 + 2.5*float64(i)/32
				ci := -1.25 + 2.5*float64(j)/32
				zr, zi := 0.0, 0.0
				n := 0
				for ; n < size && zr*zr+zi*zi <= 4; n++ {
					zr, zi = zr*zr-zi*zi+cr, 2*zr*zi+ci
				}
				escaped += n
			}
		}
		Sink += float64(escaped)
		return nil
	}
}

// FlintHills sums the first "size" terms of the Flint Hills series
// (https://arxiv.org/abs/1104.5100) in 128-bit decimal arithmetic.
func FlintHills(size int) Task {
	ctx := decimal.Context128
	return func() error {
		one := decimal.New(1, 0)
		bN := decimal.New(int64(size), 0)
		bI := new(decimal.Big)
		term := new(decimal.Big)
		sum := new(decimal.Big)
		for bI.SetUint64(1); bI.Cmp(bN) <= 0; bI.Add(bI, one) {
			ctx.Sin(term, bI)
			ctx.Mul(term, term, bI)
			ctx.Mul(term, term, term)
			ctx.Mul(term, term, bI)
			ctx.Quo(term, one, term)
			ctx.Add(sum, sum, term)
		}
		val, _ := sum.Float64()
		if math.IsNaN(val) {
			return errors.New("flint hills sum diverged")
		}
		Sink += val
		return nil
	}
}
