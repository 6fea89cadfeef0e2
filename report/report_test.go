package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cosmikwolf/exprbench"
)

func TestPrintHeader(t *testing.T) {
	assertT := assert.New(t)

	outStream, outC := CreateStream()
	PrintHeader(outStream)
	output := ReadStream(outStream, outC)

	assertT.Contains(output, "workload")
	assertT.Contains(output, "avg ticks")
	assertT.Contains(output, "repairs")
}

func TestPrintRow(t *testing.T) {
	assertT := assert.New(t)

	stats := exprbench.RunStats{
		Count:    100,
		AvgTicks: 1234.5,
		MedTicks: 1200,
		MinTicks: 1000,
		MaxTicks: 2000,
		StdDev:   42.5,
		Fails:    1,
	}

	outStream, outC := CreateStream()
	PrintRow(outStream, "horner", stats)
	output := ReadStream(outStream, outC)

	assertT.Contains(output, "horner")
	assertT.Contains(output, "1234.5")
	assertT.Contains(output, "2000")
}

func TestPrintRaw(t *testing.T) {
	assertT := assert.New(t)

	stats := exprbench.RunStats{Values: []uint32{11, 22, 33}}

	outStream, outC := CreateStream()
	PrintRaw(outStream, "mandel", stats)
	output := ReadStream(outStream, outC)

	assertT.Contains(output, "mandel")
	assertT.Contains(output, "22")
}
