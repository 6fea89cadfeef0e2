package report

import (
	"bytes"
	"io"
	"os"
)

// Creates memory-based file for capturing table output in tests
func CreateStream() (*os.File, chan string) {
	r, outStream, _ := os.Pipe()

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	return outStream, outC
}

// Reads back everything written to a stream from CreateStream
func ReadStream(outStream *os.File, outC chan string) string {
	outStream.Close()

	output := <-outC
	return output
}
