package console

import (
	"bytes"
	"io"

	"github.com/zjrosen/scoutcon/internal/log"
	"github.com/zjrosen/scoutcon/internal/pubsub"
	"github.com/zjrosen/scoutcon/internal/scout"
)

// DefaultLogBufferSize is how many bytes one drain asks the library for.
const DefaultLogBufferSize = 64 * 1024

// Drainer copies pending library log output to the console.
type Drainer struct {
	facility scout.Facility
	out      io.Writer
	lines    pubsub.Publisher[string]
	buf      []byte
}

// NewDrainer returns a Drainer with a size-byte buffer. lines may be nil.
func NewDrainer(f scout.Facility, out io.Writer, lines pubsub.Publisher[string], size int) *Drainer {
	if size <= 0 {
		size = DefaultLogBufferSize
	}
	return &Drainer{facility: f, out: out, lines: lines, buf: make([]byte, size)}
}

// Drain fetches once and writes each line. It returns the number of lines.
// A non-positive fetch result is "nothing or error"; both are ignored.
func (d *Drainer) Drain() int {
	n := d.facility.FetchLogEntries(d.buf)
	if n <= 0 {
		return 0
	}
	if n > len(d.buf) {
		n = len(d.buf)
	}

	count := 0
	data := d.buf[:n]
	for len(data) > 0 {
		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			line, data = data, nil
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})

		text := string(line)
		if _, err := io.WriteString(d.out, text+"\n"); err != nil {
			log.ErrorErr(log.CatConsole, "write log line", err)
		}
		if d.lines != nil {
			d.lines.Publish(pubsub.LogLineEvent, text)
		}
		count++
	}
	return count
}
