// Package status turns playback changes into one-line status messages and
// fans them out to the log, the overlay and websocket listeners.
package status

import (
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog"
)

// Snapshot is what a status line is formatted from.
type Snapshot struct {
	State  string
	Track  string
	Index  int
	Tracks int
}

// Name returns the track's display name: no directory, no extension,
// underscores as spaces.
func (s Snapshot) Name() string {
	name := strings.TrimSuffix(path.Base(s.Track), path.Ext(s.Track))
	return strings.ReplaceAll(name, "_", " ")
}

type Sink interface {
	Report(line string)
}

// Multi reports to every non-nil sink in order.
type Multi []Sink

func (m Multi) Report(line string) {
	for _, s := range m {
		if s != nil {
			s.Report(line)
		}
	}
}

type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{log: logger.With().Str("component", "status").Logger()}
}

func (s *LogSink) Report(line string) {
	s.log.Info().Str("status", line).Msg("status changed")
}

type Formatter interface {
	Format(s Snapshot) (string, error)
}

// PlainFormatter is used when no script is configured or a script fails.
type PlainFormatter struct{}

func (PlainFormatter) Format(s Snapshot) (string, error) {
	if s.Track == "" {
		return s.State, nil
	}
	return fmt.Sprintf("%s: %s (%d/%d)", s.State, s.Name(), s.Index+1, s.Tracks), nil
}

// Reporter formats snapshots and forwards changed lines to a sink.
type Reporter struct {
	formatter Formatter
	sink      Sink
	log       zerolog.Logger
	last      string
}

func NewReporter(formatter Formatter, sink Sink, logger zerolog.Logger) *Reporter {
	if formatter == nil {
		formatter = PlainFormatter{}
	}
	return &Reporter{
		formatter: formatter,
		sink:      sink,
		log:       logger.With().Str("component", "status").Logger(),
	}
}

// SetFormatter swaps the formatter, falling back to PlainFormatter for nil.
func (r *Reporter) SetFormatter(f Formatter) {
	if f == nil {
		f = PlainFormatter{}
	}
	r.formatter = f
}

// Update formats s and reports it unless it matches the previous line.
func (r *Reporter) Update(s Snapshot) {
	line, err := r.formatter.Format(s)
	if err != nil || line == "" {
		if err != nil {
			r.log.Warn().Err(err).Msg("status script failed")
		}
		line, _ = PlainFormatter{}.Format(s)
	}
	if line == r.last {
		return
	}
	r.last = line
	if r.sink != nil {
		r.sink.Report(line)
	}
}

// Line returns the most recently reported line.
func (r *Reporter) Line() string {
	return r.last
}
