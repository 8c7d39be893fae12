package posefeed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/lanetrack/internal/geom"
)

// Pose log CSV column layout. The speed column is optional; logs from
// position-only recorders carry five columns.
var csvHeader = []string{"t", "x", "y", "z", "yaw", "speed_mps"}

// CSVSource streams samples from a pose log CSV file with columns
// t,x,y,z,yaw[,speed_mps] (t in unix nanoseconds, yaw in radians,
// speed in m/s). A header row is detected and skipped.
type CSVSource struct {
	file   *os.File
	reader *csv.Reader
	line   int
}

// OpenCSV opens a pose log for streaming.
func OpenCSV(path string) (*CSVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pose log: %w", err)
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	return &CSVSource{file: file, reader: reader}, nil
}

// Next returns the next sample, or io.EOF at end of file.
func (s *CSVSource) Next() (Sample, error) {
	for {
		record, err := s.reader.Read()
		if err == io.EOF {
			return Sample{}, io.EOF
		}
		if err != nil {
			return Sample{}, fmt.Errorf("read pose log: %w", err)
		}
		s.line++

		if s.line == 1 && isHeaderRow(record) {
			continue
		}

		if len(record) < 5 {
			return Sample{}, fmt.Errorf("invalid record at line %d: expected at least 5 fields, got %d", s.line, len(record))
		}

		t, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			return Sample{}, fmt.Errorf("invalid t at line %d: %v", s.line, err)
		}

		var vals [4]float64
		for j := 0; j < 4; j++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[j+1]), 64)
			if err != nil {
				return Sample{}, fmt.Errorf("invalid %s at line %d: %v", csvHeader[j+1], s.line, err)
			}
			vals[j] = v
		}

		speed := 0.0
		if len(record) >= 6 {
			speed, err = strconv.ParseFloat(strings.TrimSpace(record[5]), 64)
			if err != nil {
				return Sample{}, fmt.Errorf("invalid speed_mps at line %d: %v", s.line, err)
			}
		}

		return Sample{
			TimeUnixNanos: t,
			Pose: geom.Pose{
				Position:    geom.Point{X: vals[0], Y: vals[1], Z: vals[2]},
				Orientation: geom.QuaternionFromYaw(vals[3]),
			},
			SpeedMPS: speed,
		}, nil
	}
}

// Close closes the underlying file.
func (s *CSVSource) Close() error {
	return s.file.Close()
}

func isHeaderRow(record []string) bool {
	if len(record) == 0 {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
	return err != nil
}

// CSVWriter writes samples to a pose log CSV file with a header row.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

// CreateCSV creates (truncating) a pose log at path.
func CreateCSV(path string) (*CSVWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create pose log: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		file.Close()
		return nil, fmt.Errorf("write pose log header: %w", err)
	}
	return &CSVWriter{file: file, writer: writer}, nil
}

// Write appends one sample.
func (w *CSVWriter) Write(s Sample) error {
	record := []string{
		strconv.FormatInt(s.TimeUnixNanos, 10),
		strconv.FormatFloat(s.Pose.Position.X, 'g', -1, 64),
		strconv.FormatFloat(s.Pose.Position.Y, 'g', -1, 64),
		strconv.FormatFloat(s.Pose.Position.Z, 'g', -1, 64),
		strconv.FormatFloat(s.Pose.Yaw(), 'g', -1, 64),
		strconv.FormatFloat(s.SpeedMPS, 'g', -1, 64),
	}
	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("write pose log record: %w", err)
	}
	return nil
}

// Close flushes buffered records and closes the file.
func (w *CSVWriter) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("flush pose log: %w", err)
	}
	return w.file.Close()
}
