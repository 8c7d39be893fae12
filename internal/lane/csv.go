package lane

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/lanetrack/internal/geom"
)

// Lane CSV column layout. A trailing change_flag column from older
// recorders is tolerated and ignored.
var csvHeader = []string{"x", "y", "z", "yaw", "velocity"}

// LoadCSV reads a lane from a waypoint CSV file with columns
// x,y,z,yaw,velocity (yaw in radians, velocity in m/s). A header row
// is detected and skipped. The lane name is derived from the file
// name. The loaded lane is validated before being returned.
func LoadCSV(path string) (*Lane, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lane file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read lane file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("lane file %s is empty", path)
	}

	start := 0
	if isHeaderRow(records[0]) {
		start = 1
	}

	l := &Lane{Name: laneNameFromPath(path)}
	for i, record := range records[start:] {
		line := start + i + 1
		if len(record) < 5 {
			return nil, fmt.Errorf("invalid record at line %d: expected at least 5 fields, got %d", line, len(record))
		}
		var vals [5]float64
		for j := 0; j < 5; j++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[j]), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s at line %d: %v", csvHeader[j], line, err)
			}
			vals[j] = v
		}
		l.Waypoints = append(l.Waypoints, Waypoint{
			Pose: geom.Pose{
				Position:    geom.Point{X: vals[0], Y: vals[1], Z: vals[2]},
				Orientation: geom.QuaternionFromYaw(vals[3]),
			},
			VelocityMPS: vals[4],
		})
	}

	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// SaveCSV writes the lane as a waypoint CSV file with a header row.
// Yaw is taken from the stored orientation.
func (l *Lane) SaveCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create lane file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write lane header: %w", err)
	}
	for _, wp := range l.Waypoints {
		record := []string{
			formatFloat(wp.Pose.Position.X),
			formatFloat(wp.Pose.Position.Y),
			formatFloat(wp.Pose.Position.Z),
			formatFloat(wp.Pose.Orientation.Yaw()),
			formatFloat(wp.VelocityMPS),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write lane record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush lane file: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// isHeaderRow reports whether the first field fails to parse as a
// number, which marks a header row.
func isHeaderRow(record []string) bool {
	if len(record) == 0 {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
	return err != nil
}

func laneNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
