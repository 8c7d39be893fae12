package posefeed

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/banshee-data/lanetrack/internal/geom"
	"github.com/banshee-data/lanetrack/internal/monitoring"
)

// One warning per this many dropped sentences keeps a flaky wire from
// flooding the log.
const checksumWarnEvery = 100

// SerialPort is the minimal surface of a GNSS serial device the feed
// reads. go.bug.st/serial.Port satisfies it; tests substitute an
// in-memory script.
type SerialPort interface {
	io.Reader
	io.Closer
}

// SerialSource reads NMEA sentences from a serial port and yields one
// sample per valid position fix. RMC sentences refresh speed and
// course, GGA sentences refresh altitude; either kind carries a
// position.
type SerialSource struct {
	port    SerialPort
	scanner *bufio.Scanner
	datum   Datum
	now     func() time.Time

	speedMPS float64
	yaw      float64
	altitude float64
	skipped  int
}

// OpenSerial opens the GNSS device at path with the given baud rate.
// GNSS receivers are read-only from our side; no commands are sent.
func OpenSerial(device string, baud int, datum Datum) (*SerialSource, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial device %s: %w", device, err)
	}
	return NewSerialSource(port, datum), nil
}

// NewSerialSource wraps an already-open port.
func NewSerialSource(port SerialPort, datum Datum) *SerialSource {
	return &SerialSource{
		port:    port,
		scanner: bufio.NewScanner(port),
		datum:   datum,
		now:     time.Now,
	}
}

// Next blocks until the port produces a sentence with a usable
// position, then returns it as a sample stamped with the receive time.
// Sentences failing the checksum are counted and skipped. Returns
// io.EOF once the port stops producing data.
func (s *SerialSource) Next() (Sample, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		if !checksumOK(line) {
			s.skipped++
			if s.skipped%checksumWarnEvery == 1 {
				monitoring.Logf("[PoseFeed] dropped %d serial sentences with bad checksums", s.skipped)
			}
			continue
		}
		f, ok := parseSentence(line)
		if !ok {
			continue
		}

		if f.hasSpeed {
			s.speedMPS = f.speedMPS
		}
		if f.hasCourse {
			// Course is degrees clockwise from north; the planar frame
			// measures yaw counterclockwise from east.
			s.yaw = geom.NormalizeAngle(geom.Deg2Rad(90 - f.courseDeg))
		}
		if f.hasAlt {
			s.altitude = f.altitude
		}

		x, y := s.datum.Project(f.lat, f.lon)
		return Sample{
			TimeUnixNanos: s.now().UnixNano(),
			Pose: geom.Pose{
				Position:    geom.Point{X: x, Y: y, Z: s.altitude},
				Orientation: geom.QuaternionFromYaw(s.yaw),
			},
			SpeedMPS: s.speedMPS,
		}, nil
	}
	if err := s.scanner.Err(); err != nil {
		return Sample{}, fmt.Errorf("read serial: %w", err)
	}
	return Sample{}, io.EOF
}

// Close closes the underlying port, which also unblocks a pending Next.
func (s *SerialSource) Close() error {
	return s.port.Close()
}
