package posefeed

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"
)

// scriptedPort plays back a fixed byte script and then reports EOF,
// standing in for a GNSS receiver.
type scriptedPort struct {
	io.Reader
	closed bool
}

func newScriptedPort(lines ...string) *scriptedPort {
	return &scriptedPort{Reader: strings.NewReader(strings.Join(lines, "\r\n") + "\r\n")}
}

func (p *scriptedPort) Close() error {
	p.closed = true
	return nil
}

func fixedClock(nanos int64) func() time.Time {
	return func() time.Time { return time.Unix(0, nanos) }
}

func TestSerialSourceNext(t *testing.T) {
	port := newScriptedPort(
		// Valid fix moving east at 10 knots, one millidegree north of
		// the datum.
		"$GPRMC,170512.00,A,3932.3400,N,12219.8200,W,010.0,090.0,250826,,*2D",
		// Altitude arrives with the interleaved GGA.
		"$GPGGA,170513.00,3932.3410,N,12219.8200,W,1,09,1.1,120.5,M,-21.3,M,,*53",
	)
	src := NewSerialSource(port, Datum{Lat: 39.538, Lon: -122.331})
	src.now = fixedClock(42)

	first, err := src.Next()
	if err != nil {
		t.Fatalf("First Next failed: %v", err)
	}
	if first.TimeUnixNanos != 42 {
		t.Errorf("Expected receive-time stamp 42, got %d", first.TimeUnixNanos)
	}
	p := first.Pose.Position
	if math.Abs(p.X-57.169) > 0.01 || math.Abs(p.Y-111.195) > 0.01 {
		t.Errorf("First position = (%v, %v), want (~57.169, ~111.195)", p.X, p.Y)
	}
	if p.Z != 0 {
		t.Errorf("Expected zero altitude before any GGA, got %v", p.Z)
	}
	if math.Abs(first.SpeedMPS-5.14444) > 1e-9 {
		t.Errorf("Speed = %v, want 5.14444", first.SpeedMPS)
	}
	// Course 90 degrees true is due east, which is yaw 0 in the planar
	// frame.
	if math.Abs(first.Pose.Yaw()) > 1e-9 {
		t.Errorf("Yaw = %v, want 0", first.Pose.Yaw())
	}

	second, err := src.Next()
	if err != nil {
		t.Fatalf("Second Next failed: %v", err)
	}
	q := second.Pose.Position
	if math.Abs(q.Y-113.048) > 0.01 {
		t.Errorf("Second position y = %v, want ~113.048", q.Y)
	}
	if q.Z != 120.5 {
		t.Errorf("Expected altitude 120.5 from GGA, got %v", q.Z)
	}
	// GGA carries no motion data; the RMC state is carried forward.
	if math.Abs(second.SpeedMPS-5.14444) > 1e-9 {
		t.Errorf("Carried speed = %v, want 5.14444", second.SpeedMPS)
	}

	if _, err := src.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF after script, got %v", err)
	}
}

func TestSerialSourceSkipsBadLines(t *testing.T) {
	port := newScriptedPort(
		"",
		"garbage with no framing",
		// Checksum does not match the body.
		"$GPRMC,170512.00,A,3932.3400,N,12219.8200,W,010.0,090.0,250826,,*FF",
		// Valid frame but void status.
		"$GPRMC,170514.00,V,,,,,,,250826,,*12",
		// Finally a usable fix heading south at 5 knots.
		"$GPRMC,170515.00,A,3932.3400,N,12219.8200,W,005.0,180.0,250826,,*2E",
	)
	src := NewSerialSource(port, Datum{Lat: 39.538, Lon: -122.331})
	src.now = fixedClock(7)

	sample, err := src.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if math.Abs(sample.SpeedMPS-2.57222) > 1e-9 {
		t.Errorf("Speed = %v, want 2.57222", sample.SpeedMPS)
	}
	// Course 180 degrees true is due south, yaw -pi/2.
	if math.Abs(sample.Pose.Yaw()-(-math.Pi/2)) > 1e-9 {
		t.Errorf("Yaw = %v, want -pi/2", sample.Pose.Yaw())
	}
	// The garbage line and the bad-checksum line both count as drops.
	if src.skipped != 2 {
		t.Errorf("Expected 2 checksum drops counted, got %d", src.skipped)
	}

	if _, err := src.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF after script, got %v", err)
	}
}

func TestSerialSourceClose(t *testing.T) {
	port := newScriptedPort()
	src := NewSerialSource(port, Datum{})

	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !port.closed {
		t.Error("Expected underlying port to be closed")
	}
}

// readErrPort returns an error after its script is exhausted.
type readErrPort struct {
	io.Reader
	err error
}

func (p *readErrPort) Read(b []byte) (int, error) {
	n, err := p.Reader.Read(b)
	if err == io.EOF {
		return n, p.err
	}
	return n, err
}

func (p *readErrPort) Close() error { return nil }

func TestSerialSourceReadError(t *testing.T) {
	wantErr := errors.New("device unplugged")
	port := &readErrPort{Reader: strings.NewReader(""), err: wantErr}
	src := NewSerialSource(port, Datum{})

	_, err := src.Next()
	if err == nil || !errors.Is(err, wantErr) {
		t.Errorf("Expected wrapped read error, got %v", err)
	}
}
