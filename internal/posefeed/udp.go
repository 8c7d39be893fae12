package posefeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/banshee-data/lanetrack/internal/geom"
	"github.com/banshee-data/lanetrack/internal/monitoring"
)

// Channel slack between the socket and the tracking loop.
const udpSampleBuffer = 64

// UDPConfig contains configuration options for the telemetry listener.
type UDPConfig struct {
	Address string // host:port to bind
	RcvBuf  int    // socket receive buffer in bytes, 0 keeps the OS default
}

// UDPListener receives newline-delimited JSON pose telemetry datagrams
// and republishes the decoded samples on a channel.
type UDPListener struct {
	address string
	rcvBuf  int
	conn    *net.UDPConn
	samples chan Sample
}

// NewUDPListener creates a listener with the provided configuration.
func NewUDPListener(config UDPConfig) *UDPListener {
	return &UDPListener{
		address: config.Address,
		rcvBuf:  config.RcvBuf,
		samples: make(chan Sample, udpSampleBuffer),
	}
}

// Samples returns the channel Start publishes to. The channel is closed
// when Start returns, so ChanSource consumers see io.EOF on shutdown.
func (l *UDPListener) Samples() <-chan Sample {
	return l.samples
}

// Start binds the socket and receives datagrams until ctx is cancelled.
func (l *UDPListener) Start(ctx context.Context) error {
	defer close(l.samples)

	addr, err := net.ResolveUDPAddr("udp", l.address)
	if err != nil {
		return fmt.Errorf("resolve UDP address: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("listen on UDP address: %w", err)
	}
	l.conn = conn
	defer conn.Close()

	if l.rcvBuf > 0 {
		if err := conn.SetReadBuffer(l.rcvBuf); err != nil {
			monitoring.Logf("[PoseFeed] failed to set UDP receive buffer to %d: %v", l.rcvBuf, err)
		}
	}
	monitoring.Logf("[PoseFeed] UDP listener started on %s", conn.LocalAddr())

	buffer := make([]byte, 2048) // a telemetry datagram is a handful of JSON lines

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Short read deadline so context cancellation is noticed.
			conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))

			n, _, err := conn.ReadFromUDP(buffer)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				monitoring.Logf("[PoseFeed] UDP read error: %v", err)
				continue
			}

			for _, sample := range decodePayload(buffer[:n], time.Now().UnixNano()) {
				select {
				case l.samples <- sample:
				default:
					// The tracking loop wants the latest pose; when it
					// lags, older samples are dropped, not queued.
				}
			}
		}
	}
}

// Close closes the socket and unblocks a pending read.
func (l *UDPListener) Close() error {
	if l.conn != nil {
		return l.conn.Close()
	}
	return nil
}

// wireSample is the JSON telemetry line format. A zero t means the
// sender carries no clock and the receive time is used instead.
type wireSample struct {
	T        int64   `json:"t"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Yaw      float64 `json:"yaw"`
	SpeedMPS float64 `json:"speed_mps"`
}

// EncodeWire marshals one sample as a telemetry line, the sender side
// of the datagram format. Used by tooling that simulates a telemetry
// source.
func EncodeWire(s Sample) ([]byte, error) {
	w := wireSample{
		T:        s.TimeUnixNanos,
		X:        s.Pose.Position.X,
		Y:        s.Pose.Position.Y,
		Z:        s.Pose.Position.Z,
		Yaw:      s.Pose.Yaw(),
		SpeedMPS: s.SpeedMPS,
	}
	return json.Marshal(w)
}

// decodePayload decodes one datagram of newline-delimited JSON pose
// lines. Malformed lines are skipped.
func decodePayload(payload []byte, recvUnixNanos int64) []Sample {
	var samples []Sample
	for _, raw := range bytes.Split(payload, []byte("\n")) {
		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}
		var w wireSample
		if err := json.Unmarshal(line, &w); err != nil {
			monitoring.Logf("[PoseFeed] skipping malformed telemetry line: %v", err)
			continue
		}
		t := w.T
		if t == 0 {
			t = recvUnixNanos
		}
		samples = append(samples, Sample{
			TimeUnixNanos: t,
			Pose: geom.Pose{
				Position:    geom.Point{X: w.X, Y: w.Y, Z: w.Z},
				Orientation: geom.QuaternionFromYaw(w.Yaw),
			},
			SpeedMPS: w.SpeedMPS,
		})
	}
	return samples
}
