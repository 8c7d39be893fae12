// Package main sends a recorded pose log as UDP telemetry datagrams,
// for driving a tracking daemon without live hardware.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/banshee-data/lanetrack/internal/posefeed"
)

var (
	poseCSV = flag.String("poses", "", "Pose log CSV to send")
	addr    = flag.String("addr", "localhost:4242", "Destination address for telemetry datagrams")
	pace    = flag.Bool("pace", true, "Sleep between samples to mirror the recorded timing")
	loop    = flag.Bool("loop", false, "Restart the log from the beginning when it ends")
)

// Gaps above this are capped so a log silence does not stall the feed.
const maxPaceGap = time.Second

func main() {
	flag.Parse()

	if *poseCSV == "" {
		log.Fatal("A pose log is required: pass -poses <csv>")
	}

	udpAddr, err := net.ResolveUDPAddr("udp", *addr)
	if err != nil {
		log.Fatalf("Failed to resolve %s: %v", *addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		log.Fatalf("Failed to dial %s: %v", *addr, err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var packetCount int64
	var byteCount int64

	// Statistics goroutine
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				packets := atomic.SwapInt64(&packetCount, 0)
				bytes := atomic.SwapInt64(&byteCount, 0)
				if packets > 0 {
					fmt.Printf("Sent: %d packets/sec, %.1f KB/sec\n",
						packets, float64(bytes)/1024)
				}
			}
		}
	}()

	log.Printf("Sending %s to %s", *poseCSV, *addr)

	for {
		err := sendLog(ctx, conn, *poseCSV, &packetCount, &byteCount)
		if errors.Is(err, context.Canceled) {
			log.Print("Stopped")
			return
		}
		if err != nil {
			log.Fatalf("Send failed: %v", err)
		}
		if !*loop {
			return
		}
	}
}

// sendLog streams one pass of the pose log to conn.
func sendLog(ctx context.Context, conn *net.UDPConn, path string, packets, bytes *int64) error {
	src, err := posefeed.OpenCSV(path)
	if err != nil {
		return err
	}
	defer src.Close()

	var lastNanos int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sample, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if *pace && lastNanos != 0 {
			gap := time.Duration(sample.TimeUnixNanos - lastNanos)
			if gap > maxPaceGap {
				gap = maxPaceGap
			}
			if gap > 0 {
				time.Sleep(gap)
			}
		}
		lastNanos = sample.TimeUnixNanos

		line, err := posefeed.EncodeWire(sample)
		if err != nil {
			return err
		}

		n, err := conn.Write(line)
		if err != nil {
			return fmt.Errorf("send datagram: %w", err)
		}
		atomic.AddInt64(packets, 1)
		atomic.AddInt64(bytes, int64(n))
	}
}
