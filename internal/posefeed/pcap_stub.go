//go:build !pcap
// +build !pcap

package posefeed

import (
	"context"
	"fmt"
)

// ReadPCAP is a stub implementation when pcap support is disabled.
// Build with -tags=pcap to enable pcap playback.
func ReadPCAP(ctx context.Context, path string, udpPort int, out chan<- Sample) error {
	return fmt.Errorf("pcap support not enabled: rebuild with -tags=pcap to enable pcap playback")
}
