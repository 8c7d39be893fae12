//go:build pcap
// +build pcap

package posefeed

import (
	"context"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/banshee-data/lanetrack/internal/monitoring"
)

// ReadPCAP replays captured UDP pose telemetry from a pcap file,
// publishing decoded samples to out. Lines without a sender timestamp
// are stamped with the capture time. Only available when building with
// the pcap tag.
func ReadPCAP(ctx context.Context, path string, udpPort int, out chan<- Sample) error {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return fmt.Errorf("open pcap file %s: %w", path, err)
	}
	defer handle.Close()

	filter := fmt.Sprintf("udp port %d", udpPort)
	if err := handle.SetBPFFilter(filter); err != nil {
		return fmt.Errorf("set BPF filter %q: %w", filter, err)
	}

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	packets := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case packet := <-source.Packets():
			if packet == nil {
				monitoring.Logf("[PoseFeed] pcap playback complete: %d packets", packets)
				return nil
			}
			packets++

			udpLayer := packet.Layer(layers.LayerTypeUDP)
			if udpLayer == nil {
				continue
			}
			udp, ok := udpLayer.(*layers.UDP)
			if !ok {
				continue
			}
			payload := udp.Payload
			if len(payload) == 0 {
				continue
			}

			captureNanos := packet.Metadata().Timestamp.UnixNano()
			for _, sample := range decodePayload(payload, captureNanos) {
				select {
				case out <- sample:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}
