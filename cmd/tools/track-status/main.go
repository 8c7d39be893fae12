// Package main queries a running tracking daemon over its HTTP
// interface: current status, known lanes, or a tuning parameter update.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/lanetrack/internal/monitor"
	"github.com/banshee-data/lanetrack/internal/units"
)

var (
	addr      = flag.String("addr", "http://localhost:8080", "Base URL of the tracking daemon")
	watch     = flag.Int("watch", 0, "Refresh interval in seconds (0 prints once)")
	speedUnit = flag.String("units", "mps", "Speed units for display (mps, mph, kmph, kph)")
	showLanes = flag.Bool("lanes", false, "List known lanes and exit")
	setList   = flag.String("set", "", "Apply tuning updates as 'key=value[,key=value]' and exit")
	asJSON    = flag.Bool("json", false, "Print the raw status JSON")
)

func main() {
	flag.Parse()

	if !units.IsValid(*speedUnit) {
		log.Fatalf("Invalid -units %q: valid values are %s", *speedUnit, units.GetValidUnitsString())
	}

	client := monitor.NewClient(nil, *addr)

	if *setList != "" {
		params, err := parseSetList(*setList)
		if err != nil {
			log.Fatalf("Invalid -set: %v", err)
		}
		if err := client.SetParams(params); err != nil {
			log.Fatalf("Failed to apply params: %v", err)
		}
		fmt.Println("Applied.")
		return
	}

	if *showLanes {
		metas, err := client.FetchLanes()
		if err != nil {
			log.Fatalf("Failed to list lanes: %v", err)
		}
		fmt.Printf("%-24s %9s  %s\n", "NAME", "WAYPOINTS", "SOURCE")
		for _, m := range metas {
			fmt.Printf("%-24s %9d  %s\n", m.Name, m.WaypointCount, m.Source)
		}
		return
	}

	for {
		status, err := client.FetchStatus()
		if err != nil {
			if *watch <= 0 {
				log.Fatalf("Failed to fetch status: %v", err)
			}
			log.Printf("Failed to fetch status: %v", err)
		} else if *asJSON {
			data, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				log.Fatalf("Failed to encode status: %v", err)
			}
			fmt.Println(string(data))
		} else {
			fmt.Print(formatStatus(status, *speedUnit))
		}

		if *watch <= 0 {
			return
		}
		time.Sleep(time.Duration(*watch) * time.Second)
		fmt.Printf("--- %s\n", time.Now().Format("15:04:05"))
	}
}

// parseSetList parses 'key=value[,key=value]' into the JSON shapes the
// params endpoint expects: bools and numbers where they parse, strings
// otherwise.
func parseSetList(s string) (map[string]interface{}, error) {
	params := make(map[string]interface{})
	for _, kv := range strings.Split(s, ",") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("expected key=value, got %q", kv)
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		if key == "" {
			return nil, fmt.Errorf("empty key in %q", kv)
		}
		switch {
		case val == "true" || val == "false":
			params[key] = val == "true"
		default:
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				params[key] = f
			} else {
				params[key] = val
			}
		}
	}
	return params, nil
}

func formatStatus(status *monitor.StatusResponse, unit string) string {
	var b strings.Builder
	uptime := time.Duration(status.UptimeSeconds * float64(time.Second)).Round(time.Second)
	fmt.Fprintf(&b, "Uptime:    %s\n", uptime)

	if !status.Tracking || status.TrackStatus == nil {
		b.WriteString("Tracking:  no (no pose cycle published yet)\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Tracking:  yes\n")
	fmt.Fprintf(&b, "Lane:      %s (%s)\n", status.Lane, status.Direction)
	fmt.Fprintf(&b, "Index:     %d\n", status.Index)
	fmt.Fprintf(&b, "Position:  (%.2f, %.2f, %.2f) yaw %.3f rad\n", status.X, status.Y, status.Z, status.Yaw)
	fmt.Fprintf(&b, "Speed:     %.1f %s\n", units.ConvertSpeed(status.SpeedMPS, unit), unit)
	fmt.Fprintf(&b, "Lateral:   %.2f m\n", status.LateralErrorM)
	fmt.Fprintf(&b, "Pose age:  %.0f ms\n", status.PoseAgeMS)
	fmt.Fprintf(&b, "Cycles:    %d tracked / %d total\n", status.CyclesTracked, status.CyclesTotal)
	return b.String()
}
