package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/lanetrack/internal/config"
	"github.com/banshee-data/lanetrack/internal/geom"
	"github.com/banshee-data/lanetrack/internal/lane"
	"github.com/banshee-data/lanetrack/internal/lanedb"
	"github.com/banshee-data/lanetrack/internal/monitor"
	"github.com/banshee-data/lanetrack/internal/posefeed"
	"github.com/banshee-data/lanetrack/internal/tracker"
	"github.com/banshee-data/lanetrack/internal/version"
)

var (
	listen      = flag.String("listen", ":8080", "HTTP listen address")
	dbFile      = flag.String("db", "lanetrack.db", "Path to the SQLite database file")
	laneFile    = flag.String("lane", "", "Lane CSV to load and store at startup")
	laneName    = flag.String("lane-name", "", "Stored lane to load from the database")
	tuningFile  = flag.String("tuning", "", "Tuning config JSON (default: built-in defaults)")
	serialDev   = flag.String("serial", "", "Serial device for NMEA pose input (e.g. /dev/ttyUSB0)")
	serialBaud  = flag.Int("baud", 0, "Serial baud rate (0 uses the tuning config)")
	datumFlag   = flag.String("datum", "", "NMEA projection datum as 'lat,lon' (overrides the tuning config)")
	udpPort     = flag.Int("udp-port", 0, "UDP port for pose telemetry (0 uses the tuning config)")
	rcvBuf      = flag.Int("rcvbuf", 1<<20, "UDP receive buffer size in bytes")
	record      = flag.Bool("record", false, "Record tracking cycles as a session in the database")
	notes       = flag.String("notes", "", "Notes to attach to the recorded session")
	logInterval = flag.Int("log-interval", 5, "Statistics logging interval in seconds")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// Cycle statistics tracking
type cycleStats struct {
	mu        sync.Mutex
	cycles    int64
	tracked   int64
	lastReset time.Time
}

func (cs *cycleStats) Add(tracked bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.cycles++
	if tracked {
		cs.tracked++
	}
}

func (cs *cycleStats) GetAndReset() (cycles, tracked int64, duration time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := time.Now()
	duration = now.Sub(cs.lastReset)
	cycles = cs.cycles
	tracked = cs.tracked

	cs.cycles = 0
	cs.tracked = 0
	cs.lastReset = now

	return
}

// parseDatum parses a 'lat,lon' pair in decimal degrees.
func parseDatum(s string) (posefeed.Datum, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return posefeed.Datum{}, fmt.Errorf("expected 'lat,lon', got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return posefeed.Datum{}, fmt.Errorf("invalid latitude '%s': %w", parts[0], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return posefeed.Datum{}, fmt.Errorf("invalid longitude '%s': %w", parts[1], err)
	}
	return posefeed.Datum{Lat: lat, Lon: lon}, nil
}

func loadTuning(path string) *config.TuningConfig {
	if path == "" {
		return config.MustLoadDefaultConfig()
	}
	tuning, err := config.LoadTuningConfig(path)
	if err != nil {
		log.Fatalf("Failed to load tuning config: %v", err)
	}
	log.Printf("Loaded tuning config from %s", path)
	return tuning
}

// loadLane resolves the lane to track: a CSV file is loaded and stored
// in the database so later runs can use -lane-name, a bare name is
// fetched from the database.
func loadLane(ldb *lanedb.DB) (*lane.Lane, error) {
	switch {
	case *laneFile != "":
		l, err := lane.LoadCSV(*laneFile)
		if err != nil {
			return nil, err
		}
		if _, err := ldb.SaveLane(l, "csv:"+filepath.Base(*laneFile)); err != nil {
			return nil, fmt.Errorf("store lane: %w", err)
		}
		return l, nil
	case *laneName != "":
		return ldb.GetLaneByName(*laneName)
	default:
		return nil, errors.New("a lane is required: pass -lane <csv> or -lane-name <stored lane>")
	}
}

type trackLoop struct {
	lane   *lane.Lane
	source posefeed.Source
	board  *monitor.StatusBoard
	params *monitor.ParamStore
	record *lanedb.DB
	// poseSource and notes annotate the recorded session.
	poseSource string
	notes      string
	batchSize  int
	staleAfter time.Duration
}

// runTracking is the control loop: read a pose, advance the tracked
// index, publish the cycle to the status board, and optionally persist
// it. Returns when the source reports io.EOF or ctx is cancelled.
func runTracking(ctx context.Context, cfg trackLoop) error {
	l := cfg.lane
	trk := tracker.New(cfg.params.TrackerConfig())

	dir, dirErr := cfg.params.DirectionConfig().Classify(l)
	if dirErr != nil {
		log.Printf("Lane direction ambiguous, using %s: %v", dir, dirErr)
	} else {
		log.Printf("Lane direction: %s", dir)
	}

	var sessionID string
	var pending []lanedb.Sample
	if cfg.record != nil {
		id, err := cfg.record.CreateSession(l.Name, cfg.poseSource, cfg.notes)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		sessionID = id
		log.Printf("Recording session %s", id)
	}
	flush := func() {
		if sessionID == "" || len(pending) == 0 {
			return
		}
		if err := cfg.record.AppendSamples(sessionID, pending); err != nil {
			log.Printf("Failed to record sample batch: %v", err)
		}
		pending = pending[:0]
	}
	defer flush()

	stats := &cycleStats{lastReset: time.Now()}

	// Periodic stats logging, with a stale-feed warning when cycles stop
	go func() {
		ticker := time.NewTicker(time.Duration(*logInterval) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cycles, tracked, duration := stats.GetAndReset()
				if cycles > 0 {
					log.Printf("Track stats (/sec): %.1f cycles, %.1f tracked",
						float64(cycles)/duration.Seconds(), float64(tracked)/duration.Seconds())
					continue
				}
				if snap := cfg.board.Latest(); snap != nil {
					age := time.Duration(time.Now().UnixNano() - snap.PoseUnixNanos)
					if age > cfg.staleAfter {
						log.Printf("No pose received for %v", age.Round(time.Second))
					}
				}
			}
		}
	}()

	var total, trackedCount int64
	seq := 0

	log.Printf("Starting tracking loop on lane %q (%d waypoints)", l.Name, l.Len())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sample, err := cfg.source.Next()
		if errors.Is(err, io.EOF) {
			log.Print("Pose feed ended")
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Pose read error: %v", err)
			continue
		}

		// Changed search gates re-anchor from scratch.
		if tcfg := cfg.params.TrackerConfig(); trk.Config() != tcfg {
			log.Printf("Tracker config changed, re-anchoring: %+v", tcfg)
			trk = tracker.New(tcfg)
		}

		index := trk.Track(l, sample.Pose)
		total++
		stats.Add(index != tracker.Unset)

		status := monitor.TrackStatus{
			Lane:          l.Name,
			Direction:     dir.String(),
			Index:         index,
			X:             sample.Pose.Position.X,
			Y:             sample.Pose.Position.Y,
			Z:             sample.Pose.Position.Z,
			Yaw:           sample.Pose.Yaw(),
			SpeedMPS:      sample.SpeedMPS,
			PoseUnixNanos: sample.TimeUnixNanos,
			CyclesTotal:   total,
		}

		var curvature float64
		if index != tracker.Unset {
			trackedCount++
			pos := sample.Pose.Position
			status.PlaneDistM = geom.PlaneDistance(l.Position(index), pos)

			segStart, segEnd := index, index+1
			if segEnd > l.Len()-1 {
				segStart, segEnd = index-1, index
			}
			status.LateralErrorM = geom.LateralError2D(l.Position(segStart), l.Position(segEnd), pos)

			target := index + 1
			if target > l.Len()-1 {
				target = l.Len() - 1
			}
			curvature = geom.Curvature(l.Position(target), sample.Pose)
		}
		status.CyclesTracked = trackedCount
		cfg.board.Publish(status)

		if sessionID != "" {
			pending = append(pending, lanedb.Sample{
				Seq:           seq,
				TUnixNanos:    sample.TimeUnixNanos,
				X:             sample.Pose.Position.X,
				Y:             sample.Pose.Position.Y,
				Z:             sample.Pose.Position.Z,
				Yaw:           sample.Pose.Yaw(),
				SpeedMPS:      sample.SpeedMPS,
				TrackedIndex:  index,
				Direction:     dir.String(),
				LateralErrorM: status.LateralErrorM,
				Curvature:     curvature,
				PlaneDistM:    status.PlaneDistM,
			})
			if len(pending) >= cfg.batchSize {
				flush()
			}
		}
		seq++
	}
}

// Main
func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *listen == "" {
		log.Fatal("HTTP listen address is required")
	}

	log.Printf("Starting %s", version.String())

	tuning := loadTuning(*tuningFile)

	// Initialize database
	ldb, err := lanedb.Open(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open lane database: %v", err)
	}
	defer ldb.Close()

	l, err := loadLane(ldb)
	if err != nil {
		log.Fatalf("Failed to load lane: %v", err)
	}
	if err := l.Validate(); err != nil {
		log.Fatalf("Lane %q is not trackable: %v", l.Name, err)
	}
	log.Printf("Loaded lane %q with %d waypoints", l.Name, l.Len())

	board := monitor.NewStatusBoard()
	params := monitor.NewParamStore(tuning)

	// Build the pose source: a serial NMEA device when -serial is given,
	// a UDP telemetry listener otherwise.
	var source posefeed.Source
	var udpListener *posefeed.UDPListener
	var poseSourceName string
	if *serialDev != "" {
		baud := *serialBaud
		if baud == 0 {
			baud = tuning.GetSerialBaud()
		}
		datum := posefeed.Datum{Lat: tuning.GetDatumLat(), Lon: tuning.GetDatumLon()}
		if *datumFlag != "" {
			datum, err = parseDatum(*datumFlag)
			if err != nil {
				log.Fatalf("Invalid -datum: %v", err)
			}
		}
		serial, err := posefeed.OpenSerial(*serialDev, baud, datum)
		if err != nil {
			log.Fatalf("Failed to open serial device: %v", err)
		}
		defer serial.Close()
		source = serial
		poseSourceName = "serial:" + *serialDev
		log.Printf("Reading NMEA poses from %s at %d baud", *serialDev, baud)
	} else {
		port := *udpPort
		if port == 0 {
			port = tuning.GetUDPPort()
		}
		udpListener = posefeed.NewUDPListener(posefeed.UDPConfig{
			Address: fmt.Sprintf(":%d", port),
			RcvBuf:  *rcvBuf,
		})
		source = posefeed.ChanSource{C: udpListener.Samples()}
		poseSourceName = fmt.Sprintf("udp:%d", port)
		log.Printf("Listening for pose telemetry on UDP port %d", port)
	}

	var recordDB *lanedb.DB
	if *record {
		recordDB = ldb
	}

	// Create a wait group for the HTTP server, pose listener, and
	// tracking loop routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Close a blocking serial read on shutdown so the tracking loop can
	// observe the cancelled context.
	if closer, ok := source.(io.Closer); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			closer.Close()
		}()
	}

	// Start UDP listener routine
	if udpListener != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := udpListener.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("UDP listener error: %v", err)
			}
			log.Print("UDP listener routine terminated")
		}()
	}

	// Tracking loop routine
	wg.Add(1)
	go func() {
		defer wg.Done()
		loop := trackLoop{
			lane:       l,
			source:     source,
			board:      board,
			params:     params,
			record:     recordDB,
			poseSource: poseSourceName,
			notes:      *notes,
			batchSize:  tuning.GetSampleBatchSize(),
			staleAfter: tuning.GetPoseStaleTime(),
		}
		if err := runTracking(ctx, loop); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Tracking loop error: %v", err)
		}
		log.Print("tracking routine terminated")
	}()

	// HTTP server routine
	wg.Add(1)
	go func() {
		defer wg.Done()
		server := monitor.NewWebServer(monitor.WebServerConfig{
			Address:     *listen,
			Board:       board,
			Params:      params,
			DB:          ldb,
			CurrentLane: func() *lane.Lane { return l },
		})
		if err := server.Start(ctx); err != nil {
			log.Printf("HTTP server error: %v", err)
		}
		log.Print("HTTP server routine terminated")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
