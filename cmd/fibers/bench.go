package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"os"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"github.com/vango-dev/fibers/pkg/protocol"
	"github.com/vango-dev/fibers/pkg/server"
)

type benchConfig struct {
	Clients      int
	Duration     time.Duration
	Target       string
	EventTimeout time.Duration
	JSONPath     string
}

type benchCounters struct {
	eventsSent     atomic.Uint64
	eventsComplete atomic.Uint64
	eventBytes     atomic.Uint64
	frames         atomic.Uint64
	frameBytes     atomic.Uint64
	mutations      atomic.Uint64
	errors         atomic.Uint64
}

type benchReport struct {
	Demo       string         `json:"demo"`
	Timestamp  string         `json:"timestamp"`
	Go         string         `json:"go"`
	Clients    int            `json:"clients"`
	DurationMS int64          `json:"duration_ms"`
	LatencyMS  latencyInfo    `json:"latency_ms"`
	Throughput throughputInfo `json:"throughput"`
	Protocol   protocolInfo   `json:"protocol"`
	Errors     uint64         `json:"errors"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type throughputInfo struct {
	EventsTotal  uint64  `json:"events_total"`
	EventsPerSec float64 `json:"events_per_sec"`
}

type protocolInfo struct {
	AvgEventBytes     float64 `json:"avg_event_bytes"`
	AvgFrameBytes     float64 `json:"avg_frame_bytes"`
	MutationsPerFrame float64 `json:"mutations_per_frame"`
}

func benchCmd(configPath *string) *cobra.Command {
	bc := benchConfig{}

	cmd := &cobra.Command{
		Use:   "bench [demo]",
		Short: "Measure event round trips against an in-process server",
		Long: `Serve a demo in-process and drive it with websocket clients.

Each client sends a click at the node with the --target id, waits for
the next committed mutation frame and records the round trip. All
clients share one tree, so any commit answers a waiting client.

Examples:
  fibers bench
  fibers bench counter --clients 50 --duration 30s
  fibers bench app --json report.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			name, el, err := lookupDemo(args)
			if err != nil {
				return err
			}
			if bc.Clients <= 0 {
				return fmt.Errorf("--clients must be positive")
			}
			logger := newLogger(cfg.Log, cmd.ErrOrStderr())

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			loop, loopDone := startLoop(ctx, cfg, logger)
			defer func() {
				cancel()
				<-loopDone
			}()

			scfg := serverConfig(cfg, logger)
			scfg.SendQueue = 1024
			srv := server.New(loop, scfg)
			if err := srv.Render(ctx, el); err != nil {
				return err
			}

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				return err
			}
			hs := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 5 * time.Second}
			go hs.Serve(ln)
			defer func() {
				srv.Close()
				hs.Close()
			}()

			wsURL := "ws://" + ln.Addr().String() + "/ws"
			report, err := runBench(ctx, wsURL, bc)
			if err != nil {
				return err
			}
			report.Demo = name

			writeSummary(cmd.OutOrStdout(), report)
			if bc.JSONPath != "" {
				if err := writeReport(bc.JSONPath, report); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Wrote %s", bc.JSONPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&bc.Clients, "clients", 10, "Number of websocket clients")
	cmd.Flags().DurationVarP(&bc.Duration, "duration", "d", 5*time.Second, "Benchmark duration")
	cmd.Flags().StringVar(&bc.Target, "target", "count", "Id of the node to click")
	cmd.Flags().DurationVar(&bc.EventTimeout, "event-timeout", 2*time.Second, "Maximum wait for a frame after an event")
	cmd.Flags().StringVar(&bc.JSONPath, "json", "", "Write the report as JSON to this path")

	return cmd
}

func runBench(ctx context.Context, wsURL string, bc benchConfig) (benchReport, error) {
	ctx, cancel := context.WithTimeout(ctx, bc.Duration)
	defer cancel()

	var (
		counters benchCounters
		mu       sync.Mutex
		samples  []time.Duration
		wg       sync.WaitGroup
		firstErr error
	)
	record := func(rtt time.Duration) {
		mu.Lock()
		samples = append(samples, rtt)
		mu.Unlock()
	}

	start := time.Now()
	for i := 0; i < bc.Clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runClient(ctx, wsURL, bc, &counters, record); err != nil {
				counters.errors.Add(1)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	if counters.eventsComplete.Load() == 0 && firstErr != nil {
		return benchReport{}, firstErr
	}
	return buildReport(bc, elapsed, &counters, samples), nil
}

func runClient(ctx context.Context, wsURL string, bc benchConfig, counters *benchCounters, record func(time.Duration)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	initial, err := readMutations(conn, bc.EventTimeout, counters)
	if err != nil {
		return fmt.Errorf("initial frame: %w", err)
	}
	target, ok := nodeWithID(initial.Mutations, bc.Target)
	if !ok {
		return fmt.Errorf("no node with id %q in the initial frame", bc.Target)
	}

	data := protocol.NewFrame(protocol.FrameEvent, protocol.EncodeEvent(&protocol.EventMessage{
		Target: target,
		Type:   "click",
	})).Encode()

	for ctx.Err() == nil {
		sent := time.Now()
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("event write: %w", err)
		}
		counters.eventsSent.Add(1)
		counters.eventBytes.Add(uint64(len(data)))

		if _, err := readMutations(conn, bc.EventTimeout, counters); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("wait for frame: %w", err)
		}
		counters.eventsComplete.Add(1)
		record(time.Since(sent))
	}
	return nil
}

// readMutations reads frames until a mutation frame arrives. Error frames
// from the server are returned as errors.
func readMutations(conn *websocket.Conn, timeout time.Duration, counters *benchCounters) (*protocol.MutationFrame, error) {
	for {
		if timeout > 0 {
			conn.SetReadDeadline(time.Now().Add(timeout))
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			return nil, err
		}
		switch frame.Type {
		case protocol.FrameMutations:
			mf, err := protocol.DecodeMutations(frame.Payload)
			if err != nil {
				return nil, err
			}
			counters.frames.Add(1)
			counters.frameBytes.Add(uint64(len(msg)))
			counters.mutations.Add(uint64(len(mf.Mutations)))
			return mf, nil
		case protocol.FrameError:
			return nil, errors.New("server: " + protocol.NewDecoder(frame.Payload).Text())
		}
	}
}

// nodeWithID returns the host node whose id property is set to id.
func nodeWithID(ms []protocol.Mutation, id string) (uint64, bool) {
	for _, m := range ms {
		if m.Op == protocol.OpSetProperty && m.Key == "id" && m.Value == id {
			return m.Node, true
		}
	}
	return 0, false
}

func buildReport(bc benchConfig, elapsed time.Duration, c *benchCounters, samples []time.Duration) benchReport {
	slices.Sort(samples)
	r := benchReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Go:         runtime.Version(),
		Clients:    bc.Clients,
		DurationMS: elapsed.Milliseconds(),
		Errors:     c.errors.Load(),
	}
	if len(samples) > 0 {
		r.LatencyMS = latencyInfo{
			Min: ms(samples[0]),
			P50: ms(percentile(samples, 0.50)),
			P95: ms(percentile(samples, 0.95)),
			P99: ms(percentile(samples, 0.99)),
			Max: ms(samples[len(samples)-1]),
		}
	}
	total := c.eventsComplete.Load()
	r.Throughput.EventsTotal = total
	if elapsed > 0 {
		r.Throughput.EventsPerSec = float64(total) / elapsed.Seconds()
	}
	if sent := c.eventsSent.Load(); sent > 0 {
		r.Protocol.AvgEventBytes = float64(c.eventBytes.Load()) / float64(sent)
	}
	if frames := c.frames.Load(); frames > 0 {
		r.Protocol.AvgFrameBytes = float64(c.frameBytes.Load()) / float64(frames)
		r.Protocol.MutationsPerFrame = float64(c.mutations.Load()) / float64(frames)
	}
	return r
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func writeSummary(w io.Writer, r benchReport) {
	fmt.Fprintln(w, "=== fibers bench ===")
	fmt.Fprintf(w, "Demo: %s\n", r.Demo)
	fmt.Fprintf(w, "Clients: %d\n", r.Clients)
	fmt.Fprintf(w, "Duration: %s\n", time.Duration(r.DurationMS)*time.Millisecond)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total events: %d\n", r.Throughput.EventsTotal)
	fmt.Fprintf(w, "Throughput: %.1f events/s\n", r.Throughput.EventsPerSec)
	fmt.Fprintf(w, "Errors: %d\n", r.Errors)
	fmt.Fprintln(w)

	if r.LatencyMS.Max == 0 {
		fmt.Fprintln(w, "No latency samples recorded.")
	} else {
		fmt.Fprintln(w, "RTT (event sent -> next committed frame):")
		fmt.Fprintf(w, "  min: %.2f ms\n", r.LatencyMS.Min)
		fmt.Fprintf(w, "  p50: %.2f ms\n", r.LatencyMS.P50)
		fmt.Fprintf(w, "  p95: %.2f ms\n", r.LatencyMS.P95)
		fmt.Fprintf(w, "  p99: %.2f ms\n", r.LatencyMS.P99)
		fmt.Fprintf(w, "  max: %.2f ms\n", r.LatencyMS.Max)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Protocol:")
	fmt.Fprintf(w, "  event bytes:         %.1f\n", r.Protocol.AvgEventBytes)
	fmt.Fprintf(w, "  frame bytes:         %.1f\n", r.Protocol.AvgFrameBytes)
	fmt.Fprintf(w, "  mutations per frame: %.2f\n", r.Protocol.MutationsPerFrame)
}

func writeReport(path string, r benchReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
