// Command gate-dialer drives the ring gate from the arcade cabinet's SOL21 line
// and publishes chevron outcomes and gate lifecycle events to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sweeney/gate-dialer/internal/clock"
	"github.com/sweeney/gate-dialer/internal/config"
	"github.com/sweeney/gate-dialer/internal/display"
	"github.com/sweeney/gate-dialer/internal/gate"
	"github.com/sweeney/gate-dialer/internal/gpio"
	"github.com/sweeney/gate-dialer/internal/homekit"
	"github.com/sweeney/gate-dialer/internal/mqtt"
	"github.com/sweeney/gate-dialer/internal/pulse"
	"github.com/sweeney/gate-dialer/internal/status"
	"github.com/sweeney/gate-dialer/internal/web"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	backend := flag.String("backend", config.BackendGPIOCdev, "GPIO backend: gpiocdev, periph, rpio, sysfs or none")
	triggerPin := flag.Int("pin-trigger", gpio.DefaultTriggerPin, "BCM pin number for the SOL21 trigger line")
	testPin := flag.Int("pin-test", gpio.DefaultTestPin, "BCM pin number for the test button (-1 to disable)")
	selfTest := flag.Bool("self-test", true, "Show the self-test frame at startup")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	homeKit := flag.Bool("homekit", false, "Expose the gate as a HomeKit accessory")
	logLevel := flag.String("log-level", "info", "Log level: error, warn, info or debug")

	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		cfg = loaded
	}

	// Flags given on the command line win over the file.
	var o config.FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			o.Backend = backend
		case "pin-trigger":
			o.TriggerPin = triggerPin
		case "pin-test":
			o.TestPin = testPin
		case "self-test":
			o.SelfTest = selfTest
		case "broker":
			o.Broker = broker
		case "http":
			o.HTTPAddr = httpAddr
		case "homekit":
			o.HomeKit = homeKit
		case "log-level":
			o.LogLevel = logLevel
		}
	})
	o.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: invalid config: %v", err)
	}

	logger, err := config.NewLogger(os.Stdout, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	clk := clock.NewMonotonic()

	// Initialize GPIO
	source, err := newEdgeSource(cfg, clk)
	if err != nil {
		return err
	}
	capture := pulse.NewCapture()
	if err := source.Start(func(edge pulse.Edge, at pulse.Timestamp) {
		capture.OnEdge(edge, at)
	}); err != nil {
		return fmt.Errorf("start trigger line: %w", err)
	}
	defer source.Close()

	trigger := pulse.NewTrigger(capture, logger)
	button, err := newTestButton(cfg)
	if err != nil {
		return err
	}
	if button != nil {
		if c, ok := button.(io.Closer); ok {
			defer c.Close()
		}
		trigger.SetOverride(button.Held)
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), statusConfig(cfg))

	// Initialize MQTT
	var publisher mqtt.Publisher
	if cfg.MQTT.Broker != "" {
		rp, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:             cfg.MQTT.Broker,
			ClientID:           cfg.MQTT.ClientID,
			BufferSize:         cfg.MQTT.Buffer,
			Logger:             logger,
			OnConnectionChange: tracker.SetMQTTConnected,
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		tracker.SetMQTTConnected(rp.IsConnected())
		publisher = rp
		defer publisher.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sinks := &sinks{tracker: tracker, publisher: publisher, logger: logger}
	var renderers []display.Renderer

	if cfg.HTTP.Addr != "" && cfg.HTTP.Live {
		sinks.hub = web.NewHub(logger, web.HubConfig{
			FrameInterval: time.Duration(cfg.HTTP.FrameIntervalMS) * time.Millisecond,
		})
		renderers = append(renderers, sinks.hub)
		go sinks.hub.Run(ctx)
	}

	seed := cfg.Gate.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	g := gate.New(gate.Config{
		Trigger:          &observedTrigger{trigger: trigger, capture: capture, tracker: tracker},
		Clock:            clk,
		Renderer:         display.Multi(renderers...),
		Painter:          display.NewPainter(seed),
		Logger:           logger,
		FrameInterval:    cfg.FrameInterval(),
		SelfTest:         cfg.Gate.SelfTest,
		CollapseDuration: cfg.CollapseDuration(),
		OnStep:           sinks.onStep,
		OnChevron:        sinks.onChevron,
		OnPhase:          sinks.onPhase,
	})

	if cfg.HomeKit.Enabled {
		sinks.homekit = homekit.New(cfg.HomeKit.Name, g, logger)
		go func() {
			if err := sinks.homekit.Serve(ctx, cfg.HomeKit.StateDir, cfg.HomeKit.Pin); err != nil {
				logger.Error("homekit stopped", "error", err)
			}
		}()
	}

	// Publish startup event with full status snapshot
	sinks.publishStatus(mqtt.EventStartup, "", true)

	if publisher != nil && cfg.HeartbeatInterval() > 0 {
		ticker := time.NewTicker(cfg.HeartbeatInterval())
		defer ticker.Stop()
		go runHeartbeat(ctx, ticker.C, sinks)
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, g, sinks.hub)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening", "addr", cfg.HTTP.Addr, "live", sinks.hub != nil)
	}

	logger.Info("started",
		"backend", cfg.GPIO.Backend,
		"trigger_pin", cfg.GPIO.TriggerPin,
		"test_pin", cfg.GPIO.TestPin,
		"frame", cfg.FrameInterval(),
		"broker", cfg.MQTT.Broker,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	reason, err := runUntilSignal(ctx, g.Run, sigCh)
	logger.Info("shutting down", "reason", reason)
	sinks.publishStatus(mqtt.EventShutdown, reason, true)
	return err
}

// runHeartbeat publishes a HEARTBEAT status event on every tick until ctx is done.
func runHeartbeat(ctx context.Context, tick <-chan time.Time, s *sinks) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			s.publishStatus(mqtt.EventHeartbeat, "", false)
		}
	}
}

// runUntilSignal runs the gate loop until a signal arrives or the loop ends on
// its own. It returns the shutdown reason.
func runUntilSignal(parent context.Context, runGate func(context.Context) error, sig <-chan os.Signal) (string, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runGate(ctx) }()

	select {
	case s := <-sig:
		cancel()
		return signalName(s), <-done
	case err := <-done:
		if err != nil {
			return "ERROR", err
		}
		return "EXIT", nil
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}

func newEdgeSource(cfg config.Config, clk clock.Clock) (gpio.EdgeSource, error) {
	switch cfg.GPIO.Backend {
	case config.BackendGPIOCdev:
		return gpio.NewCdevSource(cfg.GPIO.Chip, cfg.GPIO.TriggerPin, cfg.Debounce()), nil
	case config.BackendPeriph:
		return gpio.NewPeriphSource(periphPin(cfg.GPIO.TriggerPin), clk), nil
	case config.BackendRpio:
		return gpio.NewRpioSource(cfg.GPIO.TriggerPin, cfg.PollInterval(), clk), nil
	case config.BackendSysfs:
		return gpio.NewSysfsSource(cfg.GPIO.TriggerPin, clk), nil
	case config.BackendNone:
		// No hardware: the gate only dials on request and never locks.
		return gpio.NewFakeSource(), nil
	default:
		return nil, fmt.Errorf("unknown gpio backend %q", cfg.GPIO.Backend)
	}
}

// newTestButton returns nil when the test button is disabled or there is no hardware.
func newTestButton(cfg config.Config) (gpio.Button, error) {
	if cfg.GPIO.TestPin < 0 {
		return nil, nil
	}
	switch cfg.GPIO.Backend {
	case config.BackendGPIOCdev:
		b, err := gpio.NewCdevButton(cfg.GPIO.Chip, cfg.GPIO.TestPin)
		if err != nil {
			return nil, fmt.Errorf("init test button: %w", err)
		}
		return b, nil
	case config.BackendPeriph:
		b, err := gpio.NewPeriphButton(periphPin(cfg.GPIO.TestPin))
		if err != nil {
			return nil, fmt.Errorf("init test button: %w", err)
		}
		return b, nil
	case config.BackendRpio, config.BackendSysfs:
		// sysfs has no pull control; the button is read through go-rpio either way.
		b, err := gpio.NewRpioButton(cfg.GPIO.TestPin)
		if err != nil {
			return nil, fmt.Errorf("init test button: %w", err)
		}
		return b, nil
	default:
		return nil, nil
	}
}

func periphPin(pin int) string {
	return fmt.Sprintf("GPIO%d", pin)
}

func statusConfig(cfg config.Config) status.Config {
	testPin := "disabled"
	if cfg.GPIO.TestPin >= 0 {
		testPin = strconv.Itoa(cfg.GPIO.TestPin)
	}
	return status.Config{
		Backend:    cfg.GPIO.Backend,
		TriggerPin: strconv.Itoa(cfg.GPIO.TriggerPin),
		TestPin:    testPin,
		FrameMs:    cfg.FrameInterval().Milliseconds(),
		SelfTest:   cfg.Gate.SelfTest,
		Broker:     cfg.MQTT.Broker,
		HTTPAddr:   cfg.HTTP.Addr,
		HomeKit:    cfg.HomeKit.Enabled,
	}
}

// observedTrigger mirrors every poll into the status tracker.
type observedTrigger struct {
	trigger *pulse.Trigger
	capture *pulse.Capture
	tracker *status.Tracker
}

func (o *observedTrigger) Poll(now pulse.Timestamp) bool {
	asserted := o.trigger.Poll(now)
	o.tracker.SetTrigger(status.TriggerState{
		Asserted: asserted,
		LastMode: o.trigger.LastMode(),
		Buffered: o.trigger.Buffered(),
		Counts:   o.trigger.Counts(),
		Capture:  o.capture.Stats(),
	})
	return asserted
}

// sinks fans gate callbacks out to the tracker, MQTT, the live view and HomeKit.
// Everything except the tracker is optional. Callbacks run on the gate goroutine.
type sinks struct {
	tracker   *status.Tracker
	publisher mqtt.Publisher
	hub       *web.Hub
	homekit   *homekit.Accessory
	logger    *slog.Logger
}

func (s *sinks) onStep(p gate.Progress) {
	s.tracker.SetProgress(p)
}

func (s *sinks) onChevron(ev gate.ChevronEvent) {
	s.tracker.RecordChevron(ev)
	s.logger.Debug("chevron recorded",
		"session", ev.Session,
		"number", ev.Number,
		"position", ev.Position,
		"outcome", string(ev.Outcome),
	)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChevron(ev); err != nil {
		// Don't stop the dial on publish failure
		s.logger.Warn("publish error", "error", err)
	}
}

func (s *sinks) onPhase(pc gate.PhaseChange) {
	s.tracker.SetPhase(pc)
	if s.hub != nil {
		s.hub.PublishPhase(pc)
	}
	if s.homekit != nil {
		s.homekit.SetPhase(pc)
	}
	if s.publisher == nil {
		return
	}
	snap := s.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  pc.Time,
		Event:      mqtt.EventPhase,
		Reason:     string(pc.Phase),
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, mqtt.EventPhase, string(pc.Phase)),
	}
	if err := s.publisher.PublishSystem(event); err != nil {
		s.logger.Warn("phase publish error", "error", err)
	}
}

// publishStatus sends a system event carrying a full status snapshot.
func (s *sinks) publishStatus(event, reason string, retained bool) {
	if s.publisher == nil {
		return
	}
	if cs, ok := s.publisher.(mqtt.ConnectionStatus); ok {
		s.tracker.SetMQTTConnected(cs.IsConnected())
	}
	snap := s.tracker.Snapshot()
	ev := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   retained,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := s.publisher.PublishSystem(ev); err != nil {
		s.logger.Warn("failed to publish system event", "event", event, "error", err)
		return
	}
	s.logger.Info("published system event", "event", event)
}
