package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/tonylturner/zbncp/internal/capture"
	"github.com/tonylturner/zbncp/internal/config"
	zbErrors "github.com/tonylturner/zbncp/internal/errors"
	"github.com/tonylturner/zbncp/internal/logging"
	"github.com/tonylturner/zbncp/internal/metrics"
	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/progress"
	"github.com/tonylturner/zbncp/internal/scenario"
	"github.com/tonylturner/zbncp/internal/session"
	"github.com/tonylturner/zbncp/internal/transport"
	"github.com/tonylturner/zbncp/internal/verify"
)

// ErrIncomplete is returned when a run ends with required calls pending.
var ErrIncomplete = errors.New("required calls not captured")

// RunOptions are the command-line overrides for one run. Zero values keep
// the config file's settings.
type RunOptions struct {
	ConfigPath  string
	QuickStart  bool
	Scenario    string
	Transport   string
	Replay      string
	ByteOrder   string
	CaptureFile string
	LogFile     string
	MetricsCSV  string
	MetricsJSON string
	TimeoutSec  int
	EchoLimit   int
	SkipKeyDump bool
	Verbose     bool
	Debug       bool
	Progress    bool
}

// Result is the outcome of a finished run.
type Result struct {
	RunID     string
	Scenario  string
	Transport string
	Elapsed   time.Duration
	Completed bool
	Pending   []string
	Verify    verify.Stats
	Session   session.Stats
	Summary   *metrics.Summary
}

// Run is a scenario wired to its session, transport and outputs, ready to
// execute once.
type Run struct {
	ID       string
	Config   *config.RunConfig
	Scenario scenario.Scenario
	Session  *session.Session
	Sink     *metrics.Sink
	Logger   *logging.Logger
	// ConfigPath is only reported in the startup log.
	ConfigPath string

	transportName string
	capture       *capture.Writer
	ownsLogger    bool
}

// LoadRunConfig loads the config file and applies command-line overrides.
func LoadRunConfig(opts RunOptions) (*config.RunConfig, error) {
	var cfg *config.RunConfig
	if opts.ConfigPath == "" {
		cfg = config.CreateDefaultRunConfig()
	} else {
		loaded, err := config.LoadRunConfig(opts.ConfigPath, opts.QuickStart)
		if err != nil {
			return nil, zbErrors.WrapConfigError(err, opts.ConfigPath)
		}
		cfg = loaded
	}

	if opts.Scenario != "" && opts.Scenario != cfg.Scenario {
		cfg.Scenario = opts.Scenario
		// network defaults follow the scenario unless the file set them
		if opts.ConfigPath == "" {
			cfg.Network.Role, cfg.Network.PanID, cfg.Network.EchoLimit = "", 0, 0
		}
		config.EnrichForScenario(cfg, cfg.Scenario)
	}
	if opts.Transport != "" {
		cfg.Transport = opts.Transport
	}
	if opts.Replay != "" {
		cfg.Transport = "replay:" + opts.Replay
	}
	if opts.ByteOrder != "" {
		cfg.Protocol.ByteOrder = opts.ByteOrder
	}
	if opts.CaptureFile != "" {
		cfg.Output.CaptureFile = opts.CaptureFile
	}
	if opts.LogFile != "" {
		cfg.Output.LogFile = opts.LogFile
	}
	if opts.MetricsCSV != "" {
		cfg.Output.MetricsCSV = opts.MetricsCSV
	}
	if opts.MetricsJSON != "" {
		cfg.Output.MetricsJSON = opts.MetricsJSON
	}
	if opts.TimeoutSec > 0 {
		cfg.TimeoutSec = opts.TimeoutSec
	}
	if opts.EchoLimit > 0 {
		cfg.Network.EchoLimit = opts.EchoLimit
	}
	if opts.SkipKeyDump {
		cfg.Network.SkipKeyDump = true
	}
	switch {
	case opts.Debug:
		cfg.Output.LogLevel = "debug"
	case opts.Verbose:
		cfg.Output.LogLevel = "verbose"
	}

	if err := config.ValidateRunConfig(cfg); err != nil {
		path := opts.ConfigPath
		if path == "" {
			path = "command line"
		}
		return nil, zbErrors.WrapConfigError(err, path)
	}
	return cfg, nil
}

// newLogger opens the logger the config asks for.
func newLogger(cfg *config.RunConfig) (*logging.Logger, error) {
	level, ok := logging.ParseLevel(cfg.Output.LogLevel)
	if !ok {
		level = logging.LogLevelInfo
	}
	logger, err := logging.NewLogger(level, cfg.Output.LogFile)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

// Prepare wires a validated config into a run. A nil logger opens the one
// the config names; the run then owns and closes it.
func Prepare(cfg *config.RunConfig, logger *logging.Logger) (*Run, error) {
	r := &Run{ID: uuid.NewString(), Config: cfg, Logger: logger}
	if r.Logger == nil {
		l, err := newLogger(cfg)
		if err != nil {
			return nil, err
		}
		r.Logger, r.ownsLogger = l, true
	}
	if err := r.wire(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Run) wire() error {
	cfg := r.Config

	order, err := cfg.ByteOrder()
	if err != nil {
		return err
	}
	version := cfg.Protocol.Version
	if version == 0 {
		version = protocol.ProtocolVersion
	}
	// scripts encode frames, so options go first
	protocol.SetOptions(protocol.Options{ByteOrder: order, Version: version})

	params, err := scenario.ParamsFromConfig(cfg)
	if err != nil {
		return err
	}
	sc, err := scenario.GetScenario(cfg.Scenario, params)
	if err != nil {
		return err
	}
	r.Scenario = sc

	opts := transport.DefaultOptions()
	if cfg.Loopback.IdleWaitMs > 0 {
		opts.IdleWait = time.Duration(cfg.Loopback.IdleWaitMs) * time.Millisecond
	}
	if transport.IsLoopback(cfg.Transport) {
		script := sc.Script()
		if err := applyLoopbackOverrides(script, cfg.Loopback); err != nil {
			return err
		}
		opts.Script = script
	}
	tr, err := transport.ParseWithOptions(cfg.Transport, opts)
	if err != nil {
		return zbErrors.WrapTransportError(err, cfg.Transport)
	}
	if cfg.Output.CaptureFile != "" {
		w, err := capture.Create(cfg.Output.CaptureFile)
		if err != nil {
			tr.Close()
			return fmt.Errorf("create capture: %w", err)
		}
		r.capture = w
		tr = transport.NewRecording(tr, w)
	}
	r.transportName = tr.String()

	required, err := cfg.RequiredEntries()
	if err != nil {
		tr.Close()
		return err
	}
	if len(required) == 0 {
		required = sc.Required()
	}
	ignore, err := cfg.IgnoredCalls()
	if err != nil {
		tr.Close()
		return err
	}

	s, err := session.New(session.Config{
		Transport: tr,
		Logger:    r.Logger,
		Verifier:  verify.New(required, ignore, r.Logger),
	})
	if err != nil {
		tr.Close()
		return zbErrors.WrapTransportError(err, r.transportName)
	}
	r.Session = s
	sc.Attach(s)

	r.Sink = metrics.NewSink(r.ID, sc.Name())
	s.Observe(func(ev session.Event) { r.Sink.Observe(ev) })
	return nil
}

// Execute drives the session until the scenario is done, ctx ends or the
// configured timeout passes.
func (r *Run) Execute(ctx context.Context) (*Result, error) {
	cfg := r.Config
	if cfg.TimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSec)*time.Second)
		defer cancel()
	}

	r.Logger.LogStartup(r.ID, r.Scenario.Name(), r.transportName, r.ConfigPath)
	start := time.Now()
	err := r.Session.Run(ctx, r.Scenario.Done)
	elapsed := time.Since(start)

	v := r.Session.Verifier()
	res := &Result{
		RunID:     r.ID,
		Scenario:  r.Scenario.Name(),
		Transport: r.transportName,
		Elapsed:   elapsed,
		Completed: v.Done(),
		Verify:    v.Stats(),
		Session:   r.Session.Stats(),
		Summary:   r.Sink.GetSummary(),
	}
	for _, e := range v.Pending() {
		res.Pending = append(res.Pending, e.String())
	}

	// a replay that runs dry has delivered everything it recorded
	if errors.Is(err, transport.ErrExhausted) {
		err = nil
	}
	switch {
	case err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled):
		return res, zbErrors.WrapTransportError(err, r.transportName)
	case !res.Completed:
		if err == nil {
			err = ErrIncomplete
		}
		return res, zbErrors.WrapScenarioError(err, res.Scenario, res.Pending)
	}
	r.Logger.Info("Scenario %s complete in %s", res.Scenario, elapsed.Round(time.Millisecond))
	return res, nil
}

// WriteMetrics writes every recorded frame to the configured metrics files.
func (r *Run) WriteMetrics() error {
	out := r.Config.Output
	if out.MetricsCSV == "" && out.MetricsJSON == "" {
		return nil
	}
	w, err := metrics.NewWriter(out.MetricsCSV, out.MetricsJSON)
	if err != nil {
		return fmt.Errorf("create metrics writer: %w", err)
	}
	for _, m := range r.Sink.GetMetrics() {
		if err := w.WriteMetric(m); err != nil {
			w.Close()
			return fmt.Errorf("write metric: %w", err)
		}
	}
	return w.Close()
}

// Close releases the session, the capture file and an owned logger.
func (r *Run) Close() error {
	var errs []error
	if r.Session != nil {
		if err := r.Session.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.capture != nil {
		if err := r.capture.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.ownsLogger && r.Logger != nil {
		if err := r.Logger.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RunScenario is the non-interactive `zbncp run`.
func RunScenario(opts RunOptions) error {
	cfg, err := LoadRunConfig(opts)
	if err != nil {
		return err
	}
	r, err := Prepare(cfg, nil)
	if err != nil {
		return err
	}
	defer r.Close()
	r.ConfigPath = opts.ConfigPath

	fmt.Fprintf(os.Stdout, "zbncp run %s\n", r.ID)
	fmt.Fprintf(os.Stdout, "  Scenario: %s (role %s)\n", r.Scenario.Name(), cfg.Network.Role)
	fmt.Fprintf(os.Stdout, "  Transport: %s\n", r.transportName)
	fmt.Fprintf(os.Stdout, "  Required calls: %d\n", r.Session.Verifier().Required())
	if cfg.Output.CaptureFile != "" {
		fmt.Fprintf(os.Stdout, "  Capture: %s\n", cfg.Output.CaptureFile)
	}
	fmt.Fprintf(os.Stdout, "  Press Ctrl+C to stop\n\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			r.Logger.Info("Received interrupt signal, shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	var bar *progress.SequenceBar
	var counter *progress.FrameCounter
	switch {
	case opts.Progress && transport.IsReplay(cfg.Transport):
		// a replay runs as fast as the file reads; count frames instead
		counter = progress.NewFrameCounter("replay", 100*time.Millisecond)
		r.Session.OnPoll(func(context.Context) error {
			st := r.Session.Stats()
			counter.Update(st.Sent, st.Received, "")
			return nil
		})
	case opts.Progress:
		v := r.Session.Verifier()
		bar = progress.NewSequenceBar(v.Required(), r.Scenario.Name())
		r.Session.OnPoll(func(context.Context) error {
			last, _ := r.Session.Last()
			bar.Set(v.Stats().Matched, last.Header.CallID.String())
			return nil
		})
	}

	res, runErr := r.Execute(ctx)
	if bar != nil {
		bar.Set(res.Verify.Matched, "")
		bar.Finish()
	}
	if counter != nil {
		counter.Finish(res.Session.Sent, res.Session.Received,
			fmt.Sprintf("%d/%d required", res.Verify.Matched, res.Verify.Matched+res.Verify.Remaining))
	}

	if err := r.WriteMetrics(); err != nil {
		r.Logger.Error("Failed to write metrics: %v", err)
	}

	if opts.Verbose || opts.Debug {
		fmt.Fprintf(os.Stdout, "\n%s", metrics.FormatSummary(res.Summary))
	}
	fmt.Fprintf(os.Stdout, "%s\n", FormatResult(res))
	return runErr
}

// FormatResult is the one-line outcome printed after a run.
func FormatResult(res *Result) string {
	state := "completed"
	if !res.Completed {
		state = fmt.Sprintf("INCOMPLETE (%d pending)", len(res.Pending))
	}
	return fmt.Sprintf("Scenario '%s' %s in %.2fs (%d/%d required calls, %d frames, %d failed, %d mismatches)",
		res.Scenario, state, res.Elapsed.Seconds(),
		res.Verify.Matched, res.Verify.Matched+res.Verify.Remaining,
		res.Summary.TotalFrames, res.Summary.Failures, res.Verify.Mismatched)
}
