package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/motionctl/internal/analysis"
	"github.com/san-kum/motionctl/internal/auto"
	"github.com/san-kum/motionctl/internal/canbus"
	"github.com/san-kum/motionctl/internal/config"
	"github.com/san-kum/motionctl/internal/dynamo"
	"github.com/san-kum/motionctl/internal/experiment"
	"github.com/san-kum/motionctl/internal/export"
	"github.com/san-kum/motionctl/internal/hardware"
	"github.com/san-kum/motionctl/internal/motion"
	"github.com/san-kum/motionctl/internal/optim"
	"github.com/san-kum/motionctl/internal/storage"
	"github.com/san-kum/motionctl/internal/telemetry"
	"github.com/san-kum/motionctl/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string

	routine     string
	integrator  string
	tick        float64
	duration    float64
	linger      float64
	freezeAfter float64
	textfile    string
	noSave      bool

	v0       float64
	maxVel   float64
	maxAccel float64
	maxDecel float64
	step     float64

	series string
	svgOut string

	sweepParams []string
	sweepMetric string
	sweepTop    int

	canIface    string
	metricsAddr string
	mqttBroker  string

	log *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "motionctl",
		Short: "motion profiles and autonomous routines for a drivetrain",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			log = l
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".motionctl", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	profileCmd := &cobra.Command{
		Use:   "profile [current] [target]",
		Short: "generate and plot a motion profile",
		Args:  cobra.ExactArgs(2),
		RunE:  plotProfile,
	}
	profileCmd.Flags().Float64Var(&v0, "v0", 0, "current velocity")
	profileCmd.Flags().Float64Var(&maxVel, "max-vel", 0.5, "velocity limit")
	profileCmd.Flags().Float64Var(&maxAccel, "max-accel", 0.5, "acceleration limit")
	profileCmd.Flags().Float64Var(&maxDecel, "max-decel", 1.0, "deceleration limit")
	profileCmd.Flags().Float64Var(&step, "step", 0.02, "sample period")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate an autonomous routine",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&textfile, "textfile", "", "write final metrics in prometheus text format")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().StringVar(&mqttBroker, "mqtt", "", "mirror samples to this MQTT broker (host:port)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "step a simulated routine interactively",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run telemetry",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&series, "series", "", "series to plot (default: all of "+strings.Join(viz.SeriesNames(), ", ")+")")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and samples as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the run path, or one series with --series, as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&series, "series", "", "series to draw instead of the path")
	exportSVGCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default stdout)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "tracking error, overshoot and ringing per move",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		RunE:  listPresets,
	}

	routinesCmd := &cobra.Command{
		Use:   "routines",
		Short: "list autonomous routines",
		RunE:  listRoutines,
	}
	routinesCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search controller gains in simulation",
		Example: "  motionctl sweep --param linear.kp=0.5,1,1.5 --param angular.kd=0,0.1\n" +
			"  motionctl sweep --preset practice --metric tracking_max",
		Args: cobra.NoArgs,
		RunE: runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "gain and values, e.g. linear.kp=0.5,1,1.5")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "tracking_rms", "metric to minimise")
	sweepCmd.Flags().IntVar(&sweepTop, "top", 5, "trials to show")

	driveCmd := &cobra.Command{
		Use:   "drive",
		Short: "run a routine on the robot over CAN",
		Args:  cobra.NoArgs,
		RunE:  runDrive,
	}
	addRunFlags(driveCmd)
	driveCmd.Flags().StringVar(&canIface, "interface", "", "CAN interface (default from config)")
	driveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	driveCmd.Flags().StringVar(&textfile, "textfile", "", "write final metrics in prometheus text format")
	driveCmd.Flags().StringVar(&mqttBroker, "mqtt", "", "mirror samples to this MQTT broker (host:port)")

	rootCmd.AddCommand(profileCmd, runCmd, liveCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd,
		exportCSVCmd, exportSVGCmd, presetsCmd, routinesCmd, sweepCmd, driveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&routine, "routine", config.DefaultRoutine, "autonomous routine")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "plant integrator (euler, rk4)")
	cmd.Flags().Float64Var(&tick, "tick", config.DefaultTick, "control period in seconds")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "timeout in seconds")
	cmd.Flags().Float64Var(&linger, "linger", config.DefaultLinger, "seconds to keep running after DONE")
	cmd.Flags().Float64Var(&freezeAfter, "freeze-after", 0, "stop updating drive sensors after this many seconds (0 = never)")
}

// loadConfig layers the preset, then the config file, then any flags the
// user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p, err := config.GetPreset(preset)
		if err != nil {
			return nil, fmt.Errorf("%w (available: %v)", err, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}

	flags := cmd.Flags()
	if flags.Changed("routine") {
		cfg.Routine = routine
	}
	if flags.Changed("integrator") {
		cfg.Sim.Integrator = integrator
	}
	if flags.Changed("tick") {
		cfg.Tick = tick
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("linger") {
		cfg.Linger = linger
	}
	if flags.Changed("freeze-after") {
		cfg.Sim.FreezeAfter = freezeAfter
	}
	if flags.Changed("textfile") {
		cfg.Telemetry.Textfile = textfile
	}
	if flags.Changed("mqtt") {
		cfg.Telemetry.MQTT.Broker = mqttBroker
	}
	if flags.Changed("interface") {
		cfg.CAN.Interface = canIface
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func plotProfile(cmd *cobra.Command, args []string) error {
	current, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("current position: %w", err)
	}
	target, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("target position: %w", err)
	}

	lim := motion.Limits{MaxVelocity: maxVel, MaxAccel: maxAccel, MaxDecel: maxDecel}
	p, err := motion.Generate(v0, current, target, lim)
	if err != nil {
		return err
	}

	fmt.Printf("duration: %.3fs\n", p.Duration())
	fmt.Printf("peak velocity: %.3f\n", p.PeakVelocity())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tDURATION\tDISTANCE\tV0\tV1")
	for _, c := range p.Chunks() {
		fmt.Fprintf(w, "%s\t%.3fs\t%.4f\t%.3f\t%.3f\n",
			c.Kind(), c.Duration(), c.TotalDistance(), c.StartVelocity(), c.EndVelocity())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(viz.ProfilePlot(p, step))
	return nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, preset, log)
	if err != nil {
		return err
	}
	exporter := telemetry.New()
	exp.AddObserver(exporter)
	if cfg.Telemetry.MQTT.Broker != "" {
		client, err := telemetry.DialMQTT(cfg.Telemetry.MQTT, log)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		exp.AddObserver(telemetry.NewPublisher(client, cfg.Telemetry.MQTT, log))
	}

	fmt.Printf("running %s...\n", cfg.Routine)
	start := time.Now()

	result, err := exp.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	exporter.ObserveResult(result)

	fmt.Printf("completed in %v\n", elapsed)
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(exp.Metadata(), result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	printResult(result)

	if cfg.Telemetry.Textfile != "" {
		if err := exporter.WriteTextfile(cfg.Telemetry.Textfile); err != nil {
			return fmt.Errorf("write textfile: %w", err)
		}
	}
	return nil
}

func printResult(result *dynamo.Result) {
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("states: %s\n", strings.Join(result.History, " -> "))
	switch {
	case result.Completed:
		fmt.Printf("done at: %.2fs\n", result.CompletedAt)
	case result.TimedOut:
		fmt.Println("timed out before DONE")
	}
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// the live view owns the terminal
	exp, err := experiment.New(cfg, preset, zap.NewNop())
	if err != nil {
		return err
	}
	r := exp.Parts().Sequencer.Routine()

	m := viz.NewModel(exp.Runner(), cfg.RunConfig(), r.Name, len(r.Steps))
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tROUTINE\tPRESET\tTIME\tTICK\tINTEG\tDONE\tRMS")

	for _, run := range runs {
		done := "-"
		if run.Completed {
			done = fmt.Sprintf("%.2fs", run.CompletedAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.3fs\t%s\t%s\t%.4f\n",
			run.ID,
			run.Routine,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Tick,
			run.Integrator,
			done,
			run.Metrics["tracking_rms"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("routine: %s\n", meta.Routine)
	fmt.Printf("samples: %d\n\n", len(samples))

	names := viz.SeriesNames()
	if series != "" {
		names = strings.Split(series, ",")
	}
	for _, name := range names {
		graph, err := viz.RunPlot(samples, strings.TrimSpace(name))
		if err != nil {
			return err
		}
		fmt.Println(graph)
		fmt.Println()
	}

	poses := viz.Trace(samples)
	c := viz.NewCanvas(60, 15, 4)
	viz.DrawPath(c, poses)
	fmt.Println("path:")
	fmt.Println(c.String())
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, samples)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteCSV(os.Stdout, samples)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	var svg string
	if series == "" {
		svg = export.PathSVG(viz.Trace(samples), 600, 600, "#00ff00")
	} else {
		values, err := viz.Series(samples, series)
		if err != nil {
			return err
		}
		svg = export.SeriesSVG(values, meta.Tick, 800, 300, "#00ff00")
	}
	if svg == "" {
		return fmt.Errorf("not enough samples to draw")
	}

	if svgOut == "" {
		fmt.Println(svg)
		return nil
	}
	return os.WriteFile(svgOut, []byte(svg), 0644)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	responses := analysis.Analyze(samples, meta.Tick)
	if len(responses) == 0 {
		fmt.Println("no profiled moves in run")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATE	START	DURATION	TARGET	OVERSHOOT	PEAK	FINAL	RMS	RING")
	for _, r := range responses {
		ring := "-"
		if r.RingHz > 0 {
			ring = fmt.Sprintf("%.2fHz", r.RingHz)
		}
		fmt.Fprintf(w, "%s\t%.2fs\t%.2fs\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%s\n",
			r.State, r.Start, r.Duration, r.Target, r.Overshoot, r.PeakError, r.FinalError, r.RMSError, ring)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		fmt.Fprintf(w, "%s\t%s\n", name, config.Describe(name))
	}
	return w.Flush()
}

func listRoutines(cmd *cobra.Command, args []string) error {
	var custom []auto.Routine
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		custom = cfg.Routines
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROUTINE\tSTATES")
	for _, name := range auto.Names(custom...) {
		r, err := auto.ParseRoutine(name, custom...)
		if err != nil {
			return err
		}
		states := make([]string, 0, len(r.Steps))
		for _, s := range r.Steps {
			states = append(states, s.Name)
		}
		fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(append(states, auto.StateDone), " -> "))
	}
	return w.Flush()
}

// parseParam splits "linear.kp=0.5,1,1.5".
func parseParam(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("parameter %q: expected name=v1,v2,...", s)
	}
	var values []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		values = append(values, v)
	}
	return strings.TrimSpace(name), values, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepParams) == 0 {
		return errors.New("at least one --param is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, p := range sweepParams {
		name, values, err := parseParam(p)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	start := time.Now()
	trials, err := gs.Search(context.Background(), cfg, sweepMetric, log)
	if err != nil {
		return err
	}
	fmt.Printf("%d trials in %v\n\n", len(trials), time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\t%s\t%s\tDONE\n", strings.ToUpper(sweepMetric), strings.ToUpper(strings.Join(names, "\t")))
	for i, t := range trials {
		if i >= sweepTop {
			break
		}
		vals := make([]string, len(names))
		for j, n := range names {
			vals[j] = strconv.FormatFloat(t.Params[n], 'g', 4, 64)
		}
		done := "-"
		if t.Result.Completed {
			done = fmt.Sprintf("%.2fs", t.Result.CompletedAt)
		}
		fmt.Fprintf(w, "%d\t%.6f\t%s\t%s\n", i+1, t.Score, strings.Join(vals, "\t"), done)
	}
	return w.Flush()
}

func runDrive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus, err := canbus.Dial(ctx, cfg.CAN.Interface)
	if err != nil {
		return err
	}
	defer bus.Close()

	exporter := telemetry.New()
	opts := []hardware.Option{hardware.WithLogger(log), hardware.WithTelemetry(exporter)}
	if cfg.Telemetry.MQTT.Broker != "" {
		client, err := telemetry.DialMQTT(cfg.Telemetry.MQTT, log)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		opts = append(opts, hardware.WithObserver(telemetry.NewPublisher(client, cfg.Telemetry.MQTT, log)))
	}
	loop, err := hardware.New(cfg, bus.Tx, opts...)
	if err != nil {
		return err
	}

	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: exporter.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	fmt.Printf("driving %s on %s...\n", cfg.Routine, cfg.CAN.Interface)
	result, runErr := loop.Run(ctx, bus.Rx)
	if result != nil {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		meta := storage.RunMetadata{
			Routine:    loop.Sequencer().Routine().Name,
			Preset:     preset,
			Tick:       cfg.Tick,
			Duration:   cfg.Duration,
			Integrator: "hardware",
		}
		runID, err := st.Save(meta, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
		printResult(result)
	}
	if cfg.Telemetry.Textfile != "" {
		if err := exporter.WriteTextfile(cfg.Telemetry.Textfile); err != nil {
			return fmt.Errorf("write textfile: %w", err)
		}
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}
