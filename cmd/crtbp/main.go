package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/crtbp/internal/analysis"
	"github.com/san-kum/crtbp/internal/config"
	"github.com/san-kum/crtbp/internal/crtbp"
	"github.com/san-kum/crtbp/internal/dynamo"
	"github.com/san-kum/crtbp/internal/experiment"
	"github.com/san-kum/crtbp/internal/export"
	"github.com/san-kum/crtbp/internal/frames"
	"github.com/san-kum/crtbp/internal/metrics"
	"github.com/san-kum/crtbp/internal/optim"
	"github.com/san-kum/crtbp/internal/physics"
	"github.com/san-kum/crtbp/internal/sim"
	"github.com/san-kum/crtbp/internal/storage"
	"github.com/san-kum/crtbp/internal/viz"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	settings config.Settings
	logger   = slog.Default()

	settingsFile string
	scenarioFile string
	preset       string
	mu           float64
	duration     float64
	samples      int
	integrator   string
	initState    []float64

	noSave    bool
	refine    bool
	point     int
	perturb   []float64
	plotModes bool
	inertial  bool
	outFile   string
	width     int
	height    int
	svgWidth  int
	secHeight int
	svgHeight int
	modeSpan  float64

	scanParam string
	scanFrom  float64
	scanTo    float64
	scanSteps int

	searchParams []string
	searchMetric string
	maximize     bool

	component string

	lyapDt     float64
	lyapDelta  float64
	lyapRenorm int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "crtbp",
		Short:         "circular restricted three-body problem lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&settingsFile, "settings", "", "settings file (default .crtbp.yaml)")
	pf.String("data", ".crtbp", "data directory")
	pf.BoolP("verbose", "v", false, "debug logging")
	pf.Float64("abs-tol", 0, "absolute tolerance override")
	pf.Float64("rel-tol", 0, "relative tolerance override")
	pf.Int("max-steps", 0, "step budget override")
	pf.Int("workers", 0, "concurrent propagations for scan (0 = unbounded)")
	for key, flag := range map[string]string{
		"data_dir":  "data",
		"verbose":   "verbose",
		"abs_tol":   "abs-tol",
		"rel_tol":   "rel-tol",
		"max_steps": "max-steps",
		"workers":   "workers",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "propagate a scenario and store the run",
		Args:  cobra.NoArgs,
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "conserved quantities and equilibria of a scenario",
		Args:  cobra.NoArgs,
		RunE:  showInfo,
	}
	scenarioFlags(infoCmd)

	lagrangeCmd := &cobra.Command{
		Use:   "lagrange",
		Short: "locate the five Lagrange points",
		Args:  cobra.NoArgs,
		RunE:  showLagrange,
	}
	lagrangeCmd.Flags().Float64Var(&mu, "mu", config.DefaultMu, "mass ratio")
	lagrangeCmd.Flags().BoolVar(&refine, "refine", false, "refine collinear points with Newton iteration")

	stabilityCmd := &cobra.Command{
		Use:   "stability",
		Short: "linear modes about a Lagrange point",
		Args:  cobra.NoArgs,
		RunE:  showStability,
	}
	stabilityCmd.Flags().Float64Var(&mu, "mu", config.DefaultMu, "mass ratio")
	stabilityCmd.Flags().IntVar(&point, "point", 4, "Lagrange point index (1-5)")
	stabilityCmd.Flags().Float64SliceVar(&perturb, "perturb", []float64{1e-3, 0, 0, 0}, "dx,dy,dvx,dvy")
	stabilityCmd.Flags().Float64Var(&modeSpan, "time", 20, "plot span")
	stabilityCmd.Flags().BoolVar(&plotModes, "plot", false, "plot x(t) and y(t)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().BoolVar(&inertial, "inertial", false, "convert to the inertial frame")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().BoolVar(&inertial, "inertial", false, "convert to the inertial frame and add the primaries")
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw a stored run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().BoolVar(&inertial, "inertial", false, "draw in the inertial frame with the primary tracks")
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "canvas width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 800, "canvas height")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scenario presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	zvcCmd := &cobra.Command{
		Use:   "zvc [run_id]",
		Short: "draw the zero-velocity curves of a run or scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  drawZVC,
	}
	scenarioFlags(zvcCmd)
	zvcCmd.Flags().IntVar(&width, "width", 80, "columns")
	zvcCmd.Flags().IntVar(&height, "height", 36, "rows")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "propagate a family of initial states concurrently",
		Args:  cobra.NoArgs,
		RunE:  scanStates,
	}
	scenarioFlags(scanCmd)
	scanCmd.Flags().StringVar(&scanParam, "param", "x", "state component to vary (x, y, z, vx, vy, vz)")
	scanCmd.Flags().Float64Var(&scanFrom, "from", -0.01, "first offset")
	scanCmd.Flags().Float64Var(&scanTo, "to", 0.01, "last offset")
	scanCmd.Flags().IntVar(&scanSteps, "steps", 11, "number of states")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "grid search scenario parameters for the best metric value",
		Args:  cobra.NoArgs,
		RunE:  searchGrid,
	}
	scenarioFlags(searchCmd)
	searchCmd.Flags().StringArrayVar(&searchParams, "param", nil, "grid axis name=from:to:count (mu, time, x, y, z, vx, vy, vz)")
	searchCmd.Flags().StringVar(&searchMetric, "metric", "closest_primary2", "metric to optimize")
	searchCmd.Flags().BoolVar(&maximize, "maximize", false, "maximize instead of minimize")

	poincareCmd := &cobra.Command{
		Use:   "poincare",
		Short: "surface of section y=0 of a planar scenario",
		Args:  cobra.NoArgs,
		RunE:  drawPoincare,
	}
	scenarioFlags(poincareCmd)
	poincareCmd.Flags().Float64Var(&lyapDt, "dt", 0.005, "fixed step")
	poincareCmd.Flags().IntVar(&width, "width", 80, "columns")
	poincareCmd.Flags().IntVar(&secHeight, "height", 24, "rows")

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "dominant frequency of a stored run component",
		Args:  cobra.ExactArgs(1),
		RunE:  showSpectrum,
	}
	spectrumCmd.Flags().StringVar(&component, "component", "x", "state component (x, y, z, vx, vy, vz)")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov",
		Short: "estimate the largest Lyapunov exponent of a scenario",
		Args:  cobra.NoArgs,
		RunE:  estimateLyapunov,
	}
	scenarioFlags(lyapunovCmd)
	lyapunovCmd.Flags().Float64Var(&lyapDt, "dt", 0.005, "fixed step")
	lyapunovCmd.Flags().Float64Var(&lyapDelta, "delta", 1e-9, "initial separation")
	lyapunovCmd.Flags().IntVar(&lyapRenorm, "renorm", 20, "steps between renormalizations")

	rootCmd.AddCommand(runCmd, infoCmd, lagrangeCmd, stabilityCmd, listCmd, plotCmd,
		exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, zvcCmd, scanCmd, searchCmd, poincareCmd, spectrumCmd, lyapunovCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() error {
	if settingsFile != "" {
		viper.SetConfigFile(settingsFile)
	} else {
		viper.SetConfigName(".crtbp")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}
	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if settingsFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("settings: %w", err)
		}
	}

	s, err := config.LoadSettings(viper.GetViper())
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	settings = s

	level := slog.LevelInfo
	if settings.Verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func scenarioFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "default", "scenario preset")
	f.StringVar(&scenarioFile, "scenario", "", "scenario file (yaml), overrides --preset")
	f.Float64Var(&mu, "mu", config.DefaultMu, "mass ratio")
	f.Float64Var(&duration, "time", config.DefaultDuration, "propagation span (negative for backward)")
	f.IntVar(&samples, "samples", config.DefaultSamples, "output samples")
	f.StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator (rk45, rk4)")
	f.Float64SliceVar(&initState, "state", nil, "initial synodic state x,y,z,vx,vy,vz")
}

// loadScenario resolves --scenario or --preset and layers explicit flags
// and settings on top.
func loadScenario(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if scenarioFile != "" {
		c, err := config.Load(scenarioFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenario: %w", err)
		}
		cfg = c
	} else {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	f := cmd.Flags()
	if f.Changed("mu") {
		cfg.Mu = mu
	}
	if f.Changed("time") {
		cfg.Duration = duration
	}
	if f.Changed("samples") {
		cfg.Samples = samples
	}
	if f.Changed("integrator") {
		cfg.Integrator.Name = integrator
	}
	if f.Changed("state") {
		if len(initState) != 6 {
			return nil, fmt.Errorf("%w: --state needs 6 values, got %d", dynamo.ErrDimensionMismatch, len(initState))
		}
		cfg.InitState = config.InitStateConfig{
			X: initState[0], Y: initState[1], Z: initState[2],
			VX: initState[3], VY: initState[4], VZ: initState[5],
		}
	}
	settings.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.NewRegistry())
	exp.SetLogger(logger)
	if err := exp.Setup(); err != nil {
		return err
	}

	start := time.Now()
	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID := "(not saved)"
	if !noSave {
		st := storage.New(settings.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		if runID, err = st.Save(exp.Metadata(), result); err != nil {
			return err
		}
	}

	cj, _ := exp.System().Jacobi()
	rows := []viz.KV{
		{Key: "scenario", Value: cfg.Name},
		{Key: "mu", Value: fmtFloat(cfg.Mu)},
		{Key: "span", Value: fmtFloat(cfg.Duration)},
		{Key: "samples", Value: strconv.Itoa(result.Trajectory.Len())},
		{Key: "steps", Value: fmt.Sprintf("%d (%d rejected)", result.StepsTaken, result.StepsRejected)},
		{Key: "elapsed", Value: elapsed.Round(time.Microsecond).String()},
		{Key: "jacobi", Value: fmtFloat(cj)},
		{Key: "jacobi drift", Value: viz.DriftBadge(result.Metrics["jacobi_drift"], 1e-6)},
		{Key: "closest primary 1", Value: fmtFloat(result.Metrics["closest_primary1"])},
		{Key: "closest primary 2", Value: fmtFloat(result.Metrics["closest_primary2"])},
	}
	if c, ok := result.Metrics["confinement"]; ok {
		rows = append(rows, viz.KV{Key: "confinement", Value: fmt.Sprintf("%.1f%%", 100*c)})
	}
	rows = append(rows, viz.KV{Key: "x(t)", Value: viz.Sparkline(result.Trajectory.Component(0), 40)})

	fmt.Println(viz.Report("run "+runID, rows))
	return nil
}

func showInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	x0, err := cfg.GetInitState()
	if err != nil {
		return err
	}
	sys, err := crtbp.New(cfg.Mu, x0)
	if err != nil {
		return err
	}

	rows := []viz.KV{
		{Key: "mu", Value: fmtFloat(sys.Mu())},
		{Key: "X0", Value: fmt.Sprint([]float64(sys.InitialState()))},
	}
	if cj, err := sys.Jacobi(); err == nil {
		rows = append(rows, viz.KV{Key: "jacobi", Value: fmtFloat(cj)})
	} else {
		rows = append(rows, viz.KV{Key: "jacobi", Value: viz.Bad.Render(err.Error())})
	}
	if tp, err := sys.Tisserand(); err == nil {
		rows = append(rows, viz.KV{Key: "tisserand", Value: fmtFloat(tp)})
	}
	rows = append(rows, viz.KV{Key: "hill radius", Value: fmtFloat(sys.HillRadius())})

	points, err := sys.LagrangePoints()
	if err != nil {
		return err
	}
	for _, p := range points {
		rows = append(rows, viz.KV{
			Key:   fmt.Sprintf("L%d", p.Index),
			Value: fmt.Sprintf("(%.6f, %.6f) %s", p.X, p.Y, viz.StabilityBadge(analysis.IsStable(sys.Mu(), p.Index))),
		})
	}

	fmt.Println(viz.Report(cfg.Name, rows))
	return nil
}

func showLagrange(cmd *cobra.Command, args []string) error {
	points, err := physics.LagrangePoints(mu)
	if refine {
		points, err = physics.RefineLagrangePoints(mu)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POINT\tX\tY\tRESIDUAL\tSTABILITY")
	for _, p := range points {
		residual := "-"
		if p.Collinear() {
			residual = fmt.Sprintf("%.2e", physics.CollinearResidual(p.X, mu))
		}
		fmt.Fprintf(w, "L%d\t%.12f\t%.12f\t%s\t%s\n", p.Index, p.X, p.Y, residual, viz.StabilityBadge(analysis.IsStable(mu, p.Index)))
	}
	return w.Flush()
}

func showStability(cmd *cobra.Command, args []string) error {
	if len(perturb) != 4 {
		return fmt.Errorf("--perturb needs 4 values (dx,dy,dvx,dvy), got %d", len(perturb))
	}
	mode, err := analysis.StabilityFromState(perturb[0], perturb[1], perturb[2], perturb[3], mu, point)
	if err != nil {
		return err
	}

	rows := []viz.KV{
		{Key: "point", Value: fmt.Sprintf("L%d (%.6f, %.6f)", point, mode.Point.X, mode.Point.Y)},
		{Key: "stability", Value: viz.StabilityBadge(mode.Stable)},
		{Key: "growth rate", Value: fmtFloat(mode.GrowthRate())},
	}
	for k, l := range mode.Eigenvalues {
		rows = append(rows, viz.KV{Key: fmt.Sprintf("λ%d", k+1), Value: fmt.Sprintf("%.6f", l)})
	}
	fmt.Println(viz.Report(fmt.Sprintf("linear modes, mu=%g", mu), rows))

	if !plotModes {
		return nil
	}
	ts := make([]float64, 200)
	for i := range ts {
		ts[i] = modeSpan * float64(i) / float64(len(ts)-1)
	}
	xs, ys := mode.XY(ts)
	fmt.Println(asciigraph.Plot(xs, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption("x(t) - x_L")))
	fmt.Println()
	fmt.Println(asciigraph.Plot(ys, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption("y(t) - y_L")))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(settings.DataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tMU\tSPAN\tSAMPLES\tINTEG\tDRIFT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%d\t%s\t%.2e\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Mu,
			run.Duration,
			run.Samples,
			run.Integrator,
			run.Metrics["jacobi_drift"],
		)
	}
	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *dynamo.Trajectory, error) {
	st := storage.New(settings.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, err
	}
	if tr.Len() == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, tr, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s (mu=%g)\n", meta.Scenario, meta.Mu)
	fmt.Printf("samples: %d\n\n", tr.Len())

	for idx, caption := range []string{"x", "y", "z"} {
		graph := asciigraph.Plot(tr.Component(idx),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption+"(t), synodic"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	drift := make([]float64, tr.Len())
	for i, s := range tr.States() {
		cj, err := physics.Jacobi(s, meta.Mu)
		if err != nil {
			return err
		}
		drift[i] = cj - meta.Jacobi
	}
	fmt.Println(asciigraph.Plot(drift, asciigraph.Height(8), asciigraph.Width(80), asciigraph.Caption("CJ(t) - CJ(0)")))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if inertial {
		out, err := frames.SynodicToInertial(tr, meta.Mu)
		if err != nil {
			return err
		}
		tr = out.Trajectory
	}
	return storage.WriteCSV(os.Stdout, tr)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}
	data, err := storage.NewExportData(*meta, tr, inertial)
	if err != nil {
		return err
	}
	if outFile != "" {
		return storage.ExportJSON(outFile, data)
	}
	return storage.WriteJSON(os.Stdout, data)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	opts.Inertial = inertial
	opts.Width, opts.Height = svgWidth, svgHeight

	svg, err := export.TrajectorySVG(tr, meta.Mu, opts)
	if err != nil {
		return err
	}
	if outFile == "" {
		_, err = fmt.Print(svg)
		return err
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tMU\tSPAN\tSAMPLES\tINTEG\tSTART")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		start := "absolute"
		if p.InitState.RelativeTo != 0 {
			start = fmt.Sprintf("L%d offset", p.InitState.RelativeTo)
		}
		fmt.Fprintf(w, "%s\t%g\t%g\t%d\t%s\t%s\n", name, p.Mu, p.Duration, p.Samples, p.Integrator.Name, start)
	}
	return w.Flush()
}

func drawZVC(cmd *cobra.Command, args []string) error {
	var (
		runMu float64
		x0    dynamo.State
		tr    *dynamo.Trajectory
	)

	if len(args) == 1 {
		meta, loaded, err := loadRun(args[0])
		if err != nil {
			return err
		}
		runMu, x0, tr = meta.Mu, loaded.State(0), loaded
	} else {
		cfg, err := loadScenario(cmd)
		if err != nil {
			return err
		}
		if x0, err = cfg.GetInitState(); err != nil {
			return err
		}
		sys, err := crtbp.New(cfg.Mu, x0)
		if err != nil {
			return err
		}
		sys.SetLogger(logger)
		if tr, err = sys.Propagate(cmd.Context(), cfg.Duration, cfg.Samples); err != nil {
			return err
		}
		runMu = cfg.Mu
	}

	region, err := analysis.ForbiddenRegionFor(x0, runMu, analysis.DefaultBounds, width, height)
	if err != nil {
		return err
	}

	path := make([]analysis.Point2D, tr.Len())
	for i, s := range tr.States() {
		path[i] = analysis.Point2D{X: s[0], Y: s[1]}
	}

	fmt.Print(region.Render(path, width, height))
	fmt.Printf("CJ = %.9f  forbidden: %.1f%%  ● primary 1  ○ primary 2  • trajectory\n", region.Jacobi, 100*region.Fraction())
	return nil
}

var stateIndex = map[string]int{"x": 0, "y": 1, "z": 2, "vx": 3, "vy": 4, "vz": 5}

func scanStates(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	idx, ok := stateIndex[scanParam]
	if !ok {
		return fmt.Errorf("unknown state component: %s", scanParam)
	}
	if scanSteps < 1 {
		return fmt.Errorf("--steps must be positive")
	}

	base, err := cfg.GetInitState()
	if err != nil {
		return err
	}
	model, err := physics.NewCRTBP(cfg.Mu)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	if _, err := registry.GetIntegrator(cfg.Integrator.Name); err != nil {
		return err
	}

	offsets := make([]float64, scanSteps)
	x0s := make([]dynamo.State, scanSteps)
	for i := range offsets {
		if scanSteps > 1 {
			offsets[i] = scanFrom + (scanTo-scanFrom)*float64(i)/float64(scanSteps-1)
		} else {
			offsets[i] = scanFrom
		}
		x0s[i] = base.Clone()
		x0s[i][idx] += offsets[i]
	}

	factory := func() *sim.Propagator {
		integ, _ := registry.GetIntegrator(cfg.Integrator.Name)
		p := sim.New(model, integ)
		p.SetLogger(logger)
		p.AddMetric(metrics.NewJacobiDrift(model))
		for _, m := range registry.DefaultMetrics(cfg.Mu) {
			p.AddMetric(m)
		}
		return p
	}

	start := time.Now()
	results, errs := sim.NewEnsemble(factory, settings.Workers).RunAll(cmd.Context(), x0s, cfg.Duration, cfg.Samples, cfg.PropagatorConfig())
	logger.Debug("scan finished", "states", scanSteps, "elapsed", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "D%s\tCJ\tDRIFT\tMIN R1\tMIN R2\tSTATUS\n", scanParam)
	for i, res := range results {
		cj, _ := physics.Jacobi(x0s[i], cfg.Mu)
		if errs[i] != nil {
			fmt.Fprintf(w, "%+.6f\t%.9f\t-\t-\t-\t%s\n", offsets[i], cj, viz.Bad.Render(errs[i].Error()))
			continue
		}
		fmt.Fprintf(w, "%+.6f\t%.9f\t%.2e\t%.6f\t%.6f\t%s\n",
			offsets[i], cj,
			res.Metrics["jacobi_drift"],
			res.Metrics["closest_primary1"],
			res.Metrics["closest_primary2"],
			viz.Good.Render("ok"))
	}
	return w.Flush()
}

func searchGrid(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	if len(searchParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}

	params := make([]optim.Param, 0, len(searchParams))
	points := 1
	for _, raw := range searchParams {
		p, err := optim.ParseParam(raw)
		if err != nil {
			return err
		}
		params = append(params, p)
		points *= len(p.Values)
	}
	logger.Debug("grid search", "points", points, "metric", searchMetric, "maximize", maximize)

	best, err := optim.NewGridSearch(params, maximize).Search(cmd.Context(), optim.ScenarioBuilder(cfg, experiment.NewRegistry()), searchMetric)
	if err != nil {
		return err
	}

	rows := []viz.KV{
		{Key: "metric", Value: searchMetric},
		{Key: "best value", Value: fmtFloat(best.Value)},
		{Key: "evaluated", Value: strconv.Itoa(best.Evaluated)},
		{Key: "failed", Value: strconv.Itoa(best.Failed)},
	}
	for _, p := range params {
		rows = append(rows, viz.KV{Key: p.Name, Value: fmtFloat(best.Params[p.Name])})
	}
	fmt.Println(viz.Report("grid search: "+cfg.Name, rows))
	return nil
}

func drawPoincare(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	x0, err := cfg.GetInitState()
	if err != nil {
		return err
	}
	model, err := physics.NewCRTBP(cfg.Mu)
	if err != nil {
		return err
	}
	integ, err := experiment.NewRegistry().GetIntegrator("rk4")
	if err != nil {
		return err
	}

	section, err := analysis.PoincareSection(model, integ, x0, lyapDt, math.Abs(cfg.Duration))
	if err != nil {
		return err
	}

	fmt.Print(section.Render(width, secHeight))
	fmt.Printf("CJ = %.9f  crossings: %d\n", section.Jacobi, len(section.Points))
	return nil
}

func showSpectrum(cmd *cobra.Command, args []string) error {
	idx, ok := stateIndex[component]
	if !ok {
		return fmt.Errorf("unknown state component: %s", component)
	}
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	s, err := analysis.TrajectorySpectrum(tr, idx)
	if err != nil {
		return err
	}

	omega := s.Dominant()
	rows := []viz.KV{
		{Key: "component", Value: component},
		{Key: "dominant ω", Value: fmtFloat(omega)},
	}
	if omega > 0 {
		rows = append(rows, viz.KV{Key: "period", Value: fmtFloat(2 * math.Pi / omega)})
	}
	fmt.Println(viz.Report("spectrum "+meta.ID, rows))

	// Skip the constant bin and show the low end where librations live.
	amps := s.Amplitude[1:]
	if len(amps) > 200 {
		amps = amps[:200]
	}
	fmt.Println(asciigraph.Plot(amps, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption("amplitude by frequency bin")))
	return nil
}

func estimateLyapunov(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	x0, err := cfg.GetInitState()
	if err != nil {
		return err
	}
	model, err := physics.NewCRTBP(cfg.Mu)
	if err != nil {
		return err
	}
	integ, err := experiment.NewRegistry().GetIntegrator("rk4")
	if err != nil {
		return err
	}

	lambda, err := analysis.LyapunovExponent(model, integ, x0, lyapDt, cfg.Duration, lyapDelta, lyapRenorm)
	if err != nil {
		return err
	}

	verdict := viz.Good.Render("regular")
	if lambda > 0.05 {
		verdict = viz.Bad.Render("chaotic")
	}
	fmt.Println(viz.Report(cfg.Name, []viz.KV{
		{Key: "span", Value: fmtFloat(cfg.Duration)},
		{Key: "largest exponent", Value: fmtFloat(lambda)},
		{Key: "verdict", Value: verdict},
	}))
	return nil
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}
