package main

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/proxgrid/internal/codec"
	"github.com/verte-zerg/proxgrid/internal/config"
	"github.com/verte-zerg/proxgrid/internal/correction"
	"github.com/verte-zerg/proxgrid/internal/engine"
	"github.com/verte-zerg/proxgrid/internal/keyboard"
	"github.com/verte-zerg/proxgrid/internal/layout"
	"github.com/verte-zerg/proxgrid/internal/model"
	"github.com/verte-zerg/proxgrid/internal/proximity"
	"github.com/verte-zerg/proxgrid/internal/simulate"
	"github.com/verte-zerg/proxgrid/internal/stats"
	"github.com/verte-zerg/proxgrid/internal/store"
	"github.com/verte-zerg/proxgrid/internal/tui"
	"github.com/verte-zerg/proxgrid/internal/wordlist"
)

const (
	defaultGridWidth     = 32
	defaultGridHeight    = 16
	defaultLogLevel      = "warn"
	defaultLogFormat     = "text"
	defaultTopCells      = 5
	defaultHistoryWindow = 5
)

//go:embed qwerty.toml
var defaultLayout []byte

var (
	configPath   string
	dbPath       string
	layoutName   string
	gridWidth    int
	gridHeight   int
	logLevel     string
	logFormat    string
	noCorrection bool

	inspectTop       int
	inspectNoHeatmap bool

	lookupFrom               string
	lookupHysteresis         float64
	lookupModifierHysteresis float64

	exportOut    string
	exportFile   bool
	exportNoSave bool

	historyLayout string
	historySince  string
	historyLast   int
	historyWindow int

	simSamples  int
	simSigma    float64
	simSeed     int64
	simWordList string
	simNoSave   bool

	exploreWatch bool

	configPrint bool
)

var settings model.Settings

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "proxgrid",
		Short:             "Inspect the touch proximity grid of keyboard layouts",
		SilenceUsage:      true,
		PersistentPreRunE: prepare,
		RunE:              runExploreCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultConfigPath(), "config file")
	flags.StringVar(&dbPath, "db", config.DefaultDBPath(), "history database")
	flags.StringVarP(&layoutName, "layout", "l", "", "layout file or name (default: built-in qwerty)")
	flags.IntVar(&gridWidth, "grid-width", defaultGridWidth, "proximity grid columns")
	flags.IntVar(&gridHeight, "grid-height", defaultGridHeight, "proximity grid rows")
	flags.StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", defaultLogFormat, "log format (text, json)")
	flags.BoolVar(&noCorrection, "no-correction", false, "ignore the touch correction table of the layout")

	rootCmd.Flags().BoolVarP(&exploreWatch, "watch", "w", false, "reload the layout when its file changes")

	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newLookupCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newExploreCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLayoutsCmd())

	return rootCmd
}

// prepare merges the config file into the flags and installs the logger.
func prepare(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "grid-width", &gridWidth, fileCfg.Grid.Width)
	applyIntConfig(cmd, "grid-height", &gridHeight, fileCfg.Grid.Height)
	applyStringConfig(cmd, "layout", &layoutName, fileCfg.Layout.Path)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-format", &logFormat, fileCfg.Log.Format)
	applyIntConfig(cmd, "samples", &simSamples, fileCfg.Simulate.Samples)
	applyFloatConfig(cmd, "sigma", &simSigma, fileCfg.Simulate.Sigma)
	applyInt64Config(cmd, "seed", &simSeed, fileCfg.Simulate.Seed)
	applyStringConfig(cmd, "wordlist", &simWordList, fileCfg.Simulate.WordList)

	cfg := model.Settings{
		GridWidth:    gridWidth,
		GridHeight:   gridHeight,
		LayoutPath:   layoutName,
		NoCorrection: noCorrection,
		LogLevel:     logLevel,
		LogFormat:    logFormat,
		Samples:      simSamples,
		Sigma:        simSigma,
		Seed:         simSeed,
		WordList:     simWordList,
	}
	if err := validateSettings(cfg); err != nil {
		return err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	proximity.SetLogger(logger)

	settings = cfg
	return nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
			NoColor:    !isTerminal(w),
		})), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (want text or json)", format)
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the proximity grid of a layout",
		Args:  cobra.NoArgs,
		RunE:  runInspectCmd,
	}
	cmd.Flags().IntVar(&inspectTop, "top", defaultTopCells, "number of busiest cells to list")
	cmd.Flags().BoolVar(&inspectNoHeatmap, "no-heatmap", false, "skip the candidate heatmap")
	return cmd
}

func runInspectCmd(cmd *cobra.Command, _ []string) error {
	file, kb, err := loadKeyboard(settings)
	if err != nil {
		return err
	}
	corr, err := loadCorrection(file, settings)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	info := kb.ProximityInfo()
	report := stats.BuildGridReport(info)
	if err := stats.RenderGridReport(out, kb.Name(), report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderCorrection(out, corr); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if !inspectNoHeatmap {
		if err := stats.Heatmap(out, report, stats.HeatmapWidthFor(out)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	top := stats.TopCells(report, inspectTop)
	if len(top) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(out, "Busiest cells"); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for _, idx := range top {
		x, y := info.CellCenter(idx)
		labels := make([]string, 0, report.Counts[idx])
		for _, k := range info.Cell(idx) {
			labels = append(labels, keyboard.PrintableCode(k.Code()))
		}
		if _, err := fmt.Fprintf(out, "  cell %d at (%d, %d): %d keys %s\n",
			idx, x, y, report.Counts[idx], strings.Join(labels, " ")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup X Y",
		Short: "Show the keys near a touch point",
		Args:  cobra.ExactArgs(2),
		RunE:  runLookupCmd,
	}
	cmd.Flags().StringVar(&lookupFrom, "from", "", "key the pointer slides from (a character or a special key name)")
	cmd.Flags().Float64Var(&lookupHysteresis, "hysteresis", 0, "distance in px a sliding pointer must leave its key by")
	cmd.Flags().Float64Var(&lookupModifierHysteresis, "modifier-hysteresis", 0, "hysteresis when sliding from shift or the symbols key")
	return cmd
}

func runLookupCmd(cmd *cobra.Command, args []string) error {
	x, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid x %q: %w", args[0], err)
	}
	y, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid y %q: %w", args[1], err)
	}
	if lookupHysteresis < 0 || lookupModifierHysteresis < 0 {
		return fmt.Errorf("--hysteresis and --modifier-hysteresis must be >= 0")
	}
	_, kb, err := loadKeyboard(settings)
	if err != nil {
		return err
	}
	var from *keyboard.Key
	if lookupFrom != "" {
		if from, err = keyByName(kb, lookupFrom); err != nil {
			return err
		}
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderCandidates(out, kb, x, y); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	det := keyboard.NewDetector(lookupHysteresis, lookupModifierHysteresis)
	det.SetKeyboard(kb, 0, 0)
	hit := det.DetectMove(from, x, y)
	codes := lookupCodes(kb, hit, x, y)
	hitLabel := "none"
	if hit != nil {
		hitLabel = hit.String()
	}
	if _, err := fmt.Fprintf(out, "\nHit: %s\nCodes: %s\n", hitLabel, strings.Join(codes, " ")); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// lookupCodes returns what the decoder would receive for a touch at (x, y):
// the detected key hit followed by the printable nearby codes.
func lookupCodes(kb *keyboard.Keyboard, hit *keyboard.Key, x, y int) []string {
	primary := proximity.NotACode
	if hit != nil {
		primary = hit.Code()
	}
	dest := make([]int, proximity.MaxProximityCharsSize)
	kb.ProximityInfo().FillNearestKeyCodes(x, y, primary, dest)
	codes := make([]string, 0, len(dest))
	for _, code := range dest {
		if code == proximity.NotACode {
			break
		}
		codes = append(codes, keyboard.PrintableCode(code))
	}
	return codes
}

// keyByName finds the key named by a single character or a special key name.
func keyByName(kb *keyboard.Keyboard, name string) (*keyboard.Key, error) {
	code, ok := keyboard.SpecialCode(name)
	if !ok {
		runes := []rune(name)
		if len(runes) != 1 {
			return nil, fmt.Errorf("unknown key %q", name)
		}
		code = int(runes[0])
	}
	key := kb.KeyByCode(code)
	if key == nil {
		return nil, fmt.Errorf("layout %q has no key %q", kb.Name(), name)
	}
	return key, nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Encode the proximity payload of a layout",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "write the payload to this file")
	cmd.Flags().BoolVar(&exportFile, "file", false, "write the payload to the exports directory")
	cmd.Flags().BoolVar(&exportNoSave, "no-save", false, "do not record the export in the history database")
	cmd.AddCommand(&cobra.Command{
		Use:   "show ID",
		Short: "Decode a stored payload and print its summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportShowCmd,
	})
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	_, kb, err := loadKeyboard(settings)
	if err != nil {
		return err
	}
	payload := kb.ProximityInfo().Payload()
	if payload == nil {
		return fmt.Errorf("keyboard %q has no proximity grid", kb.Name())
	}
	if err := engine.Validate(payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	data, err := codec.MarshalPayload(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	var id int64
	if !exportNoSave {
		id, err = withStore(func(st *store.Store) (int64, error) {
			return st.InsertExport(cmd.Context(), model.ExportRecord{
				CreatedAt:  time.Now(),
				Layout:     kb.Name(),
				GridWidth:  payload.GridWidth,
				GridHeight: payload.GridHeight,
				KeyCount:   payload.KeyCount(),
				Correction: payload.HasSweetSpots(),
				Payload:    data,
			})
		})
		if err != nil {
			return fmt.Errorf("failed to save export: %w", err)
		}
	}

	path := exportOut
	if path == "" && exportFile {
		path = filepath.Join(config.DefaultExportDir(), exportFileName(kb.Name(), id, time.Now()))
	}
	if path != "" {
		if err := writeFileAtomic(path, data); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		slog.Info("payload written", "path", path, "bytes", len(data))
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Exported %s: %d keys, %dx%d grid, %d bytes\n",
		kb.Name(), payload.KeyCount(), payload.GridWidth, payload.GridHeight, len(data)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if id > 0 {
		if _, err := fmt.Fprintf(out, "Saved as export %d\n", id); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if path != "" {
		if _, err := fmt.Fprintf(out, "Wrote %s\n", path); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runExportShowCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid export id %q: %w", args[0], err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	rec, err := st.GetExport(cmd.Context(), id)
	if err != nil {
		return err
	}
	payload, err := codec.UnmarshalPayload(rec.Payload)
	if err != nil {
		return fmt.Errorf("failed to decode export %d: %w", id, err)
	}
	if err := engine.Validate(payload); err != nil {
		return fmt.Errorf("export %d is invalid: %w", id, err)
	}
	return renderPayload(cmd.OutOrStdout(), rec, payload)
}

func renderPayload(w io.Writer, rec model.ExportRecord, p *proximity.Payload) error {
	busiest, busiestCount := 0, 0
	for i := 0; i < p.GridSize(); i++ {
		if n := len(p.CellCodes(i)); n > busiestCount {
			busiest, busiestCount = i, n
		}
	}
	_, err := fmt.Fprintf(w, "Export %d (%s)\n  layout      %s\n  grid        %dx%d\n  keyboard    %dx%d px, most common key %dx%d px\n  keys        %d\n  correction  %s\n  busiest     cell %d with %d codes\n  size        %d bytes\n",
		rec.ID, rec.CreatedAt.Format("2006-01-02 15:04"),
		rec.Layout,
		p.GridWidth, p.GridHeight,
		p.KeyboardWidth, p.KeyboardHeight, p.MostCommonKeyWidth, p.MostCommonKeyHeight,
		p.KeyCount(),
		onOff(p.HasSweetSpots()),
		busiest, busiestCount,
		len(rec.Payload),
	)
	return err
}

func exportFileName(layoutName string, id int64, now time.Time) string {
	if id > 0 {
		return fmt.Sprintf("%s-%d.msgpack", layoutName, id)
	}
	return fmt.Sprintf("%s-%s.msgpack", layoutName, now.Format("20060102-150405"))
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored exports and simulation runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyLayout, "for", "", "layout name filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N records")
	cmd.Flags().IntVar(&historyWindow, "window", defaultHistoryWindow, "moving average window")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	filter := model.HistoryFilter{
		Layout: historyLayout,
		Since:  sinceTime,
		Last:   historyLast,
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	h, err := stats.BuildHistory(cmd.Context(), st, filter)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	return stats.RenderHistory(cmd.OutOrStdout(), h, historyWindow)
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay noisy touches and measure key recovery",
		Args:  cobra.NoArgs,
		RunE:  runSimulateCmd,
	}
	cmd.Flags().IntVar(&simSamples, "samples", simulate.DefaultSamples, "number of touches")
	cmd.Flags().Float64Var(&simSigma, "sigma", simulate.DefaultSigma, "touch noise in key widths")
	cmd.Flags().Int64Var(&simSeed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&simWordList, "wordlist", "", "word list file (default: built-in)")
	cmd.Flags().BoolVar(&simNoSave, "no-save", false, "do not record the run in the history database")
	return cmd
}

func runSimulateCmd(cmd *cobra.Command, _ []string) error {
	_, kb, err := loadKeyboard(settings)
	if err != nil {
		return err
	}
	words, err := loadWords(settings.WordList)
	if err != nil {
		return err
	}
	words = wordlist.Filter(words, wordlist.FilterForKeyboard(kb))
	if len(words) == 0 {
		return fmt.Errorf("no word of the list can be typed on %q", kb.Name())
	}

	mem := engine.NewMemory()
	handle, err := kb.ProximityInfo().Attach(mem)
	if err != nil {
		return err
	}
	defer func() {
		_ = handle.Close()
		slog.Debug("engine released", "live", mem.Live(), "released", mem.Released())
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sim := simulate.New(kb, simulate.Options{
		Samples: settings.Samples,
		Sigma:   settings.Sigma,
		Seed:    settings.Seed,
	})
	res, err := sim.Run(ctx, words)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := stats.RenderSimulation(out, res); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderKeyTable(out, res.Keys); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if simNoSave {
		return nil
	}
	_, err = withStore(func(st *store.Store) (int64, error) {
		return st.InsertSimulation(cmd.Context(), model.SimulationRecord{
			CreatedAt: time.Now(),
			Layout:    kb.Name(),
			Sigma:     sim.Options().Sigma,
			Result:    res,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to save simulation: %w", err)
	}
	return nil
}

func loadWords(path string) ([]string, error) {
	if path == "" {
		return wordlist.Builtin(), nil
	}
	words, err := wordlist.LoadWords(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load word list: %w", err)
	}
	return words, nil
}

func newExploreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Browse the proximity grid interactively",
		Args:  cobra.NoArgs,
		RunE:  runExploreCmd,
	}
	cmd.Flags().BoolVarP(&exploreWatch, "watch", "w", false, "reload the layout when its file changes")
	return cmd
}

func runExploreCmd(_ *cobra.Command, _ []string) error {
	cfg := settings
	file, kb, err := loadKeyboard(cfg)
	if err != nil {
		return err
	}
	opts := tui.Options{
		Engine: engine.NewMemory(),
		Reload: func() (*keyboard.Keyboard, error) {
			_, kb, err := loadKeyboard(cfg)
			return kb, err
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if exploreWatch {
		if file.Path() == "" {
			return fmt.Errorf("--watch needs a layout file (see --layout)")
		}
		watcher, err := layout.Watch(file.Path())
		if err != nil {
			return fmt.Errorf("failed to watch layout: %w", err)
		}
		defer func() {
			_ = watcher.Close()
		}()
		updates := make(chan *keyboard.Keyboard, 1)
		go forwardLayouts(ctx, watcher, cfg, updates)
		opts.Updates = updates
	}

	m := tui.NewModel(kb, opts)
	defer func() {
		_ = m.Close()
	}()
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// forwardLayouts builds every reloaded layout and hands the keyboard to the
// explorer. A pending keyboard is replaced by a newer one.
func forwardLayouts(ctx context.Context, w *layout.Watcher, cfg model.Settings, out chan *keyboard.Keyboard) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.Errors():
			slog.Warn("layout watch failed", "err", err)
		case file := <-w.Updates():
			kb, err := buildKeyboard(file, cfg)
			if err != nil {
				slog.Warn("layout rebuild failed", "path", file.Path(), "err", err)
				continue
			}
			select {
			case <-out:
			default:
			}
			select {
			case out <- kb:
			case <-ctx.Done():
				return
			}
		}
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
	// The file may be broken, so it is not parsed before opening the editor.
	cmd.PersistentPreRunE = func(*cobra.Command, []string) error { return nil }
	cmd.Flags().BoolVar(&configPrint, "print", false, "print the default config instead of opening an editor")
	return cmd
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	if configPrint {
		if _, err := fmt.Fprint(cmd.OutOrStdout(), defaultConfigTemplate()); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	editCmd := exec.Command(parts[0], append(parts[1:], path)...)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	if err := editCmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newLayoutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List installed layouts",
		Args:  cobra.NoArgs,
		RunE:  runLayoutsCmd,
	}
}

func runLayoutsCmd(cmd *cobra.Command, _ []string) error {
	dir := config.DefaultLayoutDir()
	paths, err := layout.List(dir)
	if err != nil {
		return fmt.Errorf("failed to list layouts: %w", err)
	}
	if len(paths) == 0 {
		logErrf("No layouts found in %s. The built-in qwerty layout is used.\n", dir)
		return nil
	}
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, path); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// loadKeyboard reads the configured layout, falling back to the built-in one,
// and builds its keyboard.
func loadKeyboard(cfg model.Settings) (*layout.File, *keyboard.Keyboard, error) {
	file, err := loadLayout(cfg.LayoutPath)
	if err != nil {
		return nil, nil, err
	}
	kb, err := buildKeyboard(file, cfg)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("keyboard built",
		"layout", kb.Name(),
		"keys", len(kb.Keys()),
		"width", kb.OccupiedWidth(),
		"height", kb.OccupiedHeight(),
		"grid", fmt.Sprintf("%dx%d", cfg.GridWidth, cfg.GridHeight))
	return file, kb, nil
}

func buildKeyboard(file *layout.File, cfg model.Settings) (*keyboard.Keyboard, error) {
	corr, err := loadCorrection(file, cfg)
	if err != nil {
		return nil, err
	}
	kb, err := file.BuildWith(cfg.GridWidth, cfg.GridHeight, corr)
	if err != nil {
		return nil, fmt.Errorf("failed to build layout %q: %w", file.Name, err)
	}
	return kb, nil
}

// loadCorrection parses the correction table of file and switches it off when
// the settings ask for it.
func loadCorrection(file *layout.File, cfg model.Settings) (*correction.Model, error) {
	corr, err := file.Correction()
	if err != nil {
		return nil, fmt.Errorf("failed to build layout %q: %w", file.Name, err)
	}
	if cfg.NoCorrection {
		corr.SetEnabled(false)
	}
	return corr, nil
}

func loadLayout(name string) (*layout.File, error) {
	if name == "" {
		file, err := layout.Parse(defaultLayout, ".toml")
		if err != nil {
			return nil, fmt.Errorf("failed to parse built-in layout: %w", err)
		}
		return file, nil
	}
	path, err := layout.Resolve(config.DefaultLayoutDir(), name)
	if err != nil {
		return nil, err
	}
	file, err := layout.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load layout: %w", err)
	}
	return file, nil
}

func withStore(fn func(st *store.Store) (int64, error)) (int64, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	return fn(st)
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "export-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush payload: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close payload: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# proxgrid configuration
# Uncomment a value to enable it. CLI flags override config values.

[grid]
# width = %d              # Proximity grid columns
# height = %d             # Proximity grid rows

[layout]
# path = "qwerty"         # Layout file, or a name looked up in the layouts directory

[log]
# level = %q          # debug, info, warn or error
# format = %q         # text or json

[simulate]
# samples = %d          # Touches per simulation run
# sigma = %.2f            # Touch noise in most common key widths
# seed = 1                # Random seed
# wordlist = ""           # Word list file, one word per line
`,
		defaultGridWidth,
		defaultGridHeight,
		defaultLogLevel,
		defaultLogFormat,
		simulate.DefaultSamples,
		simulate.DefaultSigma,
	)
}

func validateSettings(cfg model.Settings) error {
	if cfg.GridWidth <= 0 {
		return fmt.Errorf("--grid-width must be > 0")
	}
	if cfg.GridHeight <= 0 {
		return fmt.Errorf("--grid-height must be > 0")
	}
	if cfg.Samples < 0 {
		return fmt.Errorf("--samples must be >= 0")
	}
	if cfg.Sigma < 0 {
		return fmt.Errorf("--sigma must be >= 0")
	}
	return nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
