package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/Peragore/iqcToolbox/internal/analysis"
	"github.com/Peragore/iqcToolbox/internal/config"
	"github.com/Peragore/iqcToolbox/internal/export"
	"github.com/Peragore/iqcToolbox/internal/storage"
)

var (
	dataDir    string
	preset     string
	verbose    bool
	lmiShift   float64
	timeout    time.Duration
	noSave     bool
	svgPath    string
	headerTint = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	okTint     = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	badTint    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	labelTint  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "iqctool",
		Short: "worst-case performance analysis for uncertain periodic systems",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".iqctool", "data directory")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [config.yaml]",
		Short: "certify a worst-case gain bound",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeSystem,
	}
	analyzeCmd.Flags().StringVar(&preset, "preset", "", "use a built-in example system")
	analyzeCmd.Flags().BoolVar(&verbose, "verbose", false, "progress diagnostics on stderr")
	analyzeCmd.Flags().Float64Var(&lmiShift, "shift", 0, "strict-inequality margin")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 0, "abort the solve after this long")
	analyzeCmd.Flags().BoolVar(&noSave, "no-save", false, "skip persisting the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "also write the certificate trace as SVG")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in example systems",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(analyzeCmd, listCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func analyzeSystem(cmd *cobra.Command, args []string) error {
	var cfg *config.Config
	switch {
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	case len(args) == 1:
		var err error
		cfg, err = config.Load(args[0])
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	default:
		return fmt.Errorf("give a config file or --preset (see `iqctool presets`)")
	}

	u, err := cfg.Build()
	if err != nil {
		return err
	}

	opts := cfg.Options()
	if cmd.Flags().Changed("verbose") {
		opts.Verbose = verbose
	}
	if cmd.Flags().Changed("shift") {
		opts.LmiShift = lmiShift
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := analysis.Analyze(ctx, u, opts)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	printSummary(cfg.Name, u.HorizonPeriod().String(), res, elapsed)
	plotCertificate(res)

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		hp := u.HorizonPeriod()
		runID, err := st.Save(cfg.Name, hp.Horizon, hp.Period, res)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s %s\n", labelTint.Render("run id:"), runID)
	}
	return nil
}

func printSummary(name, grid string, res *analysis.Result, elapsed time.Duration) {
	fmt.Println(headerTint.Render("iqc analysis: " + name))
	fmt.Printf("%s %s\n", labelTint.Render("grid:"), grid)
	fmt.Printf("%s %v\n", labelTint.Render("elapsed:"), elapsed.Round(time.Millisecond))

	if !res.Valid {
		fmt.Printf("%s %s (%s)\n", labelTint.Render("verdict:"),
			badTint.Render("no certificate"), res.Status)
		return
	}
	fmt.Printf("%s %s\n", labelTint.Render("verdict:"), okTint.Render("certified"))
	fmt.Printf("%s %.6g\n", labelTint.Render("worst-case gain:"), res.Performance)
	for src, m := range res.Multipliers {
		fmt.Printf("%s %s (%d blocks)\n", labelTint.Render("multiplier:"), src, len(m.Values))
	}
}

// plotCertificate draws the trace of the Lyapunov matrix across stored
// steps, tiled over a few cycles so short periods remain readable.
func plotCertificate(res *analysis.Result) {
	if !res.Valid || len(res.Certificate) == 0 {
		return
	}
	traces := make([]float64, len(res.Certificate))
	any := false
	for t, p := range res.Certificate {
		if p == nil {
			continue
		}
		any = true
		n, _ := p.Dims()
		for i := 0; i < n; i++ {
			traces[t] += p.At(i, i)
		}
	}
	if !any {
		return
	}

	data := traces
	for len(data) < 24 {
		data = append(data, traces...)
	}

	fmt.Println()
	fmt.Println(asciigraph.Plot(data,
		asciigraph.Height(8),
		asciigraph.Width(72),
		asciigraph.Caption("tr P(t), tiled over cycles"),
	))
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
	fmt.Fprintln(w, "ID\tSYSTEM\tTIME\tGRID\tVALID\tGAIN\tSTATUS")

	for _, run := range runs {
		gain := "-"
		if run.Valid {
			gain = fmt.Sprintf("%.4g", run.Performance)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t[%d,%d]\t%v\t%s\t%s\n",
			run.ID,
			run.System,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Horizon,
			run.Period,
			run.Valid,
			gain,
			run.Status,
		)
	}

	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	if svgPath != "" {
		cert, err := st.LoadCertificate(args[0])
		if err != nil {
			return err
		}
		svg := export.CertificateSVG(cert, 640, 240, "#00ff00")
		if svg == "" {
			return fmt.Errorf("run %s has no certificate to plot", args[0])
		}
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}
