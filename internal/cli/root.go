package cli

import (
	"github.com/spf13/cobra"
)

// buildRootCmdWith constructs the Cobra command tree. Config resolution
// order is defaults < environment (unset fields only) < config file < flags.
func buildRootCmdWith(g *globalOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "routerprobe",
		Short:         "Probe which OpenRouter providers really support tool calling and structured output",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags -> globalOptions
	root.PersistentFlags().StringVar(&g.ConfigPath, "config", "", "Config file (.yaml, .json or .toml)")
	root.PersistentFlags().StringVar(&g.LogLevel, "log-level", "", "Log level: debug|info|warn|error (defaults ROUTERPROBE_LOG_LEVEL or info)")
	root.PersistentFlags().StringVar(&g.DataDir, "data-dir", "", "Directory holding result files (defaults ROUTERPROBE_DATA_DIR or ./data)")

	root.AddCommand(probeCmd(g), matrixCmd(g), serveCmd(g), completionCmd(root, g))
	return root
}

func probeCmd(g *globalOptions) *cobra.Command {
	var (
		po         probeOptions
		capability string
		modelsFile string
		models     []string
		include    []string
		exclude    []string
		trials     int
		workers    int
		rps        float64
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Run trials against every provider of every model and checkpoint the results",
		Example: "  routerprobe probe --models-file models.json\n" +
			"  routerprobe probe --capability structured_output --model openai/gpt-4o --trials 5\n" +
			"  routerprobe probe --resume --workers 4 --rps 2",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("capability") {
				cfg.Capability = capability
			}
			if f.Changed("models-file") {
				cfg.ModelsFile = modelsFile
			}
			if f.Changed("model") {
				cfg.Models = models
			}
			if f.Changed("include") {
				cfg.Include = include
			}
			if f.Changed("exclude") {
				cfg.Exclude = exclude
			}
			if f.Changed("trials") {
				cfg.Trials = trials
			}
			if f.Changed("workers") {
				cfg.Concurrency.Workers = workers
			}
			if f.Changed("rps") {
				cfg.Concurrency.RequestsPerSecond = rps
			}
			return fnProbe(cmd.Context(), g, cfg, po)
		},
	}
	f := cmd.Flags()
	f.StringVar(&capability, "capability", "", "Capability to probe: tool_calling|structured_output")
	f.StringVar(&modelsFile, "models-file", "", "Model list (.json, .yaml or one id per line); defaults to models.json")
	f.StringSliceVar(&models, "model", nil, "Model id to probe (repeatable)")
	f.StringSliceVar(&include, "include", nil, "Only probe models matching these globs")
	f.StringSliceVar(&exclude, "exclude", nil, "Skip models matching these globs")
	f.IntVar(&trials, "trials", 0, "Trials per provider (default 3)")
	f.IntVar(&workers, "workers", 0, "Providers of one model probed in parallel (default 1)")
	f.Float64Var(&rps, "rps", 0, "Global request rate limit; 0 disables it")
	f.BoolVar(&po.Resume, "resume", false, "Skip models already present in the latest results")
	f.StringVar(&po.MetricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address during the run")
	return cmd
}

func matrixCmd(g *globalOptions) *cobra.Command {
	var mo matrixOptions
	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Render the latest results as a support matrix",
		Example: "  routerprobe matrix --out site/index.html\n" +
			"  routerprobe matrix --format terminal --capability tools\n" +
			"  routerprobe matrix --format json --input data/tool_support_results_latest.json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			return fnMatrix(cmd.Context(), g, cfg, mo)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&mo.Capabilities, "capability", nil, "Capabilities to include (default: all with results)")
	f.StringVar(&mo.Format, "format", "html", "Output format: html|terminal|json")
	f.StringVar(&mo.Out, "out", "", "Output file; '-' for stdout (html defaults to index.html, json to stdout)")
	f.StringVar(&mo.Input, "input", "", "Render this result file instead of the latest results")
	return cmd
}

func serveCmd(g *globalOptions) *cobra.Command {
	var so serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the matrix page, result JSON and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			return fnServe(cmd.Context(), g, cfg, so)
		},
	}
	cmd.Flags().StringVar(&so.Addr, "addr", "", "HTTP listen address (default :8080)")
	cmd.Flags().BoolVar(&so.Probe, "probe", false, "Run one probe of the configured models in the background")
	return cmd
}

func completionCmd(root *cobra.Command, g *globalOptions) *cobra.Command {
	c := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	c.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(g.Stdout) }})
	c.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(g.Stdout) }})
	c.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(g.Stdout, true) }})
	c.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(g.Stdout) }})
	return c
}
