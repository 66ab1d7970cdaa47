package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"streamvol/internal/adapter/primary/web"
	"streamvol/internal/adapter/secondary/repository"
	"streamvol/internal/adapter/secondary/volume"
	"streamvol/internal/config"
	"streamvol/internal/domain"
	"streamvol/internal/logging"
	"streamvol/internal/metrics"
	"streamvol/internal/usecase"
)

var (
	cfgPath    string
	policyPath string
	verbosity  int
	appCfg     *config.Config
)

// NewRootCmd creates the root CLI command.
// This is the primary adapter that translates CLI inputs to use case calls.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "streamvol",
		Short:         "Per-stream volume curves: UI index to output gain in dB",
		Long:          "Loads a stream volume policy and resolves UI volume indexes into decibel gains per device category.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "application config file")
	cmd.PersistentFlags().StringVar(&policyPath, "policy", "", "policy file (overrides policy.file from the config)")
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "more logging (-v, -vv, ... up to 4)")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if policyPath != "" {
			cfg.Policy.File = policyPath
		}
		if err := logging.Configure(cfg.Logging.Format, cfg.Logging.Level); err != nil {
			return err
		}
		switch {
		case verbosity > 0:
			logging.SetVerbosity(verbosity)
		case shellVerbosity > 0:
			logging.SetVerbosity(shellVerbosity)
		}
		appCfg = cfg
		return nil
	}

	cmd.AddCommand(
		newStreamsCmd(),
		newCurveCmd(),
		newDBCmd(),
		newApplyCmd(),
		newPolicyCmd(),
		newServeCmd(),
		newShellCmd(),
	)

	return cmd
}

func newRepository() (*repository.PolicyFile, error) {
	return repository.NewPolicyFile(appCfg.Policy.File, appCfg.DeviceCategory())
}

func newUseCase(reg prometheus.Registerer) (usecase.VolumeUseCase, *metrics.Metrics, error) {
	repo, err := newRepository()
	if err != nil {
		return nil, nil, err
	}
	controller, err := volume.New(appCfg.Output.Controller)
	if err != nil {
		return nil, nil, err
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.NewMetrics(reg)
	uc, err := usecase.NewVolumeUseCase(repo, controller, m)
	if err != nil {
		return nil, nil, err
	}
	return uc, m, nil
}

func parseCategory(uc usecase.VolumeUseCase, name string) (domain.DeviceCategory, error) {
	if name == "" {
		return uc.DefaultCategory(), nil
	}
	return domain.ParseDeviceCategory(name)
}

func newStreamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "streams",
		Short: "List the streams of the active policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, _, err := newUseCase(nil)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tSTRATEGY\tINDEX\tCATEGORIES")
			for _, info := range uc.Streams() {
				cats := make([]string, 0, len(info.Categories))
				for _, c := range info.Categories {
					cats = append(cats, c.String())
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d..%d\t%s\n",
					info.Name, info.Type, info.Strategy, info.IndexMin, info.IndexMax, strings.Join(cats, ","))
			}
			return w.Flush()
		},
	}
}

func newCurveCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "curve <stream>",
		Short: "Show the volume curves of a stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, _, err := newUseCase(nil)
			if err != nil {
				return err
			}
			info, curves, err := uc.Curves(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s, strategy %s, index %d..%d)\n",
				info.Name, info.Type, info.Strategy, info.IndexMin, info.IndexMax)

			cats := make([]domain.DeviceCategory, 0, len(curves))
			for c := range curves {
				cats = append(cats, c)
			}
			sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
			if category != "" {
				c, err := domain.ParseDeviceCategory(category)
				if err != nil {
					return err
				}
				if _, ok := curves[c]; !ok {
					return fmt.Errorf("%w: stream %s has no %s curve", domain.ErrNotFound, info.Name, c)
				}
				cats = []domain.DeviceCategory{c}
			}
			for _, c := range cats {
				fmt.Fprintf(out, "  %s:\n", c)
				for _, p := range curves[c] {
					fmt.Fprintf(out, "    %4d  %7.2f dB\n", p.Index, p.DB)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this device category")
	return cmd
}

func newDBCmd() *cobra.Command {
	var (
		category string
		index    int
	)
	cmd := &cobra.Command{
		Use:   "db <stream>",
		Short: "Resolve a UI volume index to a gain in dB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, _, err := newUseCase(nil)
			if err != nil {
				return err
			}
			cat, err := parseCategory(uc, category)
			if err != nil {
				return err
			}
			res, err := uc.Resolve(args[0], cat, index)
			if err != nil {
				return err
			}
			printResolution(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "device category (default from the policy)")
	cmd.Flags().IntVarP(&index, "index", "i", 0, "UI volume index")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func newApplyCmd() *cobra.Command {
	var (
		category string
		index    int
	)
	cmd := &cobra.Command{
		Use:   "apply <stream>",
		Short: "Resolve a UI volume index and push the gain to the output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, _, err := newUseCase(nil)
			if err != nil {
				return err
			}
			cat, err := parseCategory(uc, category)
			if err != nil {
				return err
			}
			res, err := uc.Apply(cmd.Context(), args[0], cat, index)
			if err != nil {
				return err
			}
			printResolution(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "device category (default from the policy)")
	cmd.Flags().IntVarP(&index, "index", "i", 0, "UI volume index")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func printResolution(w io.Writer, res domain.Resolution) {
	fmt.Fprintf(w, "%s %s index=%d", res.Stream, res.Category, res.Clamped)
	if res.Clamped != res.Index {
		fmt.Fprintf(w, " (clamped from %d)", res.Index)
	}
	if res.Fallback {
		fmt.Fprintf(w, " (no %s curve, default category used)", res.Requested)
	}
	fmt.Fprintf(w, ": %.2f dB\n", res.DB)
}

func newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Create or check the policy file",
	}
	cmd.AddCommand(newPolicyInitCmd(), newPolicyCheckCmd())
	return cmd
}

func newPolicyInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in default policy to the policy file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := newRepository()
			if err != nil {
				return err
			}
			if _, err := os.Stat(repo.Path()); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", repo.Path())
			}
			table, err := domain.NewPolicyTable(domain.DefaultPolicy(), appCfg.DeviceCategory())
			if err != nil {
				return err
			}
			if err := repo.Save(table); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d streams to %s\n", table.Len(), repo.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newPolicyCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the policy file and report problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := newRepository()
			if err != nil {
				return err
			}
			table, err := repo.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fallback := table.DefaultCategory()
			for _, s := range table.Streams() {
				_, hasDefault := s.VolumeProfile(fallback)
				for _, c := range domain.AllDeviceCategories() {
					if _, ok := s.VolumeProfile(c); ok {
						continue
					}
					if hasDefault {
						fmt.Fprintf(out, "warning: %s has no %s curve, %s is used\n", s.Name(), c, fallback)
					} else {
						fmt.Fprintf(out, "warning: %s has no %s curve and no %s fallback, resolution fails\n", s.Name(), c, fallback)
					}
				}
			}
			fmt.Fprintf(out, "policy ok: %d streams\n", table.Len())
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and Web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				appCfg.Server.Address = addr
			}
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			uc, m, err := newUseCase(reg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			srv := web.NewServer(uc, appCfg, m, reg)
			fmt.Fprintf(cmd.OutOrStdout(), "Stream volume policy API running at http://%s\n", appCfg.Server.Address)
			logging.Infof("HTTP API: http://%s (policy %s)", appCfg.Server.Address, appCfg.Policy.File)

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.Server.ShutdownTimeout)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			return srv.Start()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP address:port (default from config)")
	return cmd
}

func executeArgs(args []string, out io.Writer) error {
	if len(args) == 0 {
		return nil
	}
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	return root.Execute()
}

// Execute runs the root command with os.Args.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrNotFound) {
			return 2
		}
		return 1
	}
	return 0
}
