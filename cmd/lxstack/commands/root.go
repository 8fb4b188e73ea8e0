package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lxstack/lxstack/pkg/config"
	"github.com/lxstack/lxstack/pkg/lxd"
)

var (
	// Configuration service flags
	serviceURL        string
	levels            []string
	cacheSeconds      int
	configurationFile string
	stackKey          string

	// Local flags
	socketPath string
	stateDir   string
	logLevel   string
	traceSpans bool
)

// buildVersion is the version string passed from main, reused for span
// attribution.
var buildVersion string

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	buildVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lxstack",
		Short: "Declarative stack deployment to a local LXD daemon",
		Long: `lxstack deploys an application stack (storage pools, networks, profiles,
containers) to the local LXD daemon, described by a YAML document fetched
from a remote key-value configuration service.

Every operation is idempotent: resources that already exist are left
untouched, resources that are already gone are skipped, and re-running a
command after a failure picks up where it stopped.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	rootCmd.PersistentFlags().StringVarP(&serviceURL, "url", "u", "", "configuration service base URL")
	rootCmd.PersistentFlags().StringSliceVarP(&levels, "levels", "l", nil, "configuration lookup levels, deepest last")
	rootCmd.PersistentFlags().IntVarP(&cacheSeconds, "cache", "c", 0, "configuration cache duration in seconds")
	rootCmd.PersistentFlags().StringVarP(&configurationFile, "configuration-file", "f", config.DefaultFile, "local configuration file")
	rootCmd.PersistentFlags().StringVarP(&stackKey, "key", "k", "", "configuration service key holding the stack")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", lxd.DefaultSocketPath, "LXD unix socket path")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "local state directory (default ~/.lxstack)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&traceSpans, "trace", false, "export spans to stdout")

	rootCmd.AddCommand(newCreateCommand())
	rootCmd.AddCommand(newStartCommand())
	rootCmd.AddCommand(newStopCommand())
	rootCmd.AddCommand(newDeleteCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}
