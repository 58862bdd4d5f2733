package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cerberus/vessel/internal/config"
	"github.com/cerberus/vessel/internal/logging"
	"github.com/cerberus/vessel/internal/paths"
	"github.com/cerberus/vessel/internal/store"
)

// Annotation set on commands that run before `vessel init` has been done.
const skipConfigAnnotation = "vessel/skip-config"

var (
	flagDebug         bool
	flagLogLevel      string
	flagRoot          string
	flagOtherProjects string
)

// session is built once per invocation by the root command.
type session struct {
	root   string
	viper  *viper.Viper
	log    *zap.Logger
	global *config.Global
	store  *store.Store
}

var sess session

var rootCmd = &cobra.Command{
	Use:   "vessel",
	Short: "vessel - local development environments from project graphs",
	Long: `vessel keeps a tree of project definitions under ~/.vessel and renders a project,
together with everything it depends on, into a docker-compose file that is then
handed to the orchestrator.`,
	PersistentPreRunE: setupSession,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagDebug, "debug", false, "enable debug output (same as --log-level=debug)")
	pf.StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, or error")
	pf.StringVar(&flagRoot, "root", "", "vessel root directory (default $VESSEL_HOME or ~/.vessel)")
	pf.StringVar(&flagOtherProjects, "other-projects", "", "how other_projects are treated: discover, depend, or ignore")
}

func Execute() error {
	// Silence usage and errors to avoid cluttering output with Cobra defaults
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func setupSession(cmd *cobra.Command, args []string) error {
	v := config.NewViper()
	pf := cmd.Root().PersistentFlags()
	if err := v.BindPFlag("log_level", pf.Lookup("log-level")); err != nil {
		return err
	}
	if err := v.BindPFlag("other_projects", pf.Lookup("other-projects")); err != nil {
		return err
	}

	level := v.GetString("log_level")
	if flagDebug {
		level = "debug"
	}
	log, err := logging.New(level, os.Stderr)
	if err != nil {
		return err
	}

	root := paths.DefaultRoot()
	if flagRoot != "" {
		if root, err = homedir.Expand(flagRoot); err != nil {
			return fmt.Errorf("invalid --root: %w", err)
		}
	}

	sess = session{root: root, viper: v, log: log, store: store.New(root)}
	if cmd.Annotations[skipConfigAnnotation] != "" {
		return nil
	}

	g, err := config.Load(root, v)
	if err != nil {
		return err
	}
	sess.global = g
	log.Debug("loaded global config",
		zap.String("root", root),
		zap.String("backend", g.DefaultBackend),
		zap.String("other_projects", string(g.OtherProjects)))

	if !g.SuppressWarnings && os.Getenv("VISUAL") == "" && os.Getenv("EDITOR") == "" {
		log.Warn("set $VISUAL or $EDITOR to use the config editing commands")
	}
	return nil
}

// requireProject fails unless name has a directory under the root.
func requireProject(name string) error {
	if !sess.store.Exists(name) {
		return fmt.Errorf("no project named %q exists, you should create one", name)
	}
	return nil
}

var errNoEditor = errors.New("$VISUAL or $EDITOR must be set to use this command")
