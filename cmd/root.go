// Package cmd holds the webdesk command line.
package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"webdesk/config"
	"webdesk/desktop"
	"webdesk/store"
)

// BuildInfo is stamped into the binary at build time.
type BuildInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"buildDate"`
	GitCommit string `json:"gitCommit"`
}

// Env is shared by every subcommand. It is filled in before a command runs.
type Env struct {
	Viper  *viper.Viper
	Config config.Config
	Logger *logrus.Logger
	Build  BuildInfo
}

func (e *Env) log(component string) *logrus.Entry {
	return e.Logger.WithField("component", component)
}

// openStore opens the configured store, creating the data directory first.
func (e *Env) openStore() (store.Store, error) {
	if err := e.Config.EnsureDataDir(); err != nil {
		return nil, err
	}
	return store.Open(e.Config.Store.Driver, e.Config.Store.Path)
}

// newSession opens a session on st with the configured layout.
func (e *Env) newSession(st store.Store, autosave bool) (*desktop.Session, error) {
	layout, err := e.Config.DesktopLayout()
	if err != nil {
		return nil, err
	}
	opts := desktop.Options{Layout: layout, Logger: e.log("desktop")}
	if autosave {
		opts.AutosaveInterval = e.Config.AutosaveInterval
	}
	return desktop.NewSession(st, opts), nil
}

// loadTree reads the saved tree without writing anything back.
func (e *Env) loadTree(ctx context.Context, st store.Store) (*desktop.Entity, error) {
	layout, err := e.Config.DesktopLayout()
	if err != nil {
		return nil, err
	}
	engine := desktop.NewEngine(layout)
	root, err := st.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if root == nil {
		root = desktop.DefaultTree(engine.Now())
	}
	return engine.Normalize(root)
}

// NewRootCmd assembles the command tree.
func NewRootCmd(build BuildInfo) *cobra.Command {
	var cfgFile string
	env := &Env{Build: build, Logger: logrus.New()}

	rootCmd := &cobra.Command{
		Use:           "webdesk",
		Short:         "A desktop-style virtual file system served over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New(cfgFile)
			if err != nil {
				return err
			}
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			env.Viper = v
			env.Config = cfg
			env.Logger = cfg.Logger()
			env.Logger.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/webdesk/config.yaml)")
	rootCmd.PersistentFlags().String("data_dir", "", "directory holding the desktop store, uploads and audit log")
	rootCmd.PersistentFlags().String("log_level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(NewServeCmd(env))
	rootCmd.AddCommand(NewTreeCmd(env))
	rootCmd.AddCommand(NewExportCmd(env))
	rootCmd.AddCommand(NewRestoreCmd(env))
	rootCmd.AddCommand(NewImportCmd(env))
	rootCmd.AddCommand(NewBackupCmd(env))
	rootCmd.AddCommand(NewVersionCmd(env))
	return rootCmd
}
