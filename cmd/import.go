package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"webdesk/desktop"
	"webdesk/scan"
)

func NewImportCmd(env *Env) *cobra.Command {
	var into string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "import DIR",
		Short: "Copy a host directory onto the desktop",
		Long: `Scan a host directory and add it, with all its files, as a new folder.

Images and videos are stored as data URIs and text files as plain text.
Symlinks and files larger than max_import_bytes are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := env.log("import")
			opts := scan.Options{
				MaxFileBytes: env.Config.MaxImportBytes,
				Logger:       log,
			}
			if !quiet {
				opts.Spinner = scan.NewProgressSpinner(cmd.ErrOrStderr())
			}
			top, sum, err := scan.Import(args[0], opts)
			if opts.Spinner != nil {
				opts.Spinner.Stop(sum)
			}
			if err != nil {
				return err
			}

			st, err := env.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			session, err := env.newSession(st, false)
			if err != nil {
				return err
			}
			if err := session.Load(cmd.Context()); err != nil {
				return err
			}
			id, err := session.Create(into, *top)
			if err != nil {
				session.Close(cmd.Context())
				return fmt.Errorf("import into %q: %w", into, err)
			}
			if err := session.Close(cmd.Context()); err != nil {
				return err
			}
			log.WithField("id", id).WithField("entities", sum.Entities).Info("Import complete")
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&into, "into", desktop.RootID, "id of the folder to import into")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not show progress")
	return cmd
}
