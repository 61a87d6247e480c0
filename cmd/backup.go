package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/otiai10/copy"
	"github.com/spf13/cobra"
)

func NewBackupCmd(env *Env) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy the data directory to a timestamped backup",
		Long: `Copy the data directory (store, uploads and audit log) into a new
timestamped directory. Stop the server first so the store is consistent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := env.Config.DataDir
			if _, err := os.Stat(src); err != nil {
				return fmt.Errorf("data dir: %w", err)
			}
			if to == "" {
				return fmt.Errorf("--to is required")
			}
			dst := filepath.Join(to, "webdesk-"+time.Now().UTC().Format("20060102-150405"))
			if _, err := os.Stat(dst); err == nil {
				return fmt.Errorf("%s already exists", dst)
			}

			err := copy.Copy(src, dst, copy.Options{
				// Partial uploads are not worth keeping.
				Skip: func(info os.FileInfo, path, _ string) (bool, error) {
					return info.IsDir() && path == env.Config.UploadDir, nil
				},
				PreserveTimes: true,
			})
			if err != nil {
				return fmt.Errorf("backup to %s: %w", dst, err)
			}
			env.log("backup").WithField("dest", dst).Info("Backup complete")
			fmt.Fprintln(cmd.OutOrStdout(), dst)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "directory to write the backup into")
	return cmd
}
