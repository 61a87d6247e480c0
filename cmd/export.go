package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"webdesk/desktop"
)

func NewExportCmd(env *Env) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the saved desktop as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := env.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			root, err := env.loadTree(cmd.Context(), st)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return encodeTree(w, root, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "output format (json or yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func NewRestoreCmd(env *Env) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "restore FILE",
		Short: "Replace the saved desktop with an exported tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if format == "" {
				format = formatFromPath(args[0])
			}
			root, err := decodeTree(f, format)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if err := desktop.Validate(root); err != nil {
				return fmt.Errorf("%s is not a valid desktop: %w", args[0], err)
			}
			layout, err := env.Config.DesktopLayout()
			if err != nil {
				return err
			}
			root, err = desktop.NewEngine(layout).Normalize(root)
			if err != nil {
				return err
			}
			if err := layout.CheckPositions(root); err != nil {
				return err
			}

			st, err := env.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.SaveSnapshot(cmd.Context(), root); err != nil {
				return err
			}
			env.log("restore").WithField("entities", desktop.Count(root)).Info("Desktop restored")
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "input format (json or yaml, default from extension)")
	return cmd
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}

func encodeTree(w io.Writer, root *desktop.Entity, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(root)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(root); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", format)
}

func decodeTree(r io.Reader, format string) (*desktop.Entity, error) {
	var root desktop.Entity
	var err error
	switch format {
	case "json":
		err = json.NewDecoder(r).Decode(&root)
	case "yaml":
		err = yaml.NewDecoder(r).Decode(&root)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return &root, nil
}
