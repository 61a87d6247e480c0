package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"webdesk/desktop"
)

const nameColumn = 40

func NewTreeCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [id]",
		Short: "Print the saved desktop as a tree",
		Args:  cobra.MaximumNArgs(1),
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
			if len(args) == 1 {
				root = desktop.Find(root, args[0])
				if root == nil {
					return fmt.Errorf("entity %q not found", args[0])
				}
			}
			printTree(cmd.OutOrStdout(), root)
			return nil
		},
	}
}

// printTree writes one line per entity with the name column padded by
// display width so wide characters keep the columns aligned.
func printTree(w io.Writer, root *desktop.Entity) {
	var visit func(e *desktop.Entity, depth int)
	visit = func(e *desktop.Entity, depth int) {
		label := strings.Repeat("  ", depth) + e.Name
		if e.IsFolder() {
			label += "/"
		}
		label = runewidth.Truncate(label, nameColumn, "…")
		label = runewidth.FillRight(label, nameColumn)

		size := "-"
		if !e.IsFolder() {
			size = humanize.Bytes(uint64(len(e.Content)))
		}
		pos := ""
		if e.Position != nil {
			pos = fmt.Sprintf("@%d,%d", e.Position.X, e.Position.Y)
		}
		fmt.Fprintf(w, "%s %-6s %9s  %-20s %s %s\n", label, e.Kind, size, e.DateModified, e.ID, pos)
		for _, c := range e.Children {
			visit(c, depth+1)
		}
	}
	visit(root, 0)
}
