package forj

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forjbuild/forj/pkg/config"
	"github.com/forjbuild/forj/pkg/filesystem"
	"github.com/forjbuild/forj/pkg/promote"
)

func newPromoteCmd() *cobra.Command {
	var (
		workspace string
		list      bool
		clear     bool
	)

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Apply recorded corrections back onto source files",
		Long: `Promote consumes the candidates recorded by diff actions: each final
correction file is copied back onto its tracked source file. Use --list
to inspect candidates without applying them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := filepath.Abs(workspace)
			if err != nil {
				return err
			}
			cfg, err := config.Load(ws)
			if err != nil {
				return err
			}
			store := promote.NewFileStore(cfg.PromotionsPath(ws), filesystem.NewOS())

			if clear {
				return store.Clear()
			}

			if list {
				candidates, err := store.Candidates()
				if err != nil {
					return err
				}
				if len(candidates) == 0 {
					fmt.Println("No promotion candidates recorded.")
					return nil
				}
				for _, c := range candidates {
					kind := "correction"
					if c.Intermediate {
						kind = "intermediate"
					}
					fmt.Printf("%s  %s <- %s\n", kind, c.Source, c.Correction)
				}
				return nil
			}

			applied, err := store.Apply()
			for _, c := range applied {
				fmt.Fprintf(os.Stdout, "Promoted %s onto %s\n", c.Correction, c.Source)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Println("Nothing to promote.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", ".", "Workspace directory (holds forj.toml)")
	cmd.Flags().BoolVar(&list, "list", false, "List candidates without applying")
	cmd.Flags().BoolVar(&clear, "clear", false, "Drop all recorded candidates")

	return cmd
}
