package forj

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forjbuild/forj/pkg/action"
	"github.com/forjbuild/forj/pkg/buildctx"
	"github.com/forjbuild/forj/pkg/config"
	"github.com/forjbuild/forj/pkg/diffengine"
	"github.com/forjbuild/forj/pkg/digest"
	"github.com/forjbuild/forj/pkg/execution"
	"github.com/forjbuild/forj/pkg/filesystem"
	"github.com/forjbuild/forj/pkg/interp"
	"github.com/forjbuild/forj/pkg/layout"
	"github.com/forjbuild/forj/pkg/proc"
	"github.com/forjbuild/forj/pkg/promote"
	"github.com/forjbuild/forj/pkg/style"
)

func newRunCmd() *cobra.Command {
	var (
		workspace   string
		contextName string
		hostName    string
		targets     []string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "run <actions-file>",
		Short: "Execute a serialized action tree",
		Long: `Run reads a YAML action tree and executes it against the workspace.
The tree must be fully resolved: no unexpanded variables, and program
references already resolved to paths.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := filepath.Abs(workspace)
			if err != nil {
				return err
			}

			cfg, err := config.Load(ws)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read actions file: %w", err)
			}
			tree, err := action.Decode(data)
			if err != nil {
				return err
			}

			fs := filesystem.NewOS()
			lay := layout.New(cfg.BuildRoot(ws), cfg.SourceRoot(ws), cfg.SandboxRoot(ws), fs)
			store := promote.NewFileStore(cfg.PromotionsPath(ws), fs)
			st := style.NewRenderer(os.Stdout)
			engine := diffengine.New(fs, store, lay, os.Stdout, st,
				diffengine.Options{NormalizeCRLF: cfg.Diff.NormalizeCRLF})
			in := interp.New(fs, lay, digest.NewCache(fs), engine, proc.NewLauncher())

			runErr := execution.Exec(cmd.Context(), in, tree, execution.Params{
				Context: buildContext(lay, contextName, hostName),
				Targets: targets,
			})

			if format == "xml" {
				if werr := writeXMLResult(os.Stdout, args[0], targets, runErr); werr != nil {
					return werr
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", ".", "Workspace directory (holds forj.toml)")
	cmd.Flags().StringVar(&contextName, "context", "default", "Build context to execute in")
	cmd.Flags().StringVar(&hostName, "host", "", "Host context that provides tools for the build context")
	cmd.Flags().StringSliceVarP(&targets, "target", "t", nil, "Target file(s) this tree produces, for diagnostics")
	cmd.Flags().StringVar(&format, "format", "text", "Result format: text or xml")

	return cmd
}

// buildContext assembles the build context the tree executes for. Context
// directories live directly under the build root, named after the context.
func buildContext(lay *layout.Layout, name, host string) *buildctx.Context {
	ctx := &buildctx.Context{
		Name:       name,
		BuildDir:   filepath.Join(lay.BuildRoot, name),
		InstallDir: filepath.Join(lay.BuildRoot, name, "install"),
	}
	if host != "" && host != name {
		ctx.Host = &buildctx.Context{
			Name:       host,
			BuildDir:   filepath.Join(lay.BuildRoot, host),
			InstallDir: filepath.Join(lay.BuildRoot, host, "install"),
		}
	}
	return ctx
}
