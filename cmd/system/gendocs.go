package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/rodrigoprogmaster-prog/clinica/pkg/constants"
)

func NewGenDocsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gendocs",
		Short: "Generate CLI reference documentation",
		Long: `Write reference pages for every clinica command.

--format selects markdown (default), man or yaml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("outdir")
			format, _ := cmd.Flags().GetString("format")

			dir, err := filepath.Abs(outDir)
			if err != nil {
				return fmt.Errorf("resolve %q: %w", outDir, err)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %q: %w", dir, err)
			}

			root := cmd.Root()
			root.DisableAutoGenTag = true

			switch format {
			case "markdown", "md":
				err = doc.GenMarkdownTree(root, dir)
			case "man":
				err = doc.GenManTree(root, &doc.GenManHeader{
					Title:   constants.AppName,
					Section: "1",
					Source:  constants.AppName,
				}, dir)
			case "yaml":
				err = doc.GenYamlTree(root, dir)
			default:
				return fmt.Errorf("unknown format %q (markdown|man|yaml)", format)
			}
			if err != nil {
				return fmt.Errorf("generate %s docs: %w", format, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "CLI docs (%s) written to %s\n", format, dir)
			return nil
		},
	}

	cmd.Flags().String("outdir", "docs/cli", "Output directory")
	cmd.Flags().String("format", "markdown", "Output format: markdown, man or yaml")
	return cmd
}
