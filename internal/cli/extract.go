package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chromedevtools/releng/internal/artifact"
	"github.com/chromedevtools/releng/internal/pathutil"
)

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <buildDirectory> <outputDir>",
		Short: "Write the versions of a plugin build to pluginVersion.properties",
		Long: `Scan <buildDirectory>/plugins for the SDK and WIP backend bundles and write
their versions to <outputDir>/pluginVersion.properties:

  mainVersion=...
  backendVersion=...
  mainBuilderVersion=...
  backendBuilderVersion=...

Each bundle must be present exactly once, as a jar or an unpacked directory.
Otherwise nothing is written and the command fails.

Example:
  releng extract build/eclipse release/`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			buildDir, err := pathutil.ResolveDir(args[0])
			if err != nil {
				return fmt.Errorf("build directory: %w", err)
			}
			outputDir, err := pathutil.ResolveDir(args[1])
			if err != nil {
				return fmt.Errorf("output directory: %w", err)
			}

			_, record, err := artifact.NewExtractor(nil, GetLogger()).Run(buildDir, outputDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, f := range record.Fields() {
				fmt.Fprintf(out, "%s=%s\n", f.Key, f.Value)
			}
			return nil
		},
	}
}
