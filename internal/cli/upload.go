package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chromedevtools/releng/internal/artifact"
	"github.com/chromedevtools/releng/internal/config"
	"github.com/chromedevtools/releng/internal/constants"
	"github.com/chromedevtools/releng/internal/credentials"
	internalhttp "github.com/chromedevtools/releng/internal/http"
	"github.com/chromedevtools/releng/internal/models"
	"github.com/chromedevtools/releng/internal/pathutil"
	"github.com/chromedevtools/releng/internal/progress"
	"github.com/chromedevtools/releng/internal/publish"
)

// newSecretProvider returns the source of the upload and proxy secrets.
// Tests replace it; the default reads from the terminal with echo off.
var newSecretProvider = func() credentials.Provider {
	return credentials.NewTerminalProvider()
}

func newUploadCmd() *cobra.Command {
	var (
		dryRun       bool
		versionsFile string
	)

	cmd := &cobra.Command{
		Use:   "upload <resultDir> <userName> <mainVersion> <backendVersion>",
		Short: "Publish the release archives",
		Long: `Upload the three release archives from <resultDir>, in this order:

  org.chromium.sdk-wipbackends-<main>-<backend>.tar
  org.chromium.sdk-lib-<main>.tar
  chromedevtools-<main>-wipbackends-<backend>-site.zip

The secret for <userName> is prompted for on the terminal. It is never read
from flags, files or the environment.

The run stops at the first upload that is not answered with 201 Created.
Uploads that already succeeded are kept. The URL of every uploaded file is
printed to stdout, one per line.

With --versions-file the versions are read from a pluginVersion.properties
written by 'releng extract', and only <resultDir> <userName> are given.

Backends:
  form   multipart POST with HTTP Basic auth (default)
  s3     S3 PutObject; <userName> is the access key id
  azure  Azure block blob; <userName> is the storage account

Examples:
  releng upload release/ builder 0.3.9 0.2.1
  releng upload --versions-file release/pluginVersion.properties release/ builder
  releng upload --dry-run release/ builder 0.3.9 0.2.1`,
		Args: func(cmd *cobra.Command, args []string) error {
			if versionsFile != "" {
				return cobra.ExactArgs(2)(cmd, args)
			}
			return cobra.ExactArgs(4)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			resultDir, err := pathutil.ResolveDir(args[0])
			if err != nil {
				return fmt.Errorf("result directory: %w", err)
			}
			userName := args[1]
			if userName == "" {
				return fmt.Errorf("user name cannot be empty")
			}

			mainVersion, backendVersion, err := uploadVersions(versionsFile, args)
			if err != nil {
				return err
			}

			tasks, err := publish.BuildTasks(resultDir, mainVersion, backendVersion, cfg.Labels)
			if err != nil {
				return err
			}

			log := GetLogger()
			log.Debug().
				Str("backend", cfg.Backend).
				Str("mainVersion", mainVersion).
				Str("backendVersion", backendVersion).
				Int("tasks", len(tasks)).
				Msg("upload plan")
			if len(cfg.Labels) > 0 && cfg.Backend != constants.BackendForm {
				log.Warnf("labels %v are ignored by the %s backend", cfg.Labels, cfg.Backend)
			}

			if err := publish.Preflight(tasks); err != nil {
				return err
			}

			if dryRun {
				return printPlan(cmd, cfg, tasks)
			}

			provider := newSecretProvider()
			secret, err := provider.Secret(fmt.Sprintf("Password for %s: ", userName))
			if err != nil {
				return fmt.Errorf("failed to read secret: %w", err)
			}
			if internalhttp.NeedsProxyPassword(cfg.Proxy) {
				proxySecret, err := provider.Secret(fmt.Sprintf("Proxy password for %s: ", cfg.Proxy.User))
				if err != nil {
					return fmt.Errorf("failed to read proxy password: %w", err)
				}
				cfg.Proxy.Password = proxySecret
			}

			httpClient, err := internalhttp.CreateUploadClient(cfg.Proxy)
			if err != nil {
				return fmt.Errorf("failed to create HTTP client: %w", err)
			}

			ctx := cmd.Context()
			backend, err := publish.NewBackend(ctx, cfg, httpClient, models.Credentials{User: userName, Secret: secret})
			if err != nil {
				return err
			}

			ui := progress.NewUploadUI(cmd.ErrOrStderr(), len(tasks))
			if ui.IsTerminal() {
				// Log lines are printed above the bars instead of tearing them.
				prev := log.Output()
				log.SetOutput(ui.Writer())
				defer log.SetOutput(prev)
			}
			log.Infof("uploading %d files with the %s backend", len(tasks), backend.Name())
			publisher := publish.NewPublisher(backend,
				publish.WithOutput(cmd.OutOrStdout()),
				publish.WithProgress(ui),
				publish.WithLogger(log),
				publish.WithTimeout(cfg.Timeout),
			)

			_, err = publisher.Publish(ctx, tasks)
			ui.Wait()
			return err
		},
	}

	cmd.Flags().String("backend", "", "Upload backend: form, s3 or azure (default form)")
	cmd.Flags().String("endpoint", "", "Form backend URL")
	cmd.Flags().StringArray("label", nil, "Label attached to every upload (repeatable)")
	cmd.Flags().Duration("timeout", constants.DefaultUploadTimeout, "Timeout for each upload")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the planned uploads without prompting or uploading")
	cmd.Flags().StringVar(&versionsFile, "versions-file", "", "Read versions from a pluginVersion.properties file")

	return cmd
}

// uploadVersions returns the main and backend versions, from the versions
// file when one is given and from the positional arguments otherwise.
func uploadVersions(versionsFile string, args []string) (string, string, error) {
	if versionsFile == "" {
		return args[2], args[3], nil
	}

	path, err := pathutil.ResolveAbsolutePath(versionsFile)
	if err != nil {
		return "", "", err
	}
	record, err := artifact.ReadProperties(path)
	if err != nil {
		return "", "", err
	}
	if record.MainVersion() == "" || record.BackendVersion() == "" {
		return "", "", fmt.Errorf("%s does not define mainVersion and backendVersion", versionsFile)
	}
	return record.MainVersion(), record.BackendVersion(), nil
}

func printPlan(cmd *cobra.Command, cfg *config.Config, tasks []models.UploadTask) error {
	out := cmd.OutOrStdout()
	target := cfg.Endpoint
	switch cfg.Backend {
	case constants.BackendS3:
		target = "s3://" + cfg.S3.Bucket + "/" + cfg.S3.Prefix
	case constants.BackendAzure:
		target = "azure container " + cfg.Azure.Container
	}
	fmt.Fprintf(out, "Would upload %d files to %s:\n", len(tasks), target)
	for i, t := range tasks {
		fmt.Fprintf(out, "  %d. %s\n     %s\n", i+1, t.Path, t.Summary)
	}
	return nil
}
