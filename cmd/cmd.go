// Package cmd implements the command line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kousiktn/gcs2gdrive/accounting"
	"github.com/kousiktn/gcs2gdrive/auth"
	"github.com/kousiktn/gcs2gdrive/backend/drive"
	"github.com/kousiktn/gcs2gdrive/backend/gcs"
	"github.com/kousiktn/gcs2gdrive/fs"
	"github.com/kousiktn/gcs2gdrive/transfer"
)

// Version of the program
const Version = "v1.0.0"

// Exit codes, one per fatal setup category
const (
	exitCodeSuccess = iota
	exitCodeUsageError
	exitCodeUncategorizedError
	exitCodeNoCredentials
	exitCodeInsufficientScope
	exitCodeProjectUndetermined
)

var (
	gcsServiceAccount   string
	driveServiceAccount string
	project             string
	transfers           int
	statsInterval       time.Duration
	verbose             int
	quiet               bool
)

// Root is the main command
var Root = &cobra.Command{
	Use:     "gcs2gdrive <bucket> <drive-folder>",
	Short:   "Copy a GCS bucket into a Google Drive folder.",
	Version: Version,
	Long: `gcs2gdrive copies every object from a Google Cloud Storage bucket
into the named Google Drive folder, recreating the bucket's directory
structure and skipping files which already exist at the destination.

Re-running a transfer is safe: existing folders and files are found by
name and reused, never duplicated.

For example

    gcs2gdrive my-bucket "Bucket Backup"

copies gs://my-bucket/a/b/c.txt to the Drive file c.txt inside the
folder b inside the folder a inside "Bucket Backup".

Without --gcs-service-account or --drive-service-account the
Application Default Credentials are used - authenticate with

    gcloud auth application-default login --scopes=` + auth.DriveScope + `,https://www.googleapis.com/auth/cloud-platform
`,
	Run: func(command *cobra.Command, args []string) {
		CheckArgs(2, 2, command, args)
		fs.InstallLogger(verbose, quiet)
		resolveExitCode(run(args[0], args[1]))
	},
}

func init() {
	addFlags(Root.Flags())
}

func addFlags(flags *pflag.FlagSet) {
	flags.StringVar(&gcsServiceAccount, "gcs-service-account", "", "Path to a service account JSON file for GCS access")
	flags.StringVar(&driveServiceAccount, "drive-service-account", "", "Path to a service account JSON file for Drive access")
	flags.StringVar(&project, "project", "", "Google Cloud project ID for quota and billing (needed with user credentials)")
	flags.IntVar(&transfers, "transfers", transfer.DefaultTransfers, "Number of parallel transfers")
	flags.DurationVar(&statsInterval, "stats", time.Minute, "Interval between printing stats, 0 to disable")
	flags.CountVarP(&verbose, "verbose", "v", "Print lots more stuff")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Print as little stuff as possible")
}

// CheckArgs checks there are enough arguments and prints a message if not
func CheckArgs(MinArgs, MaxArgs int, cmd *cobra.Command, args []string) {
	if len(args) < MinArgs {
		_ = cmd.Usage()
		fmt.Fprintf(os.Stderr, "Command %s needs %d arguments minimum: you provided %d non flag arguments: %q\n", cmd.Name(), MinArgs, len(args), args)
		os.Exit(exitCodeUsageError)
	} else if len(args) > MaxArgs {
		_ = cmd.Usage()
		fmt.Fprintf(os.Stderr, "Command %s needs %d arguments maximum: you provided %d non flag arguments: %q\n", cmd.Name(), MaxArgs, len(args), args)
		os.Exit(exitCodeUsageError)
	}
}

// run does one bucket to folder transfer
func run(bucket, folder string) error {
	ctx := context.Background()
	cfg := &auth.Config{
		GCSServiceAccountFile:   gcsServiceAccount,
		DriveServiceAccountFile: driveServiceAccount,
		Project:                 project,
	}

	ts, err := cfg.DriveTokenSource(ctx)
	if err != nil {
		return err
	}
	src, err := gcs.New(ctx, bucket, cfg.GCSOptions()...)
	if err != nil {
		return err
	}

	logrus.Infof("Transferring gs://%s to Drive folder %q with %d transfers", bucket, folder, transfers)

	stats := accounting.NewStats(0)
	stopStats := startStats(stats)
	_, err = transfer.Run(ctx, src, transfer.Options{
		RootFolder: folder,
		Transfers:  transfers,
		Stats:      stats,
		NewDestination: func(ctx context.Context) (fs.Destination, error) {
			return drive.New(ctx, cfg.DriveOptions(ts)...)
		},
	})
	stopStats()
	if err != nil {
		return err
	}

	stats.Log()
	if stats.Errored() {
		logrus.Errorf("Transfer complete with %d failed objects - last error: %v", stats.GetErrors(), stats.GetLastError())
	} else {
		logrus.Infof("Transfer complete")
	}
	return nil
}

// startStats prints the stats every statsInterval.
//
// It returns a func which should be called to stop the stats.
func startStats(stats *accounting.Stats) func() {
	if statsInterval <= 0 {
		return func() {}
	}
	stopStats := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stats.Log()
			case <-stopStats:
				return
			}
		}
	}()
	return func() {
		close(stopStats)
		wg.Wait()
	}
}

// resolveExitCode prints guidance for recognized fatal errors and
// exits with a code per category.
func resolveExitCode(err error) {
	if err == nil {
		os.Exit(exitCodeSuccess)
	}
	if guidance := auth.Explain(err); guidance != "" {
		fmt.Fprintf(os.Stderr, "\n%s\n\n", guidance)
	}
	logrus.Errorf("Failed to transfer: %v", err)
	switch {
	case auth.IsNoCredentials(err):
		os.Exit(exitCodeNoCredentials)
	case auth.IsInsufficientScope(err):
		os.Exit(exitCodeInsufficientScope)
	case auth.IsProjectUndetermined(err):
		os.Exit(exitCodeProjectUndetermined)
	default:
		os.Exit(exitCodeUncategorizedError)
	}
}

// Main runs the root command.  It is called from the main package.
func Main() {
	if err := Root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(exitCodeUsageError)
	}
}
