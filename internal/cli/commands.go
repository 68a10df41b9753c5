package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/modpak/internal/version"
	"github.com/arthur-debert/modpak/pkg/build"
	"github.com/arthur-debert/modpak/pkg/config"
	"github.com/arthur-debert/modpak/pkg/executor"
	"github.com/arthur-debert/modpak/pkg/filesystem"
	"github.com/arthur-debert/modpak/pkg/logging"
	"github.com/arthur-debert/modpak/pkg/manifest"
	"github.com/arthur-debert/modpak/pkg/packer"
	"github.com/arthur-debert/modpak/pkg/staging"
)

// envOrDefault returns the environment variable's value or a fallback
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity   int
		dryRun      bool
		projectRoot string
		envName     string
		versionName string
	)

	rootCmd := &cobra.Command{
		Use:   "modpak",
		Short: "Build and package a game mod",
		Long: `modpak builds a distributable archive for a game modification: it reads
the mod manifest, stages the source tree, packs asset data into
size-bounded pak archives, strips development-only directories, and
bundles the result into a versioned archive.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging based on verbosity
			logging.SetupLogger(verbosity)
			setupOutput()
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := build.ParseEnvironment(envName)
			if err != nil {
				return err
			}
			variant, err := build.ParseContentVersion(versionName)
			if err != nil {
				return err
			}

			cfg, err := config.Load(projectRoot)
			if err != nil {
				return err
			}

			opts := build.Options{
				Config:      cfg,
				ProjectRoot: projectRoot,
				Env:         env,
				Version:     variant,
			}

			if dryRun {
				plan, m, err := build.PlanOnly(opts)
				if err != nil {
					return err
				}
				printPlan(cmd.OutOrStdout(), m, plan)
				return nil
			}

			stepf("Building %s (%s, %s)", projectRoot, env, variant)
			result, err := build.Run(opts)
			if err != nil {
				return err
			}

			successf("Built %s version %s: %d pak archive(s)",
				result.Manifest.Name, result.Manifest.Version, len(result.PakFiles))

			// The produced path goes to stdout for machine consumers;
			// everything human-readable stays on stderr.
			fmt.Fprintln(cmd.OutOrStdout(), result.BundlePath)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Compute and print the pack plan without building")
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", ".", "Project root directory")

	// Build selection flags; environment variables MODE and VERSION
	// provide the defaults
	rootCmd.Flags().StringVar(&envName, "env", envOrDefault("MODE", "dev"), "Build environment (prod|dev)")
	rootCmd.Flags().StringVar(&versionName, "version", envOrDefault("VERSION", "main"), "Content version (main|lorem-ipsum)")

	// Add all commands
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newPackCmd(&projectRoot, &dryRun))
	rootCmd.AddCommand(newCleanCmd(&projectRoot))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including commit hash and build date`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("modpak version %s\n", version.Version)
			if version.Commit != "" {
				fmt.Printf("Commit: %s\n", version.Commit)
			}
			if version.Date != "" {
				fmt.Printf("Built:  %s\n", version.Date)
			}
		},
	}
}

// newPackCmd runs the size-bounded packer alone against an arbitrary
// directory. Useful when iterating on pack sizing without a full
// build.
func newPackCmd(projectRoot *string, dryRun *bool) *cobra.Command {
	var (
		baseName string
		maxSize  int64
	)

	cmd := &cobra.Command{
		Use:   "pack <dir>",
		Short: "Pack a directory into size-bounded pak archives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*projectRoot)
			if err != nil {
				return err
			}

			dir := args[0]
			name := baseName
			if name == "" {
				abs, err := filepath.Abs(dir)
				if err != nil {
					return err
				}
				name = filepath.Base(abs)
			}
			size := maxSize
			if size == 0 {
				size = cfg.Pak.MaxSize
			}

			fs := filesystem.NewOS()
			plan, err := packer.Plan(packer.PlanOptions{
				FS:        fs,
				SourceDir: dir,
				BaseName:  name,
				Extension: cfg.Pak.Extension,
				MaxSize:   size,
			})
			if err != nil {
				return err
			}

			if *dryRun {
				printPartList(cmd.OutOrStdout(), plan)
				return nil
			}

			produced, err := packer.Pack(packer.PackOptions{
				FS:     fs,
				Runner: executor.NewRunner(),
				Plan:   plan,
				Tool:   cfg.Tools.Compress,
			})
			if err != nil {
				return err
			}

			successf("Packed %d file(s) into %d archive(s)", plan.FileCount(), len(produced))
			for _, p := range produced {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseName, "name", "", "Archive base name (default: directory name)")
	cmd.Flags().Int64Var(&maxSize, "max-size", 0, "Maximum part size in bytes (default: configured pak.max_size)")

	return cmd
}

// newCleanCmd removes build leftovers: the staging directory and, when
// the manifest is readable, the current bundle.
func newCleanCmd(projectRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the staging directory and the current bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*projectRoot)
			if err != nil {
				return err
			}

			fs := filesystem.NewOS()
			if err := staging.Clean(fs, cfg.StagingPath(*projectRoot)); err != nil {
				return err
			}

			// Without a readable manifest there is no bundle name to
			// clean; that is not an error.
			if m, err := manifest.Read(fs, cfg.ManifestPath(*projectRoot)); err == nil {
				bundle := filepath.Join(*projectRoot, m.BundleName())
				if _, err := fs.Stat(bundle); err == nil {
					if err := fs.Remove(bundle); err != nil {
						return err
					}
					stepf("Removed %s", bundle)
				}
			}

			successf("Clean")
			return nil
		},
	}
}
