package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rpmrepo/rpmrepo-metadata/internal/rpmheader"
	"github.com/rpmrepo/rpmrepo-metadata/internal/rpmmeta"
	"github.com/rpmrepo/rpmrepo-metadata/internal/scanner"
)

type generateConfig struct {
	InputDir                string
	OutputDir               string
	ChecksumType            string
	CompressionType         string
	SimpleMetadataFilenames bool
	RepoTags                []string
}

// NewGenerateCmd creates the generate command
func NewGenerateCmd() *cobra.Command {
	var config generateConfig

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Scan a directory of RPMs and write repodata/",
		Long: `Scans the input directory for .rpm files, reads each one's header to
build its package metadata, and writes repodata/{repomd,primary,filelists,
other}.xml under the output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.InputDir == "" {
				return fmt.Errorf("input-dir is required")
			}
			if config.OutputDir == "" {
				return fmt.Errorf("output-dir is required")
			}

			logrus.Infof("Starting repository generation from %s", config.InputDir)
			return runGeneration(cmd.Context(), &config)
		},
	}

	cmd.Flags().StringVarP(&config.InputDir, "input-dir", "i", ".", "Directory to scan for .rpm files")
	cmd.Flags().StringVarP(&config.OutputDir, "output-dir", "o", "./repo", "Output directory for repodata/")
	cmd.Flags().StringVar(&config.ChecksumType, "checksum", "sha256", "Checksum algorithm for pkgids and metadata files (md5, sha1, sha224, sha256, sha384, sha512)")
	cmd.Flags().StringVar(&config.CompressionType, "compression", "gzip", "Metadata compression codec (none, gzip, xz, bz2, zstd)")
	cmd.Flags().BoolVar(&config.SimpleMetadataFilenames, "simple-metadata-filenames", false, "Do not prefix metadata filenames with their checksum")
	cmd.Flags().StringSliceVar(&config.RepoTags, "repo-tag", nil, "repo tag(s) to record in repomd.xml (e.g. rpm-md)")

	return cmd
}

func parseCompressionType(name string) (rpmmeta.CompressionType, error) {
	switch name {
	case "none":
		return rpmmeta.CompressionNone, nil
	case "gzip":
		return rpmmeta.CompressionGzip, nil
	case "xz":
		return rpmmeta.CompressionXz, nil
	case "bz2":
		return rpmmeta.CompressionBz2, nil
	case "zstd":
		return rpmmeta.CompressionZstd, nil
	default:
		return rpmmeta.CompressionNone, fmt.Errorf("unsupported compression %q", name)
	}
}

func runGeneration(ctx context.Context, config *generateConfig) error {
	checksumType, err := rpmmeta.ParseChecksumType(config.ChecksumType)
	if err != nil {
		return fmt.Errorf("invalid --checksum: %w", err)
	}
	compressionType, err := parseCompressionType(config.CompressionType)
	if err != nil {
		return fmt.Errorf("invalid --compression: %w", err)
	}

	logrus.Infof("Scanning directory: %s", config.InputDir)
	sc := scanner.NewFileSystemScanner()
	scanned, err := sc.Scan(ctx, config.InputDir)
	if err != nil {
		return fmt.Errorf("failed to scan directory: %w", err)
	}
	if len(scanned) == 0 {
		logrus.Warn("No RPM packages found in input directory")
		return nil
	}
	logrus.Infof("Found %d RPM packages", len(scanned))

	repo := rpmmeta.NewRepository()
	for _, tag := range config.RepoTags {
		repo.Repomd.AddRepoTag(tag)
	}

	for _, sp := range scanned {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		logrus.Debugf("Parsing %s", sp.Path)
		pkg, err := rpmheader.ParsePackage(sp.Path, checksumType)
		if err != nil {
			logrus.Warnf("Failed to parse %s: %v", sp.Path, err)
			continue
		}
		if err := repo.AddPackage(pkg); err != nil {
			logrus.Warnf("Skipping %s: %v", sp.Path, err)
			continue
		}
	}

	if repo.Packages.Len() == 0 {
		return fmt.Errorf("no packages parsed successfully from %s", config.InputDir)
	}

	repo.Sort()

	options := rpmmeta.RepositoryOptions{
		SimpleMetadataFilenames: config.SimpleMetadataFilenames,
		MetadataCompressionType: compressionType,
		MetadataChecksumType:    checksumType,
		PackageChecksumType:     checksumType,
	}

	logrus.Infof("Writing repository metadata for %d packages to %s", repo.Packages.Len(), config.OutputDir)
	if err := rpmmeta.WriteRepository(repo, config.OutputDir, options); err != nil {
		return fmt.Errorf("failed to write repository metadata: %w", err)
	}

	logrus.Info("Repository generation completed successfully!")
	logrus.Infof("Output directory: %s", config.OutputDir)
	return nil
}
