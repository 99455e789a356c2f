package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNewGenerateCmdDefaultFlags(t *testing.T) {
	cmd := NewGenerateCmd()

	inputDir, err := cmd.Flags().GetString("input-dir")
	if err != nil || inputDir != "." {
		t.Errorf("input-dir default = %q, err %v", inputDir, err)
	}
	outputDir, err := cmd.Flags().GetString("output-dir")
	if err != nil || outputDir != "./repo" {
		t.Errorf("output-dir default = %q, err %v", outputDir, err)
	}
	simple, err := cmd.Flags().GetBool("simple-metadata-filenames")
	if err != nil || simple {
		t.Errorf("simple-metadata-filenames default = %v, err %v", simple, err)
	}
}

func TestParseCompressionTypeRejectsUnknown(t *testing.T) {
	if _, err := parseCompressionType("lzma"); err == nil {
		t.Error("expected an error for an unsupported compression name")
	}
	for _, name := range []string{"none", "gzip", "xz", "bz2", "zstd"} {
		if _, err := parseCompressionType(name); err != nil {
			t.Errorf("parseCompressionType(%q): %v", name, err)
		}
	}
}

func TestRunGenerationIsNoOpWithNoPackagesFound(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := &generateConfig{
		InputDir:        dir,
		OutputDir:       filepath.Join(dir, "out"),
		ChecksumType:    "sha256",
		CompressionType: "gzip",
	}
	if err := runGeneration(context.Background(), cfg); err != nil {
		t.Fatalf("expected a clean no-op when no RPMs are present, got error: %v", err)
	}
}

func TestRunGenerationRejectsBadChecksum(t *testing.T) {
	dir := t.TempDir()
	cfg := &generateConfig{
		InputDir:        dir,
		OutputDir:       filepath.Join(dir, "out"),
		ChecksumType:    "not-a-real-algo",
		CompressionType: "gzip",
	}
	if err := runGeneration(context.Background(), cfg); err == nil {
		t.Error("expected an error for an invalid --checksum value")
	}
}
