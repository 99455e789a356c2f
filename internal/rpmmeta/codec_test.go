package rpmmeta

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestCodecRoundTripAllCompressions(t *testing.T) {
	codecs := []CompressionType{CompressionNone, CompressionGzip, CompressionXz, CompressionBz2, CompressionZstd}
	content := []byte("primary.xml payload used to exercise every codec\n")

	for _, codec := range codecs {
		codec := codec
		t.Run(codec.String(), func(t *testing.T) {
			dir := t.TempDir()
			base := filepath.Join(dir, "primary.xml")

			finalPath, w, err := openWriter(base, codec)
			if err != nil {
				t.Fatalf("openWriter: %v", err)
			}
			if filepath.Ext(finalPath) != codec.suffix() && codec != CompressionNone {
				t.Errorf("finalPath %q missing suffix %q", finalPath, codec.suffix())
			}
			if _, err := w.Write(content); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			r, detected, err := openReader(finalPath)
			if err != nil {
				t.Fatalf("openReader: %v", err)
			}
			defer r.Close()
			if detected != codec {
				t.Errorf("detected codec = %v, want %v", detected, codec)
			}
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if string(got) != string(content) {
				t.Errorf("round trip mismatch: got %q, want %q", got, content)
			}
		})
	}
}

func TestOpenWriterCreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "repodata", "primary.xml")

	finalPath, w, err := openWriter(nested, CompressionGzip)
	if err != nil {
		t.Fatalf("openWriter: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(filepath.Dir(finalPath)); err != nil {
		t.Errorf("expected parent directory to exist: %v", err)
	}
}

func TestDetectCompressionMagicBytes(t *testing.T) {
	cases := []struct {
		peek []byte
		want CompressionType
	}{
		{[]byte{0x1F, 0x8B, 0x08}, CompressionGzip},
		{[]byte{0x28, 0xB5, 0x2F, 0xFD}, CompressionZstd},
		{[]byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}, CompressionXz},
		{[]byte("BZh9"), CompressionBz2},
		{[]byte("<?xml version"), CompressionNone},
	}
	for _, c := range cases {
		if got := detectCompression(c.peek); got != c.want {
			t.Errorf("detectCompression(%v) = %v, want %v", c.peek, got, c.want)
		}
	}
}

func TestApplyCompressionSuffix(t *testing.T) {
	if got := applyCompressionSuffix("repodata/primary.xml", CompressionGzip); got != "repodata/primary.xml.gz" {
		t.Errorf("got %q", got)
	}
	if got := applyCompressionSuffix("repodata/primary.xml", CompressionNone); got != "repodata/primary.xml" {
		t.Errorf("got %q", got)
	}
}
