package scanner

import (
	"bytes"
	"os"
	"path/filepath"
)

// rpmMagic is the lead section's magic number every RPM file starts with.
var rpmMagic = []byte{0xED, 0xAB, 0xEE, 0xDB}

// DetectPackageType determines the package type based on magic bytes and
// file extension. Only RPM files are recognized; everything else reports
// TypeUnknown so the scanner skips it.
func DetectPackageType(path string) (PackageType, error) {
	f, err := os.Open(path)
	if err != nil {
		return TypeUnknown, err
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && n == 0 {
		return TypeUnknown, err
	}
	header = header[:n]

	if bytes.HasPrefix(header, rpmMagic) || filepath.Ext(path) == ".rpm" {
		return TypeRpm, nil
	}

	return TypeUnknown, nil
}
