package rpmmeta

import "testing"

func TestNevraShortOmitsZeroEpoch(t *testing.T) {
	pkg := NewPackage("bash", NewEVR("", "5.1", "2"), "x86_64", Checksum{Type: ChecksumSHA256, Digest: "abc"}, "")
	n := NewNevra(pkg)
	if got := n.Short(); got != "bash-5.1-2.x86_64" {
		t.Errorf("Short() = %q, want bash-5.1-2.x86_64", got)
	}
	if got := n.Canonical(); got != "bash-0:5.1-2.x86_64" {
		t.Errorf("Canonical() = %q, want bash-0:5.1-2.x86_64", got)
	}
}

func TestNevraShortIncludesNonZeroEpoch(t *testing.T) {
	pkg := NewPackage("bash", NewEVR("2", "5.1", "2"), "x86_64", Checksum{Type: ChecksumSHA256, Digest: "abc"}, "")
	n := NewNevra(pkg)
	if got := n.Short(); got != "bash-2:5.1-2.x86_64" {
		t.Errorf("Short() = %q, want bash-2:5.1-2.x86_64", got)
	}
}

func TestPkgidIsChecksumDigest(t *testing.T) {
	pkg := NewPackage("bash", EVR{}, "x86_64", Checksum{Type: ChecksumSHA256, Digest: "deadbeef"}, "")
	if pkg.Pkgid() != "deadbeef" {
		t.Errorf("Pkgid() = %q, want deadbeef", pkg.Pkgid())
	}
}

func TestRequirementTypeRoundTrip(t *testing.T) {
	cases := []RequirementType{RequirementLT, RequirementGT, RequirementEQ, RequirementLE, RequirementGE}
	for _, rt := range cases {
		got, err := ParseRequirementType(rt.String())
		if err != nil {
			t.Fatalf("ParseRequirementType(%q): %v", rt.String(), err)
		}
		if got != rt {
			t.Errorf("ParseRequirementType(%q) = %v, want %v", rt.String(), got, rt)
		}
	}
	none, err := ParseRequirementType("")
	if err != nil || none != RequirementNone {
		t.Errorf("ParseRequirementType(\"\") = (%v, %v), want (RequirementNone, nil)", none, err)
	}
	if _, err := ParseRequirementType("BOGUS"); err == nil {
		t.Error("expected error for unrecognized flags value")
	}
}

func TestParseFileTypeDefaultsToFile(t *testing.T) {
	if ParseFileType("") != FileTypeFile {
		t.Error("expected empty type attribute to default to FileTypeFile")
	}
	if ParseFileType("dir") != FileTypeDir {
		t.Error("expected dir to parse to FileTypeDir")
	}
	if ParseFileType("ghost") != FileTypeGhost {
		t.Error("expected ghost to parse to FileTypeGhost")
	}
	if ParseFileType("bogus") != FileTypeFile {
		t.Error("expected unrecognized type to default to FileTypeFile")
	}
}

func TestPrimaryFileFilter(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/etc/foo.conf", true},
		{"/usr/bin/bash", true},
		{"/usr/lib/sendmail", true},
		{"/usr/share/doc/bash/README", false},
		{"/var/lib/rpm/foo", false},
	}
	for _, c := range cases {
		if got := primaryFileFilter(c.path); got != c.want {
			t.Errorf("primaryFileFilter(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}
