package rpmmeta

import (
	"fmt"
	"strings"
)

// Package is one package's worth of metadata, merged from primary.xml,
// filelists.xml, and other.xml entries that share a pkgid (spec §3).
type Package struct {
	Name           string
	Arch           string
	EVR            EVR
	Checksum       Checksum
	LocationHref   string
	LocationBase   string
	Summary        string
	Description    string
	Packager       string
	URL            string
	Time           Time
	Size           Size
	RpmLicense     string
	RpmVendor      string
	RpmGroup       string
	RpmBuildhost   string
	RpmSourceRpm   string
	RpmHeaderRange HeaderRange

	Requires    []Requirement
	Provides    []Requirement
	Conflicts   []Requirement
	Obsoletes   []Requirement
	Suggests    []Requirement
	Enhances    []Requirement
	Recommends  []Requirement
	Supplements []Requirement

	Changelogs []Changelog
	Files      []PackageFile

	// filesComplete marks Files as the authoritative full list filelists.xml
	// carries, as opposed to primary.xml's filtered subset; see
	// mergePrimaryPackage in merge.go for why this matters regardless of read order.
	filesComplete bool
}

// NewPackage builds the minimal Package a primary.xml entry always carries:
// name, EVR, arch, pkgid, and location. Every other field defaults zero and
// is filled in by the primary/filelists/other readers as they merge.
func NewPackage(name string, evr EVR, arch string, checksum Checksum, locationHref string) *Package {
	return &Package{
		Name:         name,
		Arch:         arch,
		EVR:          evr,
		Checksum:     checksum,
		LocationHref: locationHref,
	}
}

// Pkgid returns the package's checksum digest, the key filelists.xml and
// other.xml entries are merged against.
func (p *Package) Pkgid() string {
	return p.Checksum.Digest
}

// Nevra is the name-epoch-version-release-arch view of a Package, used for
// the uniqueness check a Repository enforces on add (spec §3 invariant 2).
type Nevra struct {
	Name string
	Arch string
	EVR  EVR
}

// NewNevra extracts the Nevra identity of a Package.
func NewNevra(p *Package) Nevra {
	return Nevra{Name: p.Name, Arch: p.Arch, EVR: p.EVR}
}

// Short renders "name-version-release.arch", or "name-epoch:version-release.arch"
// when the epoch is non-zero.
func (n Nevra) Short() string {
	epoch, version, release := n.EVR.Values()
	if epoch == "0" {
		return fmt.Sprintf("%s-%s-%s.%s", n.Name, version, release, n.Arch)
	}
	return fmt.Sprintf("%s-%s:%s-%s.%s", n.Name, epoch, version, release, n.Arch)
}

// Canonical always includes the epoch, even when "0".
func (n Nevra) Canonical() string {
	epoch, version, release := n.EVR.Values()
	return fmt.Sprintf("%s-%s:%s-%s.%s", n.Name, epoch, version, release, n.Arch)
}

func (n Nevra) String() string {
	return n.Canonical()
}

// Changelog is one <changelog author="..." date="..."> entry in other.xml.
type Changelog struct {
	Author      string
	Date        int64
	Description string
}

// Time holds the build and file mtimes carried by <time file="..." build="...">.
type Time struct {
	File  int64
	Build int64
}

// Size holds the three sizes carried by <size package="..." installed="..." archive="...">.
type Size struct {
	Package   int64
	Installed int64
	Archive   int64
}

// HeaderRange holds the RPM header byte offsets carried by
// <rpm:header-range start="..." end="...">.
type HeaderRange struct {
	Start int64
	End   int64
}

// RequirementType is the comparison operator of a Requirement's version
// constraint, as it appears in a <rpm:entry flags="...">.
type RequirementType int

const (
	RequirementNone RequirementType = iota
	RequirementLT
	RequirementGT
	RequirementEQ
	RequirementLE
	RequirementGE
)

func (t RequirementType) String() string {
	switch t {
	case RequirementLT:
		return "LT"
	case RequirementGT:
		return "GT"
	case RequirementEQ:
		return "EQ"
	case RequirementLE:
		return "LE"
	case RequirementGE:
		return "GE"
	default:
		return ""
	}
}

// ParseRequirementType maps a wire-level flags attribute to a RequirementType.
func ParseRequirementType(s string) (RequirementType, error) {
	switch s {
	case "":
		return RequirementNone, nil
	case "LT":
		return RequirementLT, nil
	case "GT":
		return RequirementGT, nil
	case "EQ":
		return RequirementEQ, nil
	case "LE":
		return RequirementLE, nil
	case "GE":
		return RequirementGE, nil
	default:
		return RequirementNone, errInvalidFlags(s)
	}
}

// Requirement is one <rpm:entry> in a provides/requires/conflicts/obsoletes/
// suggests/enhances/recommends/supplements list. Epoch/Version/Release/Flags
// are empty when the entry names a package with no version constraint;
// Preinstall is only meaningful (and only ever true) on Requires entries.
type Requirement struct {
	Name       string
	Flags      RequirementType
	Epoch      string
	Version    string
	Release    string
	Preinstall bool
}

// FileType distinguishes a <file> entry's kind, carried by its optional
// type attribute ("dir", "ghost"; absent means a plain file).
type FileType int

const (
	FileTypeFile FileType = iota
	FileTypeDir
	FileTypeGhost
)

func (t FileType) String() string {
	switch t {
	case FileTypeDir:
		return "dir"
	case FileTypeGhost:
		return "ghost"
	default:
		return "file"
	}
}

// ParseFileType maps a <file type="..."> attribute to a FileType; an
// absent or unrecognized attribute means a plain file.
func ParseFileType(s string) FileType {
	switch s {
	case "dir":
		return FileTypeDir
	case "ghost":
		return FileTypeGhost
	default:
		return FileTypeFile
	}
}

// PackageFile is one <file> entry: a path and its type.
type PackageFile struct {
	Type FileType
	Path string
}

// primaryFileFilter reports whether path belongs in primary.xml's pruned
// file list (spec §4.3): files under /etc/, anything containing "bin/", or
// the sendmail symlink. filelists.xml always carries the full list.
func primaryFileFilter(path string) bool {
	return strings.HasPrefix(path, "/etc/") ||
		strings.Contains(path, "bin/") ||
		strings.HasPrefix(path, "/usr/lib/sendmail")
}
