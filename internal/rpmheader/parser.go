// Package rpmheader extracts rpmmeta.Package metadata directly from an RPM
// file's header, the collaborator cmd/rpmrepo uses to build a Repository
// from a directory of .rpm files without an external createrepo binary.
package rpmheader

import (
	"fmt"
	"os"

	"github.com/sassoftware/go-rpmutils"

	"github.com/rpmrepo/rpmrepo-metadata/internal/rpmmeta"
)

// Numeric RPM header tag IDs for fields go-rpmutils doesn't export a named
// constant for. These are part of rpm's long-stable on-disk tag ABI (see
// rpm's rpmtag.h); grounded on the same numeric-tag approach
// internal/generator/rpm/parser.go (the donor repo this package replaces)
// already used for RPMTAG_DISTURL/DISTRIBUTION/DISTTAG.
const (
	tagBuildHost   = 1007
	tagSize        = 1009
	tagVendor      = 1011
	tagSourceRPM   = 1044
	tagArchiveSize = 1046

	tagProvideName    = 1047
	tagRequireFlags   = 1048
	tagRequireName    = 1049
	tagRequireVersion = 1050
	tagConflictFlags  = 1053
	tagConflictName   = 1054
	tagConflictVer    = 1055
	tagObsoleteName   = 1090
	tagProvideFlags   = 1112
	tagProvideVersion = 1113
	tagObsoleteFlags  = 1114
	tagObsoleteVer    = 1115

	tagChangelogTime = 1080
	tagChangelogName = 1081
	tagChangelogText = 1082

	tagRecommendName    = 5046
	tagRecommendVersion = 5047
	tagRecommendFlags   = 5048
	tagSuggestName      = 5049
	tagSuggestVersion   = 5050
	tagSuggestFlags     = 5051
	tagSupplementName   = 5052
	tagSupplementVer    = 5053
	tagSupplementFlags  = 5054
	tagEnhanceName      = 5055
	tagEnhanceVersion   = 5056
	tagEnhanceFlags     = 5057
)

// RPMSENSE_* comparison bits, the only ones whose meaning has been stable
// across every rpm release; RPMSENSE_PREREQ's bit position has moved
// between rpm versions so it is deliberately not decoded here.
const (
	senseLess    = 1 << 1
	senseGreater = 1 << 2
	senseEqual   = 1 << 3
)

// ParsePackage reads the RPM file at path and builds the rpmmeta.Package it
// contributes to a repository's primary/filelists/other.xml, computing its
// pkgid under checksumType (spec §3: "pkgid is the checksum of the package
// file's exact on-disk bytes").
//
// Package.Files and Package.RpmHeaderRange are left zero-valued: recovering
// the file list requires decoding BASENAMES/DIRNAMES/DIRINDEXES against the
// installed file's mode bits, and the header byte range requires the lead
// and signature section sizes go-rpmutils does not surface on Rpm; both are
// out of scope until those can be sourced with confidence rather than
// guessed at.
func ParsePackage(path string, checksumType rpmmeta.ChecksumType) (*rpmmeta.Package, error) {
	digest, size, err := rpmmeta.ChecksumFile(path, checksumType)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, rpmmeta.WrapRpmRead(path, err)
	}
	defer f.Close()

	rpm, err := rpmutils.ReadRpm(f)
	if err != nil {
		return nil, rpmmeta.WrapRpmRead(path, err)
	}
	hdr := rpm.Header

	checksum, err := rpmmeta.NewChecksum(checksumType, digest)
	if err != nil {
		return nil, err
	}

	evr := rpmmeta.NewEVR(
		getStringTag(hdr, rpmutils.EPOCH),
		getStringTag(hdr, rpmutils.VERSION),
		getStringTag(hdr, rpmutils.RELEASE),
	)

	pkg := rpmmeta.NewPackage(
		getStringTag(hdr, rpmutils.NAME),
		evr,
		getStringTag(hdr, rpmutils.ARCH),
		checksum,
		fmt.Sprintf("Packages/%s", fileBaseName(path)),
	)

	pkg.Summary = getStringTag(hdr, rpmutils.SUMMARY)
	pkg.Description = getStringTag(hdr, rpmutils.DESCRIPTION)
	pkg.Packager = getStringTag(hdr, rpmutils.PACKAGER)
	pkg.URL = getStringTag(hdr, rpmutils.URL)
	pkg.RpmLicense = getStringTag(hdr, rpmutils.LICENSE)
	pkg.RpmVendor = getStringTag(hdr, tagVendor)
	pkg.RpmGroup = getStringTag(hdr, rpmutils.GROUP)
	pkg.RpmBuildhost = getStringTag(hdr, tagBuildHost)
	pkg.RpmSourceRpm = getStringTag(hdr, tagSourceRPM)

	pkg.Time.Build = getIntTag(hdr, rpmutils.BUILDTIME)
	pkg.Time.File = pkg.Time.Build

	pkg.Size.Package = size
	pkg.Size.Installed = getIntTag(hdr, tagSize)
	pkg.Size.Archive = getIntTag(hdr, tagArchiveSize)

	pkg.Provides = getRequirements(hdr, tagProvideName, tagProvideVersion, tagProvideFlags)
	pkg.Requires = getRequirements(hdr, tagRequireName, tagRequireVersion, tagRequireFlags)
	pkg.Conflicts = getRequirements(hdr, tagConflictName, tagConflictVer, tagConflictFlags)
	pkg.Obsoletes = getRequirements(hdr, tagObsoleteName, tagObsoleteVer, tagObsoleteFlags)
	pkg.Recommends = getRequirements(hdr, tagRecommendName, tagRecommendVersion, tagRecommendFlags)
	pkg.Suggests = getRequirements(hdr, tagSuggestName, tagSuggestVersion, tagSuggestFlags)
	pkg.Supplements = getRequirements(hdr, tagSupplementName, tagSupplementVer, tagSupplementFlags)
	pkg.Enhances = getRequirements(hdr, tagEnhanceName, tagEnhanceVersion, tagEnhanceFlags)

	pkg.Changelogs = getChangelogs(hdr)

	return pkg, nil
}

func fileBaseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

// getStringTag mirrors the donor's defensive tag accessor: go-rpmutils
// returns different concrete types depending on the tag's RPM value type,
// so every shape it might hand back is normalized to a string.
func getStringTag(hdr *rpmutils.RpmHeader, tag int) string {
	val, err := hdr.Get(tag)
	if err != nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case []string:
		if len(v) > 0 {
			return v[0]
		}
		return ""
	case int, int32, int64, uint32:
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}

func getIntTag(hdr *rpmutils.RpmHeader, tag int) int64 {
	val, err := hdr.Get(tag)
	if err != nil {
		return 0
	}
	switch v := val.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint32:
		return int64(v)
	case []int32:
		if len(v) > 0 {
			return int64(v[0])
		}
	case []uint32:
		if len(v) > 0 {
			return int64(v[0])
		}
	case []int64:
		if len(v) > 0 {
			return v[0]
		}
	}
	return 0
}

func getStringSliceTag(hdr *rpmutils.RpmHeader, tag int) []string {
	val, err := hdr.Get(tag)
	if err != nil {
		return nil
	}
	if slice, ok := val.([]string); ok {
		return slice
	}
	return nil
}

func getIntSliceTag(hdr *rpmutils.RpmHeader, tag int) []int64 {
	val, err := hdr.Get(tag)
	if err != nil {
		return nil
	}
	switch v := val.(type) {
	case []int32:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out
	case []uint32:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out
	case []int64:
		return v
	}
	return nil
}

// decodeSenseFlags maps an RPMSENSE_* bitmask to a rpmmeta.RequirementType;
// only the LESS/GREATER/EQUAL bits are decoded (see senseLess and friends).
func decodeSenseFlags(flags int64) rpmmeta.RequirementType {
	lt := flags&senseLess != 0
	gt := flags&senseGreater != 0
	eq := flags&senseEqual != 0

	switch {
	case lt && eq:
		return rpmmeta.RequirementLE
	case gt && eq:
		return rpmmeta.RequirementGE
	case lt:
		return rpmmeta.RequirementLT
	case gt:
		return rpmmeta.RequirementGT
	case eq:
		return rpmmeta.RequirementEQ
	default:
		return rpmmeta.RequirementNone
	}
}

// getRequirements builds a Requirement list by zipping the name/version/
// flags tag triplet a dependency list is always stored as.
// Requirement.Preinstall is left at its zero value (false): go-rpmutils
// does not reliably decode RPMSENSE_PREREQ across rpm versions, so it is
// not guessed at here.
func getRequirements(hdr *rpmutils.RpmHeader, nameTag, versionTag, flagsTag int) []rpmmeta.Requirement {
	names := getStringSliceTag(hdr, nameTag)
	if len(names) == 0 {
		return nil
	}
	versions := getStringSliceTag(hdr, versionTag)
	flags := getIntSliceTag(hdr, flagsTag)

	reqs := make([]rpmmeta.Requirement, 0, len(names))
	for i, name := range names {
		req := rpmmeta.Requirement{Name: name}
		if i < len(versions) && versions[i] != "" {
			ver := rpmmeta.ParseEVR(versions[i])
			req.Epoch, req.Version, req.Release = ver.Epoch, ver.Version, ver.Release
		}
		if i < len(flags) {
			req.Flags = decodeSenseFlags(flags[i])
		}
		reqs = append(reqs, req)
	}
	return reqs
}

func getChangelogs(hdr *rpmutils.RpmHeader) []rpmmeta.Changelog {
	names := getStringSliceTag(hdr, tagChangelogName)
	texts := getStringSliceTag(hdr, tagChangelogText)
	times := getIntSliceTag(hdr, tagChangelogTime)
	if len(names) == 0 {
		return nil
	}

	logs := make([]rpmmeta.Changelog, 0, len(names))
	for i, name := range names {
		cl := rpmmeta.Changelog{Author: name}
		if i < len(texts) {
			cl.Description = texts[i]
		}
		if i < len(times) {
			cl.Date = times[i]
		}
		logs = append(logs, cl)
	}
	return logs
}
