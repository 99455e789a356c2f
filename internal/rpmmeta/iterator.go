package rpmmeta

import (
	"encoding/xml"
	"io"
	"path/filepath"
)

// IteratorOptions configures PackageIterator's strictness. Lenient governs
// what happens when primary.xml, filelists.xml, and other.xml declare
// different package counts (spec §5 Open Question: streaming count-mismatch
// strictness): false (the default) fails fast with ErrInconsistentMetadata;
// true proceeds, merging whichever of the three streams still has packages
// left.
type IteratorOptions struct {
	Lenient bool
}

// PackageIterator streams primary.xml, filelists.xml, and other.xml in
// lockstep, one <package> at a time from each, merging the three into a
// single Package per step (spec §5 C4). This assumes the three files list
// packages in the same order, which every metadata producer in the wild
// (createrepo_c included) guarantees; grounded directly on
// original_source/src/package.rs's PackageParser.
type PackageIterator struct {
	primary   *xml.Decoder
	filelists *xml.Decoder
	other     *xml.Decoder

	primaryC   io.Closer
	filelistsC io.Closer
	otherC     io.Closer
	hasOther   bool

	numPackages int
	numRead     int
	opts        IteratorOptions
}

func newPackageIterator(repoPath string, repomd *RepomdData, opts IteratorOptions) (*PackageIterator, error) {
	primaryRec := repomd.GetRecord("primary")
	if primaryRec == nil {
		return nil, errMissingField("primary")
	}
	filelistsRec := repomd.GetRecord("filelists")
	if filelistsRec == nil {
		return nil, errMissingField("filelists")
	}
	otherRec := repomd.GetRecord("other")

	it := &PackageIterator{opts: opts}

	var err error
	var primaryCount, filelistsCount, otherCount int

	it.primary, it.primaryC, primaryCount, err = openMetadataDecoder(filepath.Join(repoPath, primaryRec.LocationHref), "metadata")
	if err != nil {
		return nil, err
	}
	it.filelists, it.filelistsC, filelistsCount, err = openMetadataDecoder(filepath.Join(repoPath, filelistsRec.LocationHref), "filelists")
	if err != nil {
		it.primaryC.Close()
		return nil, err
	}
	if otherRec != nil {
		it.other, it.otherC, otherCount, err = openMetadataDecoder(filepath.Join(repoPath, otherRec.LocationHref), "otherdata")
		if err != nil {
			it.primaryC.Close()
			it.filelistsC.Close()
			return nil, err
		}
		it.hasOther = true
	}

	if !opts.Lenient {
		if primaryCount != filelistsCount || (it.hasOther && primaryCount != otherCount) {
			it.Close()
			return nil, errInconsistentMetadata("primary/filelists/other package count mismatch")
		}
	}

	it.numPackages = primaryCount
	return it, nil
}

// openMetadataDecoder opens path (auto-decompressing) and advances past
// its root element, returning the decoder, the underlying closer, and the
// declared "packages" count.
func openMetadataDecoder(path, rootLocal string) (*xml.Decoder, io.Closer, int, error) {
	r, _, err := openReader(path)
	if err != nil {
		return nil, nil, 0, err
	}
	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, nil, 0, errMissingHeader(rootLocal)
		}
		if err != nil {
			return nil, nil, 0, wrapXMLParse(err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != rootLocal {
			continue
		}
		count, err := parseAttrInt(se, "packages")
		if err != nil {
			return nil, nil, 0, err
		}
		return dec, r, int(count), nil
	}
}

// TotalPackages returns the package count primary.xml declared.
func (it *PackageIterator) TotalPackages() int {
	return it.numPackages
}

// RemainingPackages returns how many packages have not yet been read.
func (it *PackageIterator) RemainingPackages() int {
	return it.numPackages - it.numRead
}

// Next reads the next package, merging its primary.xml, filelists.xml, and
// other.xml records, or returns (nil, nil) once all three streams are
// exhausted.
func (it *PackageIterator) Next() (*Package, error) {
	pkg, err := nextPrimaryPackage(it.primary)
	if err != nil {
		return nil, err
	}

	pkgid, name, arch, evr, files, hasFiles, err := nextFilelistsPackage(it.filelists)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		if hasFiles && !it.opts.Lenient {
			return nil, errInconsistentMetadata("filelists.xml has more packages than primary.xml")
		}
	} else if hasFiles {
		if pkg.Pkgid() != "" && pkgid != pkg.Pkgid() {
			return nil, errInconsistentMetadata("filelists.xml package order differs from primary.xml")
		}
		mergeIteratorFiles(pkg, pkgid, name, arch, evr, files)
	} else if !it.opts.Lenient {
		return nil, errInconsistentMetadata("primary.xml has more packages than filelists.xml")
	}

	if it.hasOther {
		opkgid, oname, oarch, changelogs, hasOther, err := nextOtherPackage(it.other)
		if err != nil {
			return nil, err
		}
		if pkg == nil {
			if hasOther && !it.opts.Lenient {
				return nil, errInconsistentMetadata("other.xml has more packages than primary.xml")
			}
		} else if hasOther {
			if pkg.Pkgid() != "" && opkgid != pkg.Pkgid() {
				return nil, errInconsistentMetadata("other.xml package order differs from primary.xml")
			}
			mergeIteratorChangelogs(pkg, opkgid, oname, oarch, changelogs)
		} else if !it.opts.Lenient {
			return nil, errInconsistentMetadata("primary.xml has more packages than other.xml")
		}
	}

	if pkg == nil {
		return nil, nil
	}
	it.numRead++
	return pkg, nil
}

func mergeIteratorFiles(pkg *Package, pkgid, name, arch string, evr EVR, files []PackageFile) {
	if pkg.Name == "" {
		pkg.Name = name
	}
	if pkg.Arch == "" {
		pkg.Arch = arch
	}
	if pkg.EVR == (EVR{}) {
		pkg.EVR = evr
	}
	if pkg.Pkgid() == "" {
		pkg.Checksum.Digest = pkgid
	}
	pkg.Files = files
	pkg.filesComplete = true
}

func mergeIteratorChangelogs(pkg *Package, pkgid, name, arch string, changelogs []Changelog) {
	if pkg.Name == "" {
		pkg.Name = name
	}
	if pkg.Arch == "" {
		pkg.Arch = arch
	}
	if pkg.Pkgid() == "" {
		pkg.Checksum.Digest = pkgid
	}
	pkg.Changelogs = changelogs
}

// Close releases the underlying file handles.
func (it *PackageIterator) Close() error {
	var first error
	for _, c := range []io.Closer{it.primaryC, it.filelistsC, it.otherC} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// nextPrimaryPackage reads the next <package> from an already-positioned
// primary.xml decoder, or (nil, nil) at </metadata>.
func nextPrimaryPackage(dec *xml.Decoder) (*Package, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, wrapXMLParse(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "package" {
				return parsePrimaryPackage(dec)
			}
		case xml.EndElement:
			if t.Name.Local == "metadata" {
				return nil, nil
			}
		}
	}
}

// nextFilelistsPackage reads the next <package> from an already-positioned
// filelists.xml decoder. ok is false once the stream is exhausted.
func nextFilelistsPackage(dec *xml.Decoder) (pkgid, name, arch string, evr EVR, files []PackageFile, ok bool, err error) {
	for {
		tok, terr := dec.Token()
		if terr == io.EOF {
			return "", "", "", EVR{}, nil, false, nil
		}
		if terr != nil {
			return "", "", "", EVR{}, nil, false, wrapXMLParse(terr)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "package" {
				continue
			}
			pkgid = attrValue(t, "pkgid")
			name = attrValue(t, "name")
			arch = attrValue(t, "arch")
			for {
				tok2, terr2 := dec.Token()
				if terr2 == io.EOF {
					return "", "", "", EVR{}, nil, false, wrapXMLParse(io.ErrUnexpectedEOF)
				}
				if terr2 != nil {
					return "", "", "", EVR{}, nil, false, wrapXMLParse(terr2)
				}
				switch t2 := tok2.(type) {
				case xml.StartElement:
					switch t2.Name.Local {
					case "version":
						evr = NewEVR(attrValue(t2, "epoch"), attrValue(t2, "ver"), attrValue(t2, "rel"))
						if e := skipToEnd(dec, "version"); e != nil {
							return "", "", "", EVR{}, nil, false, e
						}
					case "file":
						ft := ParseFileType(attrValue(t2, "type"))
						text, e := readCharData(dec, "file")
						if e != nil {
							return "", "", "", EVR{}, nil, false, e
						}
						files = append(files, PackageFile{Type: ft, Path: text})
					default:
						if e := skipElement(dec); e != nil {
							return "", "", "", EVR{}, nil, false, e
						}
					}
				case xml.EndElement:
					if t2.Name.Local == "package" {
						return pkgid, name, arch, evr, files, true, nil
					}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "filelists" {
				return "", "", "", EVR{}, nil, false, nil
			}
		}
	}
}

// nextOtherPackage reads the next <package> from an already-positioned
// other.xml decoder. ok is false once the stream is exhausted.
func nextOtherPackage(dec *xml.Decoder) (pkgid, name, arch string, changelogs []Changelog, ok bool, err error) {
	for {
		tok, terr := dec.Token()
		if terr == io.EOF {
			return "", "", "", nil, false, nil
		}
		if terr != nil {
			return "", "", "", nil, false, wrapXMLParse(terr)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "package" {
				continue
			}
			pkgid = attrValue(t, "pkgid")
			name = attrValue(t, "name")
			arch = attrValue(t, "arch")
			for {
				tok2, terr2 := dec.Token()
				if terr2 == io.EOF {
					return "", "", "", nil, false, wrapXMLParse(io.ErrUnexpectedEOF)
				}
				if terr2 != nil {
					return "", "", "", nil, false, wrapXMLParse(terr2)
				}
				switch t2 := tok2.(type) {
				case xml.StartElement:
					switch t2.Name.Local {
					case "version":
						if e := skipToEnd(dec, "version"); e != nil {
							return "", "", "", nil, false, e
						}
					case "changelog":
						author := attrValue(t2, "author")
						date, e := parseAttrInt(t2, "date")
						if e != nil {
							return "", "", "", nil, false, e
						}
						text, e := readCharData(dec, "changelog")
						if e != nil {
							return "", "", "", nil, false, e
						}
						changelogs = append(changelogs, Changelog{Author: author, Date: date, Description: text})
					default:
						if e := skipElement(dec); e != nil {
							return "", "", "", nil, false, e
						}
					}
				case xml.EndElement:
					if t2.Name.Local == "package" {
						return pkgid, name, arch, changelogs, true, nil
					}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "otherdata" {
				return "", "", "", nil, false, nil
			}
		}
	}
}
