package rpmmeta

import (
	"bufio"
	"encoding/xml"
	"io"
)

const xmlNSCommon = "http://linux.duke.edu/metadata/common"

// PrimaryXMLWriter streams primary.xml package-by-package (spec §4.3/§5):
// write_header once, write_package per package, finish once. Declaring a
// package count other than what gets written is a fatal invariant
// violation (spec §7), reported as a panic carrying *Error — the Go
// analogue of the reference implementation's assert_eq!.
type PrimaryXMLWriter struct {
	x             *xmlw
	bw            *bufio.Writer
	numPackages   int
	written       int
	headerWritten bool
}

// NewPrimaryXMLWriter wraps w for streaming primary.xml output.
func NewPrimaryXMLWriter(w io.Writer) *PrimaryXMLWriter {
	bw := bufio.NewWriter(w)
	return &PrimaryXMLWriter{x: newXMLWriter(bw), bw: bw}
}

// WriteHeader writes the XML declaration and opens <metadata packages="N">.
func (pw *PrimaryXMLWriter) WriteHeader(numPackages int) error {
	pw.numPackages = numPackages
	pw.headerWritten = true
	pw.x.writeDecl()
	pw.x.writeStart("metadata",
		a("xmlns", xmlNSCommon),
		a("xmlns:rpm", xmlNSRpm),
		a("packages", itoa(numPackages)),
	)
	return pw.x.err
}

// WritePackage streams one <package type="rpm">...</package> entry.
func (pw *PrimaryXMLWriter) WritePackage(pkg *Package) error {
	writePrimaryPackage(pw.x, pkg)
	pw.written++
	return pw.x.err
}

// Finish closes </metadata>, writes the trailing newline, and flushes.
// Panics with a typed *Error if the number of packages written does not
// match the count declared to WriteHeader.
func (pw *PrimaryXMLWriter) Finish() error {
	if pw.written != pw.numPackages {
		panic(&Error{
			Type:  ErrInconsistentMetadata,
			Field: "primary.xml",
			Err:   errInconsistentMetadata(countMismatchMsg("primary", pw.written, pw.numPackages)),
		})
	}
	pw.x.writeEnd("metadata")
	pw.x.newline()
	if pw.x.err != nil {
		return wrapIO(pw.x.err)
	}
	return wrapIO(pw.bw.Flush())
}

func writePrimaryPackage(x *xmlw, pkg *Package) {
	x.writeStart("package", a("type", "rpm"))

	x.writeElemText("name", pkg.Name)
	x.writeElemText("arch", pkg.Arch)

	epoch, version, release := pkg.EVR.Values()
	x.writeEmpty("version", a("epoch", epoch), a("ver", version), a("rel", release))

	x.writeElemText("checksum", pkg.Checksum.Digest,
		a("type", pkg.Checksum.Type.String()), a("pkgid", "YES"))

	x.writeElemText("summary", pkg.Summary)
	x.writeElemText("description", pkg.Description)
	x.writeElemText("packager", pkg.Packager)
	x.writeElemText("url", pkg.URL)

	x.writeEmpty("time", a("file", itoa64(pkg.Time.File)), a("build", itoa64(pkg.Time.Build)))
	x.writeEmpty("size",
		a("package", itoa64(pkg.Size.Package)),
		a("installed", itoa64(pkg.Size.Installed)),
		a("archive", itoa64(pkg.Size.Archive)),
	)
	x.writeEmpty("location", a("href", pkg.LocationHref))

	x.writeStart("format")
	x.writeElemText("rpm:license", pkg.RpmLicense)
	x.writeElemText("rpm:vendor", pkg.RpmVendor)
	x.writeElemText("rpm:group", pkg.RpmGroup)
	x.writeElemText("rpm:buildhost", pkg.RpmBuildhost)
	x.writeElemText("rpm:sourcerpm", pkg.RpmSourceRpm)
	x.writeEmpty("rpm:header-range",
		a("start", itoa64(pkg.RpmHeaderRange.Start)),
		a("end", itoa64(pkg.RpmHeaderRange.End)),
	)

	writeRequirementSection(x, "rpm:provides", pkg.Provides)
	writeRequirementSection(x, "rpm:requires", pkg.Requires)
	writeRequirementSection(x, "rpm:conflicts", pkg.Conflicts)
	writeRequirementSection(x, "rpm:obsoletes", pkg.Obsoletes)
	writeRequirementSection(x, "rpm:suggests", pkg.Suggests)
	writeRequirementSection(x, "rpm:enhances", pkg.Enhances)
	writeRequirementSection(x, "rpm:recommends", pkg.Recommends)
	writeRequirementSection(x, "rpm:supplements", pkg.Supplements)

	for _, f := range pkg.Files {
		if f.Type == FileTypeFile && primaryFileFilter(f.Path) {
			x.writeElemText("file", f.Path)
		}
	}

	x.writeEnd("format")
	x.writeEnd("package")
}

func writeRequirementSection(x *xmlw, tag string, entries []Requirement) {
	if len(entries) == 0 {
		return
	}
	x.writeStart(tag)
	for _, e := range entries {
		attrs := []attr{a("name", e.Name)}
		if e.Flags != RequirementNone {
			attrs = append(attrs, a("flags", e.Flags.String()))
		}
		if e.Epoch != "" {
			attrs = append(attrs, a("epoch", e.Epoch))
		}
		if e.Version != "" {
			attrs = append(attrs, a("ver", e.Version))
		}
		if e.Release != "" {
			attrs = append(attrs, a("rel", e.Release))
		}
		if e.Preinstall {
			attrs = append(attrs, a("pre", "1"))
		}
		x.writeEmpty("rpm:entry", attrs...)
	}
	x.writeEnd(tag)
}

// ReadPrimaryXML parses primary.xml from r, merging each <package> entry
// into repo by pkgid (spec §3/§4.4's centralized merge point).
func ReadPrimaryXML(r io.Reader, repo *Repository) error {
	dec := xml.NewDecoder(r)
	foundRoot := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return wrapXMLParse(err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "metadata":
			foundRoot = true
		case "package":
			pkg, err := parsePrimaryPackage(dec)
			if err != nil {
				return err
			}
			mergePrimaryPackage(repo, pkg)
		}
	}

	if !foundRoot {
		return errMissingHeader("metadata")
	}
	return nil
}

func parsePrimaryPackage(dec *xml.Decoder) (*Package, error) {
	pkg := &Package{}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, wrapXMLParse(io.ErrUnexpectedEOF)
		}
		if err != nil {
			return nil, wrapXMLParse(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := parsePrimaryField(dec, t, pkg); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if t.Name.Local == "package" {
				return pkg, nil
			}
		}
	}
}

func parsePrimaryField(dec *xml.Decoder, se xml.StartElement, pkg *Package) error {
	switch se.Name.Local {
	case "name":
		text, err := readCharData(dec, "name")
		if err != nil {
			return err
		}
		pkg.Name = text
	case "arch":
		text, err := readCharData(dec, "arch")
		if err != nil {
			return err
		}
		pkg.Arch = text
	case "version":
		epoch := attrValue(se, "epoch")
		if epoch == "" {
			return errMissingAttribute("epoch")
		}
		ver := attrValue(se, "ver")
		if ver == "" {
			return errMissingAttribute("ver")
		}
		rel := attrValue(se, "rel")
		if rel == "" {
			return errMissingAttribute("rel")
		}
		pkg.EVR = NewEVR(epoch, ver, rel)
		return skipToEnd(dec, "version")
	case "checksum":
		algoName := attrValue(se, "type")
		if algoName == "" {
			return errMissingAttribute("type")
		}
		text, err := readCharData(dec, "checksum")
		if err != nil {
			return err
		}
		algo, err := ParseChecksumType(algoName)
		if err != nil {
			return err
		}
		cs, err := NewChecksum(algo, text)
		if err != nil {
			return err
		}
		pkg.Checksum = cs
	case "summary":
		text, err := readCharData(dec, "summary")
		if err != nil {
			return err
		}
		pkg.Summary = text
	case "description":
		text, err := readCharData(dec, "description")
		if err != nil {
			return err
		}
		pkg.Description = text
	case "packager":
		text, err := readCharData(dec, "packager")
		if err != nil {
			return err
		}
		pkg.Packager = text
	case "url":
		text, err := readCharData(dec, "url")
		if err != nil {
			return err
		}
		pkg.URL = text
	case "time":
		file, err := parseAttrInt(se, "file")
		if err != nil {
			return err
		}
		build, err := parseAttrInt(se, "build")
		if err != nil {
			return err
		}
		pkg.Time = Time{File: file, Build: build}
		return skipToEnd(dec, "time")
	case "size":
		pkgSize, err := parseAttrInt(se, "package")
		if err != nil {
			return err
		}
		installed, err := parseAttrInt(se, "installed")
		if err != nil {
			return err
		}
		archive, err := parseAttrInt(se, "archive")
		if err != nil {
			return err
		}
		pkg.Size = Size{Package: pkgSize, Installed: installed, Archive: archive}
		return skipToEnd(dec, "size")
	case "location":
		href := attrValue(se, "href")
		if href == "" {
			return errMissingAttribute("href")
		}
		pkg.LocationHref = href
		return skipToEnd(dec, "location")
	case "format":
		return parseFormatSection(dec, pkg)
	default:
		return skipElement(dec)
	}
	return nil
}

func parseFormatSection(dec *xml.Decoder, pkg *Package) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return wrapXMLParse(io.ErrUnexpectedEOF)
		}
		if err != nil {
			return wrapXMLParse(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "license":
				text, err := readCharData(dec, "license")
				if err != nil {
					return err
				}
				pkg.RpmLicense = text
			case "vendor":
				text, err := readCharData(dec, "vendor")
				if err != nil {
					return err
				}
				pkg.RpmVendor = text
			case "group":
				text, err := readCharData(dec, "group")
				if err != nil {
					return err
				}
				pkg.RpmGroup = text
			case "buildhost":
				text, err := readCharData(dec, "buildhost")
				if err != nil {
					return err
				}
				pkg.RpmBuildhost = text
			case "sourcerpm":
				text, err := readCharData(dec, "sourcerpm")
				if err != nil {
					return err
				}
				pkg.RpmSourceRpm = text
			case "header-range":
				start, err := parseAttrInt(t, "start")
				if err != nil {
					return err
				}
				end, err := parseAttrInt(t, "end")
				if err != nil {
					return err
				}
				pkg.RpmHeaderRange = HeaderRange{Start: start, End: end}
				if err := skipToEnd(dec, "header-range"); err != nil {
					return err
				}
			case "provides":
				list, err := parseRequirementList(dec, "provides")
				if err != nil {
					return err
				}
				pkg.Provides = list
			case "requires":
				list, err := parseRequirementList(dec, "requires")
				if err != nil {
					return err
				}
				pkg.Requires = list
			case "conflicts":
				list, err := parseRequirementList(dec, "conflicts")
				if err != nil {
					return err
				}
				pkg.Conflicts = list
			case "obsoletes":
				list, err := parseRequirementList(dec, "obsoletes")
				if err != nil {
					return err
				}
				pkg.Obsoletes = list
			case "suggests":
				list, err := parseRequirementList(dec, "suggests")
				if err != nil {
					return err
				}
				pkg.Suggests = list
			case "enhances":
				list, err := parseRequirementList(dec, "enhances")
				if err != nil {
					return err
				}
				pkg.Enhances = list
			case "recommends":
				list, err := parseRequirementList(dec, "recommends")
				if err != nil {
					return err
				}
				pkg.Recommends = list
			case "supplements":
				list, err := parseRequirementList(dec, "supplements")
				if err != nil {
					return err
				}
				pkg.Supplements = list
			case "file":
				// Primary's file list is pruned on write; on read it is
				// merged the same as any other file entry so a
				// round-tripped repository keeps what the source emitted.
				text, err := readCharData(dec, "file")
				if err != nil {
					return err
				}
				pkg.Files = append(pkg.Files, PackageFile{Type: FileTypeFile, Path: text})
			default:
				if err := skipElement(dec); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "format" {
				return nil
			}
		}
	}
}

func parseRequirementList(dec *xml.Decoder, sectionLocal string) ([]Requirement, error) {
	var list []Requirement
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, wrapXMLParse(io.ErrUnexpectedEOF)
		}
		if err != nil {
			return nil, wrapXMLParse(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "entry" {
				if err := skipElement(dec); err != nil {
					return nil, err
				}
				continue
			}
			name := attrValue(t, "name")
			if name == "" {
				return nil, errMissingAttribute("name")
			}
			flags, err := ParseRequirementType(attrValue(t, "flags"))
			if err != nil {
				return nil, err
			}
			req := Requirement{
				Name:       name,
				Flags:      flags,
				Epoch:      attrValue(t, "epoch"),
				Version:    attrValue(t, "ver"),
				Release:    attrValue(t, "rel"),
				Preinstall: attrValue(t, "pre") == "1",
			}
			list = append(list, req)
			if err := skipToEnd(dec, "entry"); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if t.Name.Local == sectionLocal {
				return list, nil
			}
		}
	}
}

func countMismatchMsg(kind string, written, declared int) string {
	return kind + ".xml: wrote " + itoa(written) + " packages, header declared " + itoa(declared)
}
