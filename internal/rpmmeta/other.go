package rpmmeta

import (
	"bufio"
	"encoding/xml"
	"io"
)

const xmlNSOther = "http://linux.duke.edu/metadata/other"

// OtherXMLWriter streams other.xml: one <package> per entry carrying only
// its changelog list (spec §4.4), in the same header/package/finish shape
// as PrimaryXMLWriter and FilelistsXMLWriter.
type OtherXMLWriter struct {
	x           *xmlw
	bw          *bufio.Writer
	numPackages int
	written     int
}

func NewOtherXMLWriter(w io.Writer) *OtherXMLWriter {
	bw := bufio.NewWriter(w)
	return &OtherXMLWriter{x: newXMLWriter(bw), bw: bw}
}

func (ow *OtherXMLWriter) WriteHeader(numPackages int) error {
	ow.numPackages = numPackages
	ow.x.writeDecl()
	ow.x.writeStart("otherdata", a("xmlns", xmlNSOther), a("packages", itoa(numPackages)))
	return ow.x.err
}

func (ow *OtherXMLWriter) WritePackage(pkg *Package) error {
	writeOtherPackage(ow.x, pkg)
	ow.written++
	return ow.x.err
}

func (ow *OtherXMLWriter) Finish() error {
	if ow.written != ow.numPackages {
		panic(&Error{
			Type:  ErrInconsistentMetadata,
			Field: "other.xml",
			Err:   errInconsistentMetadata(countMismatchMsg("other", ow.written, ow.numPackages)),
		})
	}
	ow.x.writeEnd("otherdata")
	ow.x.newline()
	if ow.x.err != nil {
		return wrapIO(ow.x.err)
	}
	return wrapIO(ow.bw.Flush())
}

func writeOtherPackage(x *xmlw, pkg *Package) {
	x.writeStart("package",
		a("pkgid", pkg.Pkgid()),
		a("name", pkg.Name),
		a("arch", pkg.Arch),
	)

	epoch, version, release := pkg.EVR.Values()
	x.writeEmpty("version", a("epoch", epoch), a("ver", version), a("rel", release))

	for _, cl := range pkg.Changelogs {
		x.writeElemTextPartial("changelog", cl.Description,
			a("author", cl.Author),
			a("date", itoa64(cl.Date)),
		)
	}

	x.writeEnd("package")
}

// ReadOtherXML parses other.xml from r, merging each <package> entry's
// changelog list into repo by pkgid.
func ReadOtherXML(r io.Reader, repo *Repository) error {
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
		case "otherdata":
			foundRoot = true
		case "package":
			if err := parseOtherPackage(dec, se, repo); err != nil {
				return err
			}
		}
	}

	if !foundRoot {
		return errMissingHeader("otherdata")
	}
	return nil
}

func parseOtherPackage(dec *xml.Decoder, open xml.StartElement, repo *Repository) error {
	pkgid := attrValue(open, "pkgid")
	if pkgid == "" {
		return errMissingAttribute("pkgid")
	}
	name := attrValue(open, "name")
	if name == "" {
		return errMissingAttribute("name")
	}
	arch := attrValue(open, "arch")
	if arch == "" {
		return errMissingAttribute("arch")
	}

	var changelogs []Changelog

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
			case "version":
				// other.xml's per-package EVR is redundant with primary.xml's;
				// skip it, the merge keeps primary.xml's as authoritative.
				if err := skipToEnd(dec, "version"); err != nil {
					return err
				}
			case "changelog":
				author := attrValue(t, "author")
				date, err := parseAttrInt(t, "date")
				if err != nil {
					return err
				}
				text, err := readCharData(dec, "changelog")
				if err != nil {
					return err
				}
				changelogs = append(changelogs, Changelog{
					Author:      author,
					Date:        date,
					Description: text,
				})
			default:
				if err := skipElement(dec); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "package" {
				mergeOtherPackage(repo, pkgid, name, arch, changelogs)
				return nil
			}
		}
	}
}
