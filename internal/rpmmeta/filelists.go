package rpmmeta

import (
	"bufio"
	"encoding/xml"
	"io"
)

const xmlNSFilelists = "http://linux.duke.edu/metadata/filelists"

// FilelistsXMLWriter streams filelists.xml the same way PrimaryXMLWriter
// streams primary.xml (spec §4.3/§5), except that it writes every file of
// each package, whereas primary.xml's list is pruned by primaryFileFilter.
type FilelistsXMLWriter struct {
	x           *xmlw
	bw          *bufio.Writer
	numPackages int
	written     int
}

func NewFilelistsXMLWriter(w io.Writer) *FilelistsXMLWriter {
	bw := bufio.NewWriter(w)
	return &FilelistsXMLWriter{x: newXMLWriter(bw), bw: bw}
}

func (fw *FilelistsXMLWriter) WriteHeader(numPackages int) error {
	fw.numPackages = numPackages
	fw.x.writeDecl()
	fw.x.writeStart("filelists", a("xmlns", xmlNSFilelists), a("packages", itoa(numPackages)))
	return fw.x.err
}

func (fw *FilelistsXMLWriter) WritePackage(pkg *Package) error {
	writeFilelistsPackage(fw.x, pkg)
	fw.written++
	return fw.x.err
}

func (fw *FilelistsXMLWriter) Finish() error {
	if fw.written != fw.numPackages {
		panic(&Error{
			Type:  ErrInconsistentMetadata,
			Field: "filelists.xml",
			Err:   errInconsistentMetadata(countMismatchMsg("filelists", fw.written, fw.numPackages)),
		})
	}
	fw.x.writeEnd("filelists")
	fw.x.newline()
	if fw.x.err != nil {
		return wrapIO(fw.x.err)
	}
	return wrapIO(fw.bw.Flush())
}

func writeFilelistsPackage(x *xmlw, pkg *Package) {
	x.writeStart("package",
		a("pkgid", pkg.Pkgid()),
		a("name", pkg.Name),
		a("arch", pkg.Arch),
	)

	epoch, version, release := pkg.EVR.Values()
	x.writeEmpty("version", a("epoch", epoch), a("ver", version), a("rel", release))

	for _, f := range pkg.Files {
		if f.Type == FileTypeFile {
			x.writeElemText("file", f.Path)
		} else {
			x.writeElemText("file", f.Path, a("type", f.Type.String()))
		}
	}

	x.writeEnd("package")
}

// ReadFilelistsXML parses filelists.xml from r, merging each <package>
// entry into repo by pkgid.
func ReadFilelistsXML(r io.Reader, repo *Repository) error {
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
		case "filelists":
			foundRoot = true
		case "package":
			if err := parseFilelistsPackage(dec, se, repo); err != nil {
				return err
			}
		}
	}

	if !foundRoot {
		return errMissingHeader("filelists")
	}
	return nil
}

func parseFilelistsPackage(dec *xml.Decoder, open xml.StartElement, repo *Repository) error {
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

	var evr EVR
	var files []PackageFile

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
				epoch := attrValue(t, "epoch")
				if epoch == "" {
					return errMissingAttribute("epoch")
				}
				ver := attrValue(t, "ver")
				if ver == "" {
					return errMissingAttribute("ver")
				}
				rel := attrValue(t, "rel")
				if rel == "" {
					return errMissingAttribute("rel")
				}
				evr = NewEVR(epoch, ver, rel)
				if err := skipToEnd(dec, "version"); err != nil {
					return err
				}
			case "file":
				ft := ParseFileType(attrValue(t, "type"))
				text, err := readCharData(dec, "file")
				if err != nil {
					return err
				}
				files = append(files, PackageFile{Type: ft, Path: text})
			default:
				if err := skipElement(dec); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "package" {
				mergeFilelistsPackage(repo, pkgid, name, arch, evr, files)
				return nil
			}
		}
	}
}
