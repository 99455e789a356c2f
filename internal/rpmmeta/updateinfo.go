package rpmmeta

import (
	"bufio"
	"encoding/xml"
	"io"
)

// UpdateRecord is one <update> entry in updateinfo.xml: an advisory
// (security erratum, bugfix, enhancement) and the packages it ships.
type UpdateRecord struct {
	From        string
	UpdateType  string
	Status      string
	Version     string
	ID          string
	Title       string
	IssuedDate  string
	HasIssued   bool
	UpdatedDate string
	HasUpdated  bool
	Rights      string
	Release     string
	Severity    string
	Summary     string
	Description string
	Solution    string

	References []UpdateReference
	Pkglist    []UpdateCollection
}

// UpdateReference is one <reference> pointing at a bug/CVE/advisory tracker entry.
type UpdateReference struct {
	Href    string
	ID      string
	Title   string
	RefType string
}

// UpdateCollection is one <collection> naming a target release and the
// packages an advisory ships for it.
type UpdateCollection struct {
	Name      string
	ShortName string
	Packages  []UpdateCollectionPackage
	Module    *UpdateCollectionModule
}

// UpdateCollectionPackage is one <package> entry within a pkglist collection.
type UpdateCollectionPackage struct {
	Epoch            string
	Filename         string
	Name             string
	RebootSuggested  bool
	RestartSuggested bool
	ReloginSuggested bool
	Release          string
	Src              string
	Arch             string
	Checksum         *Checksum
	Version          string
}

// UpdateCollectionModule is the optional modularity descriptor of a collection.
type UpdateCollectionModule struct {
	Name    string
	Stream  string
	Version uint64
	Context string
	Arch    string
}

// UpdateinfoXMLWriter streams updateinfo.xml: a flat sequence of <update>
// records, unlike primary/filelists/other's upfront package count (spec §4.5
// — updateinfo.xml carries no header attribute to validate against).
type UpdateinfoXMLWriter struct {
	x  *xmlw
	bw *bufio.Writer
}

func NewUpdateinfoXMLWriter(w io.Writer) *UpdateinfoXMLWriter {
	bw := bufio.NewWriter(w)
	return &UpdateinfoXMLWriter{x: newXMLWriter(bw), bw: bw}
}

func (uw *UpdateinfoXMLWriter) WriteHeader() error {
	uw.x.writeDecl()
	uw.x.writeStart("updates")
	return uw.x.err
}

func (uw *UpdateinfoXMLWriter) WriteUpdate(rec *UpdateRecord) error {
	writeUpdateRecord(uw.x, rec)
	return uw.x.err
}

func (uw *UpdateinfoXMLWriter) Finish() error {
	uw.x.writeEnd("updates")
	uw.x.newline()
	if uw.x.err != nil {
		return wrapIO(uw.x.err)
	}
	return wrapIO(uw.bw.Flush())
}

func writeUpdateRecord(x *xmlw, rec *UpdateRecord) {
	x.writeStart("update",
		a("status", rec.Status),
		a("from", rec.From),
		a("type", rec.UpdateType),
		a("version", rec.Version),
	)

	x.writeElemText("id", rec.ID)
	x.writeElemText("title", rec.Title)
	if rec.HasIssued {
		x.writeEmpty("issued", a("date", rec.IssuedDate))
	}
	if rec.HasUpdated {
		x.writeEmpty("updated", a("date", rec.UpdatedDate))
	}
	x.writeElemText("rights", rec.Rights)
	x.writeElemText("release", rec.Release)
	x.writeElemText("severity", rec.Severity)
	x.writeElemText("summary", rec.Summary)
	x.writeElemText("description", rec.Description)
	x.writeElemText("solution", rec.Solution)

	if len(rec.References) > 0 {
		x.writeStart("references")
		for _, ref := range rec.References {
			x.writeEmpty("reference",
				a("href", ref.Href),
				a("id", ref.ID),
				a("type", ref.RefType),
				a("title", ref.Title),
			)
		}
		x.writeEnd("references")
	} else {
		x.writeEmpty("references")
	}

	if len(rec.Pkglist) > 0 {
		x.writeStart("pkglist")
		for _, coll := range rec.Pkglist {
			writeUpdateCollection(x, coll)
		}
		x.writeEnd("pkglist")
	} else {
		x.writeEmpty("pkglist")
	}

	x.writeEnd("update")
}

func writeUpdateCollection(x *xmlw, coll UpdateCollection) {
	x.writeStart("collection", a("short", coll.ShortName))
	x.writeElemText("name", coll.Name)

	if coll.Module != nil {
		m := coll.Module
		x.writeEmpty("module",
			a("name", m.Name),
			a("stream", m.Stream),
			a("version", itoa64(int64(m.Version))),
			a("context", m.Context),
			a("arch", m.Arch),
		)
	}

	for _, pkg := range coll.Packages {
		x.writeStart("package",
			a("name", pkg.Name),
			a("version", pkg.Version),
			a("release", pkg.Release),
			a("epoch", pkg.Epoch),
			a("arch", pkg.Arch),
			a("src", pkg.Src),
		)
		x.writeElemText("filename", pkg.Filename)
		if pkg.Checksum != nil {
			x.writeElemText("sum", pkg.Checksum.Digest, a("type", pkg.Checksum.Type.String()))
		}
		if pkg.RebootSuggested {
			x.writeElemText("reboot_suggested", "1")
		}
		if pkg.RestartSuggested {
			x.writeElemText("restart_suggested", "1")
		}
		if pkg.ReloginSuggested {
			x.writeElemText("relogin_suggested", "1")
		}
		x.writeEnd("package")
	}

	x.writeEnd("collection")
}

// ReadUpdateinfoXML parses updateinfo.xml from r, inserting each <update>
// record into repo.Advisories keyed by its id. Unlike the reference reader
// this one fully resolves pkglist/collection/module/package, rather than
// leaving them unimplemented.
func ReadUpdateinfoXML(r io.Reader, repo *Repository) error {
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
		case "updates":
			foundRoot = true
		case "update":
			rec, err := parseUpdateRecord(dec, se)
			if err != nil {
				return err
			}
			repo.Advisories.Set(rec.ID, rec)
		}
	}

	if !foundRoot {
		return errMissingHeader("updates")
	}
	return nil
}

func parseUpdateRecord(dec *xml.Decoder, open xml.StartElement) (*UpdateRecord, error) {
	rec := &UpdateRecord{
		Status:     attrValue(open, "status"),
		From:       attrValue(open, "from"),
		UpdateType: attrValue(open, "type"),
		Version:    attrValue(open, "version"),
	}

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
			switch t.Name.Local {
			case "id":
				rec.ID, err = readCharData(dec, "id")
			case "title":
				rec.Title, err = readCharData(dec, "title")
			case "issued":
				rec.IssuedDate = attrValue(t, "date")
				rec.HasIssued = true
				err = skipToEnd(dec, "issued")
			case "updated":
				rec.UpdatedDate = attrValue(t, "date")
				rec.HasUpdated = true
				err = skipToEnd(dec, "updated")
			case "rights":
				rec.Rights, err = readCharData(dec, "rights")
			case "release":
				rec.Release, err = readCharData(dec, "release")
			case "severity":
				rec.Severity, err = readCharData(dec, "severity")
			case "summary":
				rec.Summary, err = readCharData(dec, "summary")
			case "description":
				rec.Description, err = readCharData(dec, "description")
			case "solution":
				rec.Solution, err = readCharData(dec, "solution")
			case "references":
				rec.References, err = parseReferences(dec)
			case "pkglist":
				rec.Pkglist, err = parsePkglist(dec)
			default:
				err = skipElement(dec)
			}
			if err != nil {
				return nil, err
			}
		case xml.EndElement:
			if t.Name.Local == "update" {
				return rec, nil
			}
		}
	}
}

func parseReferences(dec *xml.Decoder) ([]UpdateReference, error) {
	var refs []UpdateReference
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
			if t.Name.Local == "reference" {
				refs = append(refs, UpdateReference{
					Href:    attrValue(t, "href"),
					ID:      attrValue(t, "id"),
					RefType: attrValue(t, "type"),
					Title:   attrValue(t, "title"),
				})
				if err := skipToEnd(dec, "reference"); err != nil {
					return nil, err
				}
			} else if err := skipElement(dec); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if t.Name.Local == "references" {
				return refs, nil
			}
		}
	}
}

func parsePkglist(dec *xml.Decoder) ([]UpdateCollection, error) {
	var collections []UpdateCollection
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
			if t.Name.Local == "collection" {
				coll, err := parseCollection(dec, t)
				if err != nil {
					return nil, err
				}
				collections = append(collections, coll)
			} else if err := skipElement(dec); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if t.Name.Local == "pkglist" {
				return collections, nil
			}
		}
	}
}

func parseCollection(dec *xml.Decoder, open xml.StartElement) (UpdateCollection, error) {
	coll := UpdateCollection{ShortName: attrValue(open, "short")}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return coll, wrapXMLParse(io.ErrUnexpectedEOF)
		}
		if err != nil {
			return coll, wrapXMLParse(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "name":
				coll.Name, err = readCharData(dec, "name")
				if err != nil {
					return coll, err
				}
			case "module":
				version, _ := parseAttrInt(t, "version")
				coll.Module = &UpdateCollectionModule{
					Name:    attrValue(t, "name"),
					Stream:  attrValue(t, "stream"),
					Version: uint64(version),
					Context: attrValue(t, "context"),
					Arch:    attrValue(t, "arch"),
				}
				if err := skipToEnd(dec, "module"); err != nil {
					return coll, err
				}
			case "package":
				pkg, err := parseCollectionPackage(dec, t)
				if err != nil {
					return coll, err
				}
				coll.Packages = append(coll.Packages, pkg)
			default:
				if err := skipElement(dec); err != nil {
					return coll, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "collection" {
				return coll, nil
			}
		}
	}
}

func parseCollectionPackage(dec *xml.Decoder, open xml.StartElement) (UpdateCollectionPackage, error) {
	pkg := UpdateCollectionPackage{
		Name:    attrValue(open, "name"),
		Version: attrValue(open, "version"),
		Release: attrValue(open, "release"),
		Epoch:   attrValue(open, "epoch"),
		Arch:    attrValue(open, "arch"),
		Src:     attrValue(open, "src"),
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return pkg, wrapXMLParse(io.ErrUnexpectedEOF)
		}
		if err != nil {
			return pkg, wrapXMLParse(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "filename":
				pkg.Filename, err = readCharData(dec, "filename")
				if err != nil {
					return pkg, err
				}
			case "sum":
				ctype, err := ParseChecksumType(attrValue(t, "type"))
				if err != nil {
					return pkg, err
				}
				digest, err := readCharData(dec, "sum")
				if err != nil {
					return pkg, err
				}
				pkg.Checksum = &Checksum{Type: ctype, Digest: digest}
			case "reboot_suggested":
				text, err := readCharData(dec, "reboot_suggested")
				if err != nil {
					return pkg, err
				}
				pkg.RebootSuggested = text == "1"
			case "restart_suggested":
				text, err := readCharData(dec, "restart_suggested")
				if err != nil {
					return pkg, err
				}
				pkg.RestartSuggested = text == "1"
			case "relogin_suggested":
				text, err := readCharData(dec, "relogin_suggested")
				if err != nil {
					return pkg, err
				}
				pkg.ReloginSuggested = text == "1"
			default:
				if err := skipElement(dec); err != nil {
					return pkg, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "package" {
				return pkg, nil
			}
		}
	}
}
