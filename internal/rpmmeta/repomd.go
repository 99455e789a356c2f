package rpmmeta

import (
	"bufio"
	"encoding/xml"
	"io"
	"strconv"
	"time"
)

func currentUnixTimestamp() string {
	return strconv.FormatInt(time.Now().Unix(), 10)
}

const (
	xmlNSRepo = "http://linux.duke.edu/metadata/repo"
	xmlNSRpm  = "http://linux.duke.edu/metadata/rpm"
)

// DistroTag is one <distro cpeid="...">name</distro> entry in repomd.xml's
// <tags> block.
type DistroTag struct {
	Name  string
	CPEID string
}

// RepomdRecord describes one metadata file indexed by repomd.xml: its
// kind ("primary", "filelists", "other", ...), location, checksum of the
// on-disk (possibly compressed) bytes, and optionally the checksum/size of
// the decompressed contents and of the RPM database header.
type RepomdRecord struct {
	MetadataName    string
	LocationHref    string
	LocationBase    string
	Timestamp       int64
	Size            int64
	HasSize         bool
	Checksum        Checksum
	OpenSize        int64
	HasOpenSize     bool
	OpenChecksum    Checksum
	HasOpenChecksum bool
	HeaderSize      int64
	HasHeaderSize   bool
	HeaderChecksum  Checksum
	HasHeaderChecksum bool
	DatabaseVersion   int64
	HasDatabaseVersion bool
}

// NewRepomdRecord checks that the type, location_href and checksum digest
// are non-empty, returning ErrMissingField otherwise, before constructing.
// The timestamp is taken as given and not checked.
func NewRepomdRecord(metadataName, locationHref string, timestamp int64, checksum Checksum) (*RepomdRecord, error) {
	if metadataName == "" {
		return nil, errMissingField("type")
	}
	if locationHref == "" {
		return nil, errMissingField("location_href")
	}
	if checksum.Digest == "" {
		return nil, errMissingField("checksum")
	}
	return &RepomdRecord{
		MetadataName: metadataName,
		LocationHref: locationHref,
		Timestamp:    timestamp,
		Checksum:     checksum,
	}, nil
}

// RepomdData is the parsed/in-progress content of repomd.xml: revision,
// the set of metadata file records, and the free-form repo/content/distro
// tags.
type RepomdData struct {
	Revision     string
	HasRevision  bool
	MetadataFiles []*RepomdRecord
	RepoTags     []string
	ContentTags  []string
	DistroTags   []DistroTag
}

func (r *RepomdData) AddRecord(rec *RepomdRecord) {
	r.MetadataFiles = append(r.MetadataFiles, rec)
}

// GetRecord returns the record named rectype ("primary", "filelists", ...),
// or nil if absent.
func (r *RepomdData) GetRecord(rectype string) *RepomdRecord {
	for _, rec := range r.MetadataFiles {
		if rec.MetadataName == rectype {
			return rec
		}
	}
	return nil
}

func (r *RepomdData) AddRepoTag(tag string)    { r.RepoTags = append(r.RepoTags, tag) }
func (r *RepomdData) AddContentTag(tag string) { r.ContentTags = append(r.ContentTags, tag) }
func (r *RepomdData) AddDistroTag(name, cpeid string) {
	r.DistroTags = append(r.DistroTags, DistroTag{Name: name, CPEID: cpeid})
}

// ReadRepomdXML parses repomd.xml from r into a fresh RepomdData.
func ReadRepomdXML(r io.Reader) (*RepomdData, error) {
	data := &RepomdData{}
	dec := xml.NewDecoder(r)

	foundRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapXMLParse(err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "repomd":
			foundRoot = true
		case "revision":
			text, err := readCharData(dec, se.Name.Local)
			if err != nil {
				return nil, err
			}
			data.Revision, data.HasRevision = text, true
		case "data":
			rec, err := parseRepomdRecord(dec, se)
			if err != nil {
				return nil, err
			}
			data.AddRecord(rec)
		case "tags":
			if err := parseTags(dec, data); err != nil {
				return nil, err
			}
		}
	}

	if !foundRoot {
		return nil, errMissingHeader("repomd")
	}
	return data, nil
}

func parseTags(dec *xml.Decoder, data *RepomdData) error {
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
			case "repo":
				text, err := readCharData(dec, t.Name.Local)
				if err != nil {
					return err
				}
				data.AddRepoTag(text)
			case "content":
				text, err := readCharData(dec, t.Name.Local)
				if err != nil {
					return err
				}
				data.AddContentTag(text)
			case "distro":
				cpeid := attrValue(t, "cpeid")
				text, err := readCharData(dec, t.Name.Local)
				if err != nil {
					return err
				}
				data.AddDistroTag(text, cpeid)
			default:
				if err := skipElement(dec); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tags" {
				return nil
			}
		}
	}
}

func parseRepomdRecord(dec *xml.Decoder, open xml.StartElement) (*RepomdRecord, error) {
	recordType := attrValue(open, "type")
	if recordType == "" {
		return nil, errMissingAttribute("type")
	}

	rec := &RepomdRecord{MetadataName: recordType}
	haveLocation, haveTimestamp, haveChecksum := false, false, false

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
			case "checksum", "open-checksum", "header-checksum":
				algoName := attrValue(t, "type")
				if algoName == "" {
					return nil, errMissingAttribute("type")
				}
				text, err := readCharData(dec, t.Name.Local)
				if err != nil {
					return nil, err
				}
				algo, err := ParseChecksumType(algoName)
				if err != nil {
					return nil, err
				}
				cs, err := NewChecksum(algo, text)
				if err != nil {
					return nil, err
				}
				switch t.Name.Local {
				case "checksum":
					rec.Checksum = cs
					haveChecksum = true
				case "open-checksum":
					rec.OpenChecksum, rec.HasOpenChecksum = cs, true
				case "header-checksum":
					rec.HeaderChecksum, rec.HasHeaderChecksum = cs, true
				}
			case "location":
				href := attrValue(t, "href")
				if href == "" {
					return nil, errMissingAttribute("href")
				}
				rec.LocationHref = href
				haveLocation = true
				if err := skipToEnd(dec, t.Name.Local); err != nil {
					return nil, err
				}
			case "timestamp":
				text, err := readCharData(dec, t.Name.Local)
				if err != nil {
					return nil, err
				}
				v, err := strconv.ParseInt(text, 10, 64)
				if err != nil {
					return nil, wrapIntParse("timestamp", err)
				}
				rec.Timestamp = v
				haveTimestamp = true
			case "size":
				v, err := readCharDataInt(dec, t.Name.Local)
				if err != nil {
					return nil, err
				}
				rec.Size, rec.HasSize = v, true
			case "open-size":
				v, err := readCharDataInt(dec, t.Name.Local)
				if err != nil {
					return nil, err
				}
				rec.OpenSize, rec.HasOpenSize = v, true
			case "header-size":
				v, err := readCharDataInt(dec, t.Name.Local)
				if err != nil {
					return nil, err
				}
				rec.HeaderSize, rec.HasHeaderSize = v, true
			case "database_version":
				v, err := readCharDataInt(dec, t.Name.Local)
				if err != nil {
					return nil, err
				}
				rec.DatabaseVersion, rec.HasDatabaseVersion = v, true
			default:
				if err := skipElement(dec); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "data" {
				if !haveLocation {
					return nil, errMissingField("location_href")
				}
				if !haveTimestamp {
					return nil, errMissingField("timestamp")
				}
				if !haveChecksum {
					return nil, errMissingField("checksum")
				}
				return rec, nil
			}
		}
	}
}

// WriteRepomdXML writes repomd.xml for data to w, uncompressed, per spec
// §4.1's tag ordering: content tags, then repo tags, then distro tags
// (not alphabetical), followed by one <data> per record in insertion
// order.
func WriteRepomdXML(w io.Writer, data *RepomdData) error {
	bw := bufio.NewWriter(w)
	x := newXMLWriter(bw)

	x.writeDecl()
	x.writeStart("repomd", a("xmlns", xmlNSRepo), a("xmlns:rpm", xmlNSRpm))

	revision := data.Revision
	if !data.HasRevision {
		revision = currentUnixTimestamp()
	}
	x.writeElemText("revision", revision)

	writeTags(x, data)

	for _, rec := range data.MetadataFiles {
		writeRepomdRecord(x, rec)
	}

	x.writeEnd("repomd")
	x.newline()

	if x.err != nil {
		return wrapIO(x.err)
	}
	return wrapIO(bw.Flush())
}

func writeTags(x *xmlw, data *RepomdData) {
	if len(data.ContentTags) == 0 && len(data.RepoTags) == 0 && len(data.DistroTags) == 0 {
		return
	}
	x.writeStart("tags")
	for _, tag := range data.ContentTags {
		x.writeElemText("content", tag)
	}
	for _, tag := range data.RepoTags {
		x.writeElemText("repo", tag)
	}
	for _, tag := range data.DistroTags {
		if tag.CPEID != "" {
			x.writeElemText("distro", tag.Name, a("cpeid", tag.CPEID))
		} else {
			x.writeElemText("distro", tag.Name)
		}
	}
	x.writeEnd("tags")
}

func writeRepomdRecord(x *xmlw, rec *RepomdRecord) {
	x.writeStart("data", a("type", rec.MetadataName))

	x.writeElemText("checksum", rec.Checksum.Digest, a("type", rec.Checksum.Type.String()))
	if rec.HasOpenChecksum {
		x.writeElemText("open-checksum", rec.OpenChecksum.Digest, a("type", rec.OpenChecksum.Type.String()))
	}
	if rec.HasHeaderChecksum {
		x.writeElemText("header-checksum", rec.HeaderChecksum.Digest, a("type", rec.HeaderChecksum.Type.String()))
	}

	x.writeEmpty("location", a("href", rec.LocationHref))
	x.writeElemInt("timestamp", rec.Timestamp)

	if rec.HasSize {
		x.writeElemInt("size", rec.Size)
	}
	if rec.HasOpenSize {
		x.writeElemInt("open-size", rec.OpenSize)
	}
	if rec.HasHeaderSize {
		x.writeElemInt("header-size", rec.HeaderSize)
	}
	if rec.HasDatabaseVersion {
		x.writeElemInt("database_version", rec.DatabaseVersion)
	}

	x.writeEnd("data")
}
