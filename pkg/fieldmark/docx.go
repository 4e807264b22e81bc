package fieldmark

import (
	"archive/zip"
	"bytes"
	"io"
	"regexp"
)

// MainPartName is the path of the main document part inside the package.
const MainPartName = "word/document.xml"

// Archive size bounds.
const (
	minArchiveSize = 1000
	maxArchiveSize = 100 << 20
)

var mandatoryParts = []string{
	"[Content_Types].xml",
	"_rels/.rels",
	MainPartName,
}

var headerFooterRe = regexp.MustCompile(`^word/(?:header|footer)\d+\.xml$`)

// Package is an opened template container. Parts holds the decompressed
// content of every entry; order preserves the original entry order and
// methods each entry's compression method, so a repack round-trips
// untouched parts byte for byte.
type Package struct {
	order    []string
	parts    map[string][]byte
	methods  map[string]uint16
	replaced map[string][]byte
}

// OpenPackage validates and indexes a template container held in memory.
func OpenPackage(data []byte) (*Package, error) {
	if len(data) < minArchiveSize {
		return nil, NewArchiveError(ErrTooSmall, "", nil)
	}
	if len(data) > maxArchiveSize {
		return nil, NewArchiveError(ErrTooLarge, "", nil)
	}
	if len(data) < 4 || data[0] != 'P' || data[1] != 'K' || data[2] != 0x03 || data[3] != 0x04 {
		return nil, NewArchiveError(ErrInvalidContainer, "", nil)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, NewArchiveError(ErrInvalidContainer, "", err)
	}

	pkg := &Package{
		order:    make([]string, 0, len(zr.File)),
		parts:    make(map[string][]byte, len(zr.File)),
		methods:  make(map[string]uint16, len(zr.File)),
		replaced: make(map[string][]byte),
	}

	for _, file := range zr.File {
		rc, err := file.Open()
		if err != nil {
			return nil, NewArchiveError(ErrCorruptedPart, file.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, NewArchiveError(ErrCorruptedPart, file.Name, err)
		}
		if _, dup := pkg.parts[file.Name]; !dup {
			pkg.order = append(pkg.order, file.Name)
		}
		pkg.parts[file.Name] = content
		pkg.methods[file.Name] = file.Method
	}

	for _, name := range mandatoryParts {
		if _, ok := pkg.parts[name]; !ok {
			return nil, NewArchiveError(ErrMissingPart, name, nil)
		}
	}

	return pkg, nil
}

// ReadMain returns the main document part as a string.
func (p *Package) ReadMain() (string, error) {
	return p.ReadPart(MainPartName)
}

// ReadPart returns a named part as a string.
func (p *Package) ReadPart(name string) (string, error) {
	if content, ok := p.replaced[name]; ok {
		return string(content), nil
	}
	content, ok := p.parts[name]
	if !ok {
		return "", NewArchiveError(ErrMissingPart, name, nil)
	}
	return string(content), nil
}

// WriteMain replaces the main document part for the next Pack.
func (p *Package) WriteMain(content string) {
	p.WritePart(MainPartName, content)
}

// WritePart replaces a named part for the next Pack. Writing a part that
// did not exist in the source appends it after the original entries.
func (p *Package) WritePart(name, content string) {
	if _, ok := p.parts[name]; !ok {
		p.order = append(p.order, name)
		p.parts[name] = nil
	}
	p.replaced[name] = []byte(content)
}

// PartNames lists every part in original entry order.
func (p *Package) PartNames() []string {
	names := make([]string, len(p.order))
	copy(names, p.order)
	return names
}

// TextParts lists the parts carrying templated document text: the main
// part plus any header and footer parts, in entry order.
func (p *Package) TextParts() []string {
	var names []string
	for _, name := range p.order {
		if name == MainPartName || headerFooterRe.MatchString(name) {
			names = append(names, name)
		}
	}
	return names
}

// fork derives an independent view for one render: entry data is shared,
// replacements are private.
func (p *Package) fork() *Package {
	parts := make(map[string][]byte, len(p.parts))
	for name, content := range p.parts {
		parts[name] = content
	}
	return &Package{
		order:    append([]string(nil), p.order...),
		parts:    parts,
		methods:  p.methods,
		replaced: make(map[string][]byte),
	}
}

// Pack serializes the container. Replaced parts carry their new content;
// every other part is copied through unchanged. Each entry keeps the
// compression method it had in the source; parts added by WritePart are
// deflated.
func (p *Package) Pack() ([]byte, error) {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	for _, name := range p.order {
		content := p.parts[name]
		if replaced, ok := p.replaced[name]; ok {
			content = replaced
		}
		method, ok := p.methods[name]
		if !ok {
			method = zip.Deflate
		}
		fw, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: method})
		if err != nil {
			return nil, NewArchiveError(ErrCorruptedPart, name, err)
		}
		if _, err := fw.Write(content); err != nil {
			return nil, NewArchiveError(ErrCorruptedPart, name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, NewArchiveError(ErrInvalidContainer, "", err)
	}
	return buf.Bytes(), nil
}
