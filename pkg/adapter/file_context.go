package adapter

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileContext describes the file handed to a FileReader.
type FileContext struct {
	// Path is the full path of the file.
	Path string

	// FileName is the base name of the file.
	FileName string

	// Content holds the raw file content.
	Content []byte
}

// NewFileContext reads the file at path.
func NewFileContext(path string) (FileContext, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return FileContext{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return FileContext{
		Path:     path,
		FileName: filepath.Base(path),
		Content:  content,
	}, nil
}

// Node is a generic XML element.
type Node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []Node     `xml:",any"`
}

// Attr returns the value of the named attribute.
func (n Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Document parses the content as an XML document.
func (fc FileContext) Document() (*Node, error) {
	if len(bytes.TrimSpace(fc.Content)) == 0 {
		return nil, errors.New("empty document")
	}
	var root Node
	dec := xml.NewDecoder(bytes.NewReader(fc.Content))
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fc.FileName, err)
	}
	// only comments, processing instructions and whitespace may follow the root
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", fc.FileName, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return nil, fmt.Errorf("failed to parse %s: unexpected element <%s> after root", fc.FileName, t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return nil, fmt.Errorf("failed to parse %s: unexpected text after root", fc.FileName)
			}
		}
	}
	return &root, nil
}
