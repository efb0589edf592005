// Package docs renders the markdown documentation pages served under /doc.
package docs

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrNotFound is returned for names that don't map to a markdown file
var ErrNotFound = errors.New("doc not found")

// Doc is one rendered documentation page
type Doc struct {
	Name  string // lowercase file stem
	Title string
	HTML  template.HTML
}

// Library serves <dir>/<name>.md files. File reads are serialized.
type Library struct {
	dir string
	mux sync.Mutex
	md  goldmark.Markdown
}

// NewLibrary creates a library over dir
func NewLibrary(dir string) *Library {
	return &Library{
		dir: dir,
		md:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Title capitalizes the first letter of a lowercased doc name
func Title(name string) string {
	name = strings.ToLower(name)
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return cases.Upper(language.Und).String(string(r)) + name[size:]
}

// cleanName lowercases name and rejects anything that isn't a plain file stem
func cleanName(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return name, true
}

// Render reads and converts the markdown file for name
func (l *Library) Render(name string) (*Doc, error) {
	stem, ok := cleanName(name)
	if !ok {
		return nil, ErrNotFound
	}

	l.mux.Lock()
	src, err := os.ReadFile(filepath.Join(l.dir, stem+".md"))
	l.mux.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read doc %s: %w", stem, err)
	}

	var buf bytes.Buffer
	if err := l.md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render doc %s: %w", stem, err)
	}
	return &Doc{Name: stem, Title: Title(stem), HTML: template.HTML(buf.String())}, nil
}

// List returns the available docs sorted by name, without their HTML
func (l *Library) List() ([]Doc, error) {
	l.mux.Lock()
	entries, err := os.ReadDir(l.dir)
	l.mux.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list docs: %w", err)
	}

	var docs []Doc
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		stem := strings.ToLower(strings.TrimSuffix(e.Name(), ".md"))
		docs = append(docs, Doc{Name: stem, Title: Title(stem)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}
