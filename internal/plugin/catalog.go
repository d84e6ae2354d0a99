// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package plugin

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// catalogFields is the number of quoted fields of an entry line.
const catalogFields = 5

// catalogLexer tokenizes one entry line. Fields may not contain commas,
// quotes or newlines.
var catalogLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"[^",\n]*"`},
	{Name: "At", Pattern: `@`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
})

// catalogEntry is the grammar of an entry line: @ "name" "dylib" "author" "version" "info".
type catalogEntry struct {
	Fields []string `parser:"'@' @String ( ','? @String )*"`
}

var catalogParser = participle.MustBuild[catalogEntry](
	participle.Lexer(catalogLexer),
	participle.Elide("Whitespace"),
	participle.Map(func(t lexer.Token) (lexer.Token, error) {
		t.Value = t.Value[1 : len(t.Value)-1]
		return t, nil
	}, "String"),
)

// Catalog is the list of selectable plugins read from a catalog file.
type Catalog struct {
	entries []Descriptor
	skipped int
}

// LoadCatalog reads and parses the catalog file at path.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path) //nolint:gosec // catalog path comes from configuration
	if err != nil {
		return nil, ErrCatalogNotFound(path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Debug("error closing catalog", "path", path, "error", closeErr)
		}
	}()

	c, err := ParseCatalog(f)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	if c.Len() == 0 {
		return nil, ErrCatalogEmpty(path, c.skipped)
	}
	return c, nil
}

// ParseCatalog parses catalog text. Lines not starting with '@' are ignored;
// '@' lines that do not hold exactly five quoted fields are skipped.
// The returned catalog may be empty; LoadCatalog turns that into an error.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	c := &Catalog{}
	br := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		raw, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, ErrOperationFailed("read catalog", err)
		}
		c.addLine(lineNo, raw)
		if err != nil {
			return c, nil
		}
	}
}

// addLine parses one raw line. Lines have no length limit.
func (c *Catalog) addLine(lineNo int, raw string) {
	line := strings.TrimSpace(raw)
	if !strings.HasPrefix(line, "@") {
		return
	}
	d, err := parseCatalogLine(line)
	if err != nil {
		c.skipped++
		slog.Warn("skipping malformed catalog entry",
			"line", lineNo,
			"error", err)
		return
	}
	c.entries = append(c.entries, d)
}

func parseCatalogLine(line string) (Descriptor, error) {
	entry, err := catalogParser.ParseString("", line)
	if err != nil {
		return Descriptor{}, err //nolint:wrapcheck // participle errors carry position info
	}
	if len(entry.Fields) != catalogFields {
		return Descriptor{}, fmt.Errorf("expected %d fields, got %d", catalogFields, len(entry.Fields))
	}
	f := entry.Fields
	return NewDescriptor(f[0], f[1], f[2], f[3], f[4]), nil
}

// Len returns the number of entries. Safe on nil.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Skipped returns how many '@' lines were rejected.
func (c *Catalog) Skipped() int {
	if c == nil {
		return 0
	}
	return c.skipped
}

// At returns entry i.
func (c *Catalog) At(i int) (Descriptor, bool) {
	if c == nil || i < 0 || i >= len(c.entries) {
		return Descriptor{}, false
	}
	return c.entries[i], true
}

// Entries returns a copy of the entries in file order.
func (c *Catalog) Entries() []Descriptor {
	if c == nil {
		return nil
	}
	out := make([]Descriptor, len(c.entries))
	copy(out, c.entries)
	return out
}

// Release drops the entries. Safe on nil and when called more than once.
func (c *Catalog) Release() {
	if c == nil {
		return
	}
	c.entries = nil
	c.skipped = 0
}

type catalogYAML struct {
	ID      int    `yaml:"id"`
	Name    string `yaml:"name"`
	Dylib   string `yaml:"dylib"`
	Author  string `yaml:"author"`
	Version string `yaml:"version"`
	Info    string `yaml:"info"`
}

// WriteYAML renders the catalog as a YAML list, ids in file order.
func (c *Catalog) WriteYAML(w io.Writer) error {
	out := make([]catalogYAML, 0, c.Len())
	for i, d := range c.Entries() {
		out = append(out, catalogYAML{
			ID:      i,
			Name:    d.Name(),
			Dylib:   d.Dylib(),
			Author:  d.Author(),
			Version: d.Version(),
			Info:    d.Info(),
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return oops.Wrapf(err, "encode catalog")
	}
	return oops.Wrap(enc.Close())
}
