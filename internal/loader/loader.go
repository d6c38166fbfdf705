// Package loader parses the exported Gallery2 tables into lookup tables.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/rcliao/gallerycaptions/internal/model"
)

// Column positions of the g2_Item, g2_ChildEntity and g2_FileSystemEntity exports.
const (
	itemID          = 0
	itemDescription = 2
	itemSummary     = 5
	itemTitle       = 6

	childID     = 0
	childParent = 1

	fsID   = 0
	fsPath = 1
)

// Paths names the three exported tables of one gallery.
type Paths struct {
	Items      string
	Children   string
	Filesystem string
}

// LoadTables opens and parses all three tables.
func LoadTables(p Paths) (*model.Tables, error) {
	t := &model.Tables{}
	var err error

	if t.Items, err = loadFile(p.Items, LoadItems); err != nil {
		return nil, err
	}
	if t.Children, err = loadFile(p.Children, LoadChildren); err != nil {
		return nil, err
	}
	if t.Filesystem, err = loadFile(p.Filesystem, LoadFilesystem); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"items":      len(t.Items),
		"children":   len(t.Children),
		"filesystem": len(t.Filesystem),
	}).Debug("loaded tables")
	return t, nil
}

func loadFile[T any](path string, load func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	v, err := load(f)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.File = path
			return zero, pe
		}
		return zero, fmt.Errorf("read %s: %w", path, err)
	}
	return v, nil
}

// LoadItems reads g2_Item rows keyed by item id.
func LoadItems(r io.Reader) (map[string]model.Item, error) {
	items := make(map[string]model.Item)
	err := eachRow(r, itemTitle+1, func(row []string) {
		items[row[itemID]] = model.Item{
			ID:          row[itemID],
			Description: row[itemDescription],
			Summary:     row[itemSummary],
			Title:       row[itemTitle],
		}
	})
	return items, err
}

// LoadChildren reads g2_ChildEntity rows as an id -> parent id map.
func LoadChildren(r io.Reader) (map[string]string, error) {
	parents := make(map[string]string)
	err := eachRow(r, childParent+1, func(row []string) {
		parents[row[childID]] = row[childParent]
	})
	return parents, err
}

// LoadFilesystem reads g2_FileSystemEntity rows as an id -> path component map.
func LoadFilesystem(r io.Reader) (map[string]string, error) {
	components := make(map[string]string)
	err := eachRow(r, fsPath+1, func(row []string) {
		components[row[fsID]] = row[fsPath]
	})
	return components, err
}

// eachRow calls fn for every record. All records must have the same number of
// fields as the first one, and at least minColumns.
func eachRow(r io.Reader, minColumns int, fn func([]string)) error {
	rd := NewReader(r)
	width := -1
	for {
		row, err := rd.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if width < 0 {
			width = len(row)
		}
		if len(row) != width {
			return &ParseError{
				Line: rd.RecordLine(),
				Err:  fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(row), width),
			}
		}
		if len(row) < minColumns {
			return &ParseError{
				Line: rd.RecordLine(),
				Err:  fmt.Errorf("%w: got %d, want at least %d", ErrTooFewColumns, len(row), minColumns),
			}
		}
		fn(row)
	}
}
