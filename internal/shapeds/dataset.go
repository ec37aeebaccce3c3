// Package shapeds opens a municipal GIS delivery — a directory (or ZIP) of
// ESRI shapefile layers — and exposes it as named attribute+geometry tables.
// Attribute-only layers ship as standalone .dbf files, the form MassGIS uses
// for the assessment table.
package shapeds

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/baystate-gis/parcel-audit/internal/crs"
)

// Record is one layer row: its attributes and, for geometry layers, its
// shape in the layer's native CRS.
type Record struct {
	Attrs map[string]string
	Geom  geom.T
}

// Layer is a fully loaded dataset layer.
type Layer struct {
	Name    string
	CRS     crs.CRS
	Fields  []string
	Records []Record
}

// Attr returns a record attribute by case-insensitive field name.
func (r Record) Attr(name string) string {
	if v, ok := r.Attrs[name]; ok {
		return v
	}
	for k, v := range r.Attrs {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Dataset is an opened delivery directory. Layer names are file stems;
// a stem with a .shp is a geometry layer, a bare .dbf an attribute table.
type Dataset struct {
	dir    string
	shps   map[string]string // layer name -> .shp path
	tables map[string]string // layer name -> standalone .dbf path
}

// Open scans a directory (recursively) for shapefile layers.
func Open(dir string) (*Dataset, error) {
	ds := &Dataset{dir: dir, shps: map[string]string{}, tables: map[string]string{}}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		stem := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".shp":
			ds.shps[stem] = path
		case ".dbf":
			ds.tables[stem] = path
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "shapeds: scan %s", dir)
	}

	// A .dbf paired with a .shp is that layer's attribute file, not a
	// separate table.
	for name := range ds.shps {
		delete(ds.tables, name)
	}

	if len(ds.shps) == 0 && len(ds.tables) == 0 {
		return nil, eris.Errorf("shapeds: no shapefile layers found in %s", dir)
	}

	return ds, nil
}

// OpenZip extracts a zipped delivery into destDir and opens it.
func OpenZip(zipPath, destDir string) (*Dataset, error) {
	if _, err := ExtractZIP(zipPath, destDir); err != nil {
		return nil, err
	}
	return Open(destDir)
}

// Layers returns all layer names, sorted.
func (ds *Dataset) Layers() []string {
	names := make([]string, 0, len(ds.shps)+len(ds.tables))
	for n := range ds.shps {
		names = append(names, n)
	}
	for n := range ds.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Layer loads a named layer in full.
func (ds *Dataset) Layer(name string) (*Layer, error) {
	if path, ok := ds.shps[name]; ok {
		return readShapefile(name, path)
	}
	if path, ok := ds.tables[name]; ok {
		return readTable(name, path)
	}
	return nil, eris.Errorf("shapeds: no layer %q", name)
}

// readShapefile loads a geometry layer and its attributes.
func readShapefile(name, path string) (*Layer, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "shapeds: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	layer := &Layer{
		Name:   name,
		CRS:    crs.ParseFile(strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"),
		Fields: names,
	}

	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		attrs := make(map[string]string, len(names))
		for i, fname := range names {
			attrs[fname] = strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
		}

		g, convErr := shapeToGeom(shape)
		if convErr != nil {
			skipped++
			continue
		}

		layer.Records = append(layer.Records, Record{Attrs: attrs, Geom: g})
	}

	if skipped > 0 {
		zap.L().Debug("shapeds: skipped malformed shapes",
			zap.String("layer", name),
			zap.Int("skipped", skipped),
		)
	}

	return layer, nil
}

// readTable loads a standalone .dbf attribute table. Records carry no
// geometry.
func readTable(name, path string) (*Layer, error) {
	fields, rows, err := readDBF(path)
	if err != nil {
		return nil, eris.Wrapf(err, "shapeds: read table %s", path)
	}

	layer := &Layer{
		Name:   name,
		CRS:    crs.Unknown,
		Fields: fields,
	}
	for _, row := range rows {
		attrs := make(map[string]string, len(fields))
		for i, fname := range fields {
			if i < len(row) {
				attrs[fname] = row[i]
			}
		}
		layer.Records = append(layer.Records, Record{Attrs: attrs})
	}

	return layer, nil
}
