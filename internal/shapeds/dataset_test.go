package shapeds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baystate-gis/parcel-audit/internal/crs"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
}

func TestOpenClassifiesLayers(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "M001TaxPar.shp")
	touch(t, dir, "M001TaxPar.shx")
	touch(t, dir, "M001TaxPar.dbf") // paired, not a standalone table
	touch(t, dir, "M001TaxPar.prj")
	touch(t, dir, "M001Assess.dbf")
	touch(t, dir, "README.txt")

	ds, err := Open(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"M001Assess", "M001TaxPar"}, ds.Layers())
}

func TestOpenRecursesIntoSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "L3_SHP_M035_BOSTON")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	touch(t, sub, "M035Assess.dbf")

	ds, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"M035Assess"}, ds.Layers())
}

func TestOpenEmptyDirectory(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.Error(t, err)
}

func TestLayerUnknownName(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "M001Assess.dbf")

	ds, err := Open(dir)
	require.NoError(t, err)

	_, err = ds.Layer("M001TaxPar")
	assert.Error(t, err)
}

func TestLayerReadsStandaloneTable(t *testing.T) {
	dir := t.TempDir()
	writeDBF(t, dir, "M001Assess.dbf", assessFields, []dbfRow{
		{vals: []string{"P1", "F_123_456", "12 MAIN ST", "101"}},
	})

	ds, err := Open(dir)
	require.NoError(t, err)

	layer, err := ds.Layer("M001Assess")
	require.NoError(t, err)

	assert.Equal(t, "M001Assess", layer.Name)
	assert.Equal(t, crs.Unknown, layer.CRS)
	assert.Equal(t, []string{"PROP_ID", "LOC_ID", "SITE_ADDR", "USE_CODE"}, layer.Fields)
	require.Len(t, layer.Records, 1)

	rec := layer.Records[0]
	assert.Nil(t, rec.Geom)
	assert.Equal(t, "P1", rec.Attr("PROP_ID"))
	assert.Equal(t, "12 MAIN ST", rec.Attr("SITE_ADDR"))
}

func TestRecordAttrCaseInsensitive(t *testing.T) {
	rec := Record{Attrs: map[string]string{"LOC_ID": "F_1", "Use_Code": "101"}}

	assert.Equal(t, "F_1", rec.Attr("LOC_ID"))
	assert.Equal(t, "F_1", rec.Attr("loc_id"))
	assert.Equal(t, "101", rec.Attr("USE_CODE"))
	assert.Equal(t, "", rec.Attr("SITE_ADDR"))
}
