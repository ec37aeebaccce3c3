package shapeds

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dbfField struct {
	name   string
	length int
}

type dbfRow struct {
	deleted bool
	vals    []string
}

// buildDBF assembles a dBase III table byte-for-byte: 32-byte file header,
// one 32-byte descriptor per field, 0x0D terminator, then fixed-width
// records prefixed with a deletion flag.
func buildDBF(t *testing.T, fields []dbfField, rows []dbfRow) []byte {
	t.Helper()

	headerSize := 32 + 32*len(fields) + 1
	recordSize := 1
	for _, f := range fields {
		recordSize += f.length
	}

	buf := make([]byte, 0, headerSize+recordSize*len(rows)+1)

	header := make([]byte, 32)
	header[0] = 0x03
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(rows)))
	binary.LittleEndian.PutUint16(header[8:10], uint16(headerSize))
	binary.LittleEndian.PutUint16(header[10:12], uint16(recordSize))
	buf = append(buf, header...)

	for _, f := range fields {
		desc := make([]byte, 32)
		copy(desc[0:11], f.name)
		desc[11] = 'C'
		desc[16] = byte(f.length)
		buf = append(buf, desc...)
	}
	buf = append(buf, 0x0d)

	for _, r := range rows {
		rec := make([]byte, recordSize)
		if r.deleted {
			rec[0] = '*'
		} else {
			rec[0] = ' '
		}
		pos := 1
		for i, f := range fields {
			cell := make([]byte, f.length)
			for j := range cell {
				cell[j] = ' '
			}
			if i < len(r.vals) {
				copy(cell, r.vals[i])
			}
			copy(rec[pos:], cell)
			pos += f.length
		}
		buf = append(buf, rec...)
	}
	buf = append(buf, 0x1a)

	return buf
}

func writeDBF(t *testing.T, dir, name string, fields []dbfField, rows []dbfRow) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buildDBF(t, fields, rows), 0o644))
	return path
}

var assessFields = []dbfField{
	{name: "PROP_ID", length: 10},
	{name: "LOC_ID", length: 18},
	{name: "SITE_ADDR", length: 40},
	{name: "USE_CODE", length: 4},
}

func TestReadDBF(t *testing.T) {
	path := writeDBF(t, t.TempDir(), "M001Assess.dbf", assessFields, []dbfRow{
		{vals: []string{"P1", "F_123_456", "12 MAIN ST", "1010"}},
		{vals: []string{"P2", "F_123_457", "14 MAIN ST", "101"}},
	})

	fields, rows, err := readDBF(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"PROP_ID", "LOC_ID", "SITE_ADDR", "USE_CODE"}, fields)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"P1", "F_123_456", "12 MAIN ST", "1010"}, rows[0])
	assert.Equal(t, []string{"P2", "F_123_457", "14 MAIN ST", "101"}, rows[1])
}

func TestReadDBFSkipsDeletedRecords(t *testing.T) {
	path := writeDBF(t, t.TempDir(), "table.dbf", assessFields, []dbfRow{
		{vals: []string{"P1", "F_1", "", "101"}},
		{deleted: true, vals: []string{"P2", "F_2", "", "102"}},
		{vals: []string{"P3", "F_3", "", "103"}},
	})

	_, rows, err := readDBF(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "P1", rows[0][0])
	assert.Equal(t, "P3", rows[1][0])
}

func TestReadDBFTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.dbf")
	require.NoError(t, os.WriteFile(path, []byte{0x03, 0x00}, 0o644))

	_, _, err := readDBF(path)
	assert.Error(t, err)
}

func TestReadDBFMalformedHeader(t *testing.T) {
	data := make([]byte, 64)
	binary.LittleEndian.PutUint16(data[8:10], 7) // header smaller than minimum
	path := filepath.Join(t.TempDir(), "bad.dbf")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, _, err := readDBF(path)
	assert.Error(t, err)
}

func TestReadDBFMissingFile(t *testing.T) {
	_, _, err := readDBF(filepath.Join(t.TempDir(), "nope.dbf"))
	assert.Error(t, err)
}
