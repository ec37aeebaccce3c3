package shapeds

import (
	"encoding/binary"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// readDBF reads a standalone dBase III/IV attribute table. go-shp only
// reads a .dbf alongside its .shp, but assessment tables ship without
// geometry, so the fixed-width record format is decoded here directly.
func readDBF(path string) (fields []string, rows [][]string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "dbf: read file")
	}
	if len(data) < 32 {
		return nil, nil, eris.New("dbf: truncated header")
	}

	numRecords := int(binary.LittleEndian.Uint32(data[4:8]))
	headerSize := int(binary.LittleEndian.Uint16(data[8:10]))
	recordSize := int(binary.LittleEndian.Uint16(data[10:12]))

	if headerSize < 33 || headerSize > len(data) || recordSize < 1 {
		return nil, nil, eris.New("dbf: malformed header")
	}

	// Field descriptors: 32 bytes each, from offset 32 until the 0x0D
	// terminator.
	type fieldDesc struct {
		name   string
		length int
	}
	var descs []fieldDesc
	for off := 32; off+32 <= headerSize && data[off] != 0x0d; off += 32 {
		name := strings.TrimRight(string(data[off:off+11]), "\x00")
		descs = append(descs, fieldDesc{name: name, length: int(data[off+16])})
	}
	if len(descs) == 0 {
		return nil, nil, eris.New("dbf: no field descriptors")
	}

	fields = make([]string, len(descs))
	for i, d := range descs {
		fields[i] = d.name
	}

	rows = make([][]string, 0, numRecords)
	for rec := 0; rec < numRecords; rec++ {
		off := headerSize + rec*recordSize
		if off+recordSize > len(data) {
			break
		}
		if data[off] == '*' { // deleted record
			continue
		}

		row := make([]string, len(descs))
		pos := off + 1 // skip deletion flag
		for i, d := range descs {
			if pos+d.length > len(data) {
				break
			}
			row[i] = strings.TrimSpace(strings.Trim(string(data[pos:pos+d.length]), "\x00"))
			pos += d.length
		}
		rows = append(rows, row)
	}

	return fields, rows, nil
}
