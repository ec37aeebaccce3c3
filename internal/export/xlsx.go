package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/baystate-gis/parcel-audit/internal/shapeds"
)

// WriteLayerXLSX writes a layer's attribute table to a spreadsheet,
// geometry dropped. Used by the shapefile conversion command.
func WriteLayerXLSX(layer *shapeds.Layer, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Attributes")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, field := range layer.Fields {
		header.AddCell().Value = field
	}

	for _, rec := range layer.Records {
		row := sheet.AddRow()
		for _, field := range layer.Fields {
			row.AddCell().Value = rec.Attrs[field]
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save spreadsheet")
	}
	return nil
}
