package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/baystate-gis/parcel-audit/internal/export"
	"github.com/baystate-gis/parcel-audit/internal/shapeds"
)

var convertDir string

var convertCmd = &cobra.Command{
	Use:   "convert [shapefile...]",
	Short: "Convert shapefile attribute tables to spreadsheets",
	Long:  "Writes each layer's attribute table to an .xlsx beside the source, geometry dropped. Pass shapefile paths, or --dir to convert every layer in a directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("convert"); err != nil {
			return err
		}
		if convertDir == "" && len(args) == 0 {
			return eris.New("pass shapefile paths or --dir")
		}

		if convertDir != "" {
			ds, err := shapeds.Open(convertDir)
			if err != nil {
				return err
			}
			for _, name := range ds.Layers() {
				if err := convertLayer(ds, name, filepath.Join(convertDir, name+".xlsx")); err != nil {
					return err
				}
			}
		}

		for _, path := range args {
			ds, err := shapeds.Open(filepath.Dir(path))
			if err != nil {
				return err
			}
			stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			if err := convertLayer(ds, stem, strings.TrimSuffix(path, filepath.Ext(path))+".xlsx"); err != nil {
				return err
			}
		}

		return nil
	},
}

func convertLayer(ds *shapeds.Dataset, name, out string) error {
	layer, err := ds.Layer(name)
	if err != nil {
		return err
	}
	if err := export.WriteLayerXLSX(layer, out); err != nil {
		return err
	}
	fmt.Printf("Converted %s (%d records, %d columns) to %s\n",
		name, len(layer.Records), len(layer.Fields), out)
	return nil
}

func init() {
	convertCmd.Flags().StringVar(&convertDir, "dir", "", "convert every layer in this directory")
	rootCmd.AddCommand(convertCmd)
}
