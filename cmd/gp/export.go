package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/gramportal/internal/export"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export commands",
	}
	cmd.AddCommand(newExportMapCmd())
	return cmd
}

func newExportMapCmd() *cobra.Command {
	var (
		configPath string
		format     string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Export village map data",
		Long:  "Writes every village with the export date and totals as JSON or an Excel workbook. The default file name is village-map-data-<date>.<format>; use --out - for stdout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var write func(io.Writer, export.MapData) error
			switch format {
			case "json":
				write = export.WriteJSON
			case "xlsx":
				write = export.WriteXLSX
			default:
				return fmt.Errorf("unsupported format %q (json, xlsx)", format)
			}

			_, _, p, err := openPortal(configPath)
			if err != nil {
				return err
			}
			d := export.NewMapData(p.Villages(), time.Now())

			if outPath == "-" {
				return write(cmd.OutOrStdout(), d)
			}
			if outPath == "" {
				outPath = d.FileName(format)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := write(f, d); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d villages to %s\n", d.TotalVillages, outPath)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json, xlsx)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file")
	return cmd
}
