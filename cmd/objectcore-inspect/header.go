package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/lumina-rt/objectcore/pkg/pkgfile"
)

func newHeaderCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "header <package-file>",
		Short: "Print a package file's header (with its import count) and export table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()
			header, exports, err := pkgfile.PeekExports(fs, args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"header":  header,
					"exports": exports,
				})
			}

			fmt.Printf("tag:     0x%08X\n", header.Tag)
			fmt.Printf("version: %d\n", header.Version)
			fmt.Printf("imports: %d\n", header.ImportCount)
			fmt.Printf("exports: %d\n", header.ExportCount)
			for i, exp := range exports {
				fmt.Printf("  [%d] %s (%s) guid=%s offset=%d size=%d\n",
					i, exp.Name, exp.ClassName, exp.GUID, exp.Offset, exp.Size)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON instead of plain text")
	return cmd
}
