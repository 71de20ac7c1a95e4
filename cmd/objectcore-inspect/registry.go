package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/lumina-rt/objectcore/pkg/assetregistry"
	"github.com/lumina-rt/objectcore/pkg/engineconfig"
	"github.com/lumina-rt/objectcore/pkg/pkgfile"
)

func newRegistryCommand() *cobra.Command {
	var (
		configPath string
		asJSON     bool
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Run asset discovery over a mount configuration and print the resulting snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := engineconfig.Load(configPath, "OBJECTCORE")
			if err != nil {
				return err
			}
			if cfg.HeaderCacheCapacity > 0 {
				pkgfile.SetHeaderCacheSize(cfg.HeaderCacheCapacity)
			}
			mt := cfg.MountTable()

			var opts []assetregistry.Option
			if n := workers; n > 0 {
				opts = append(opts, assetregistry.WithDiscoveryWorkers(n))
			} else if cfg.DiscoveryWorkers > 0 {
				opts = append(opts, assetregistry.WithDiscoveryWorkers(cfg.DiscoveryWorkers))
			}

			reg := assetregistry.New(opts...)
			if err := reg.RunInitialDiscovery(cmd.Context(), afero.NewOsFs(), mt); err != nil {
				return err
			}

			matches := reg.FindByPredicate(func(*assetregistry.AssetData) bool { return true })
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(matches)
			}

			fmt.Printf("discovered %d assets\n", len(matches))
			for _, a := range matches {
				fmt.Printf("  %s  %s (%s)\n", a.GUID, a.Path, a.ClassName)
			}
			if failed := reg.FailedAssets(); len(failed) > 0 {
				fmt.Printf("failed (%d):\n", len(failed))
				for _, p := range failed {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a mount configuration file (YAML/JSON/TOML)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON instead of plain text")
	cmd.Flags().IntVar(&workers, "workers", 0, "override the configured discovery worker count")
	return cmd
}
