package main

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/binquery/binq/binq/index"
)

var indexesSnapshot string

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Inspect a saved index statistics snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache := index.NewCache(nil, slog.Default())
		if err := cache.LoadSnapshot(indexesSnapshot); err != nil {
			return err
		}
		descriptors := cache.All()
		if len(descriptors) == 0 {
			fmt.Println("snapshot holds no indexes")
			return nil
		}
		sort.Slice(descriptors, func(i, j int) bool {
			return descriptors[i].Name < descriptors[j].Name
		})
		fmt.Printf("%-24s %-12s %-16s %-12s %s\n", "NAME", "NAMESPACE", "BIN", "TYPE", "RATIO")
		for _, d := range descriptors {
			fmt.Printf("%-24s %-12s %-16s %-12v %.2f\n", d.Name, d.Namespace, d.Bin, d.Type, d.Ratio)
		}
		return nil
	},
}

func init() {
	indexesCmd.Flags().StringVarP(&indexesSnapshot, "snapshot", "s", "", "index statistics snapshot file (required)")
	_ = indexesCmd.MarkFlagRequired("snapshot")
}
