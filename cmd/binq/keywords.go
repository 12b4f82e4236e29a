package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/binquery/binq/binq/derive"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "List the recognized predicate keywords",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%-20s %-28s %s\n", "KEYWORD", "OPERATION", "ARGS")
		for _, k := range derive.Keywords() {
			fmt.Printf("%-20s %-28s %d\n", k.Token, k.Op, k.Arity)
		}
	},
}
