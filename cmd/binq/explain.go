package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/binquery/binq/binq/derive"
	"github.com/binquery/binq/binq/index"
)

var (
	explainEntity    string
	explainArgs      string
	explainSnapshot  string
	explainNamespace string
)

var explainCmd = &cobra.Command{
	Use:   "explain <method>",
	Short: "Show the compiled plan for a derived query method",
	Long: `Explain parses a derived method name against a YAML entity descriptor
and prints the resulting part tree. With --args the parts bind into a
qualifier tree; with --snapshot the index selection a cached statistics
snapshot would make is shown too.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entity, err := loadEntity(explainEntity)
		if err != nil {
			return err
		}
		method := args[0]
		plan, err := derive.NewPlan(method, entity)
		if err != nil {
			return err
		}

		tree := plan.Tree()
		fmt.Printf("method:   %s\n", method)
		fmt.Printf("set:      %s\n", entity.SetName)
		fmt.Printf("subject:  %s\n", tree.Subject)
		if tree.Distinct {
			fmt.Println("distinct: true")
		}
		if tree.Limit > 0 {
			fmt.Printf("limit:    %d\n", tree.Limit)
		}
		for i, group := range tree.Groups {
			if i > 0 {
				fmt.Println("or:")
			} else {
				fmt.Println("where:")
			}
			for _, part := range group {
				fmt.Printf("  %s %s (args: %d)\n", part.Path, part.Op, part.Arity)
			}
		}
		if len(tree.OrderBy) > 0 {
			clauses := make([]string, len(tree.OrderBy))
			for i, o := range tree.OrderBy {
				direction := "asc"
				if o.Descending {
					direction = "desc"
				}
				clauses[i] = o.Path + " " + direction
			}
			fmt.Printf("order:    %s\n", strings.Join(clauses, ", "))
		}

		if explainArgs == "" {
			return nil
		}
		var bound []any
		if err := yaml.Unmarshal([]byte(explainArgs), &bound); err != nil {
			return fmt.Errorf("parsing --args: %w", err)
		}
		q, err := plan.Bind(bound...)
		if err != nil {
			return err
		}
		qual := q.CriteriaObject()
		fmt.Printf("qualifier: %s\n", qual)

		if explainSnapshot == "" {
			return nil
		}
		cache := index.NewCache(nil, slog.Default())
		if err := cache.LoadSnapshot(explainSnapshot); err != nil {
			return err
		}
		sel := index.Select(qual, cache, explainNamespace)
		if sel.Descriptor == nil {
			fmt.Println("index:     none (full scan)")
			return nil
		}
		fmt.Printf("index:     %s (bin %s, ratio %.2f) serving %s\n",
			sel.Descriptor.Name, sel.Descriptor.Bin, sel.Descriptor.Ratio, sel.Leaf)
		return nil
	},
}

func init() {
	explainCmd.Flags().StringVarP(&explainEntity, "entity", "e", "", "entity descriptor YAML file (required)")
	explainCmd.Flags().StringVarP(&explainArgs, "args", "a", "", "method arguments as a YAML list, e.g. '[Anders, 30]'")
	explainCmd.Flags().StringVarP(&explainSnapshot, "snapshot", "s", "", "index statistics snapshot to select against")
	explainCmd.Flags().StringVarP(&explainNamespace, "namespace", "n", "test", "namespace for index selection")
	_ = explainCmd.MarkFlagRequired("entity")
}
