package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anyx-app/secudash-43b2ee93/internal/shell"
	"github.com/anyx-app/secudash-43b2ee93/pkg/query"
)

var queryFlags struct {
	selectCols string
	eq         []string
	order      []string
	limit      int
	offset     int
	single     bool
}

var queryCmd = &cobra.Command{
	Use:   "query <table | expression>",
	Short: "Run one query and print the response",
	Example: `  secudash query assets --select id,name --eq status=active --order name:desc --limit 5
  secudash query 'vulnerabilities.eq("severity","critical").is("resolved_at")'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := builderFromArgs(cmd, newClient(), args[0])
		if err != nil {
			return err
		}
		res, err := b.Execute(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var payloadCmd = &cobra.Command{
	Use:   "payload <table | expression>",
	Short: "Print the request body a query would send, without sending it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := builderFromArgs(cmd, newClient(), args[0])
		if err != nil {
			return err
		}
		if err := b.Err(); err != nil {
			return err
		}
		return printJSON(b.Payload())
	},
}

func init() {
	for _, c := range []*cobra.Command{queryCmd, payloadCmd} {
		c.Flags().StringVar(&queryFlags.selectCols, "select", "", "Comma-separated columns")
		c.Flags().StringArrayVar(&queryFlags.eq, "eq", nil, "Equality filter column=value (repeatable)")
		c.Flags().StringArrayVar(&queryFlags.order, "order", nil, "Sort key column[:asc|:desc] (repeatable)")
		c.Flags().IntVar(&queryFlags.limit, "limit", -1, "Maximum rows")
		c.Flags().IntVar(&queryFlags.offset, "offset", -1, "Rows to skip")
		c.Flags().BoolVar(&queryFlags.single, "single", false, "Expect exactly one row")
		rootCmd.AddCommand(c)
	}
}

// builderFromArgs accepts either a chain expression or a table name plus
// flags.
func builderFromArgs(cmd *cobra.Command, c *query.Client, arg string) (*query.Builder, error) {
	if strings.ContainsAny(arg, ".(") {
		x, err := shell.Parse(arg)
		if err != nil {
			return nil, err
		}
		return x.Apply(c.From(x.Table))
	}

	b := c.From(arg)
	if queryFlags.selectCols != "" {
		b.Select(queryFlags.selectCols)
	}
	for _, f := range queryFlags.eq {
		col, val, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("--eq %q: want column=value", f)
		}
		b.Eq(col, val)
	}
	for _, o := range queryFlags.order {
		col, dir, _ := strings.Cut(o, ":")
		switch strings.ToLower(dir) {
		case "", "asc":
			b.Order(col)
		case "desc":
			b.Order(col, query.Descending())
		default:
			return nil, fmt.Errorf("--order %q: direction must be asc or desc", o)
		}
	}
	if cmd.Flags().Changed("limit") {
		b.Limit(queryFlags.limit)
	}
	if cmd.Flags().Changed("offset") {
		b.Offset(queryFlags.offset)
	}
	if queryFlags.single {
		b.Single()
	}
	return b, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
