package cli

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"clirouter/internal/dispatch"
	"clirouter/internal/registry"
)

func init() { rootCmd.AddCommand(schemaCmd) }

var schemaCmd = &cobra.Command{
	Use:       "schema [context|tools|result]",
	Short:     "输出 JSON Schema",
	Long:      "输出 route 的 --context 文档、tools.yaml/tools.toml 覆盖文件或路由结果的 JSON Schema。",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"context", "tools", "result"},
	RunE: func(cmd *cobra.Command, args []string) error {
		which := "context"
		if len(args) == 1 {
			which = args[0]
		}
		sch, err := schemaFor(which)
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(sch, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func schemaFor(which string) (*jsonschema.Schema, error) {
	r := jsonschema.Reflector{ExpandedStruct: true}
	var sch *jsonschema.Schema
	switch which {
	case "context":
		sch = r.Reflect(&routeContext{})
		sch.Title = "clirouter route context"
	case "tools":
		sch = r.Reflect(&registry.OverrideFile{})
		sch.Title = "clirouter tool overrides"
	case "result":
		sch = r.Reflect(&dispatch.Result{})
		sch.Title = "clirouter dispatch result"
	default:
		return nil, fmt.Errorf("unknown schema %q (want context, tools or result)", which)
	}
	return sch, nil
}
