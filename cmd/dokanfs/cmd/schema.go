package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/marmos91/dokanfs/pkg/config"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [output]",
	Short: "Generate the JSON schema of the configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reflector := jsonschema.Reflector{
			AllowAdditionalProperties: false,
			DoNotReference:            true,
			FieldNameTag:              "mapstructure",
		}

		schema := reflector.Reflect(&config.Config{})
		schema.Title = "DokanFS Configuration"
		schema.Description = "Configuration schema for the dokanfs mount command"
		schema.Version = "1.0.0"

		schemaJSON, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}

		outputFile := "config.schema.json"
		if len(args) == 1 {
			outputFile = args[0]
		}
		if outputFile == "-" {
			_, err := os.Stdout.Write(append(schemaJSON, '\n'))
			return err
		}

		if err := os.WriteFile(outputFile, schemaJSON, 0644); err != nil {
			return fmt.Errorf("failed to write schema file: %w", err)
		}
		fmt.Printf("JSON schema written to %s\n", outputFile)
		return nil
	},
}
