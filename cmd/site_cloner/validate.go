package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/site-cloner/internal/schemas"
	rootschemas "github.com/jonathan/site-cloner/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a clone artifact against its JSON Schema",
	Long: `Validates a JSON artifact against one of the embedded schemas, or a schema file on disk.
When --schema is omitted the schema is picked from the artifact file name.`,
	RunE: runValidateCmd,
}

var (
	validateSchema string
	validateJSON   string
)

func init() {
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "Embedded schema name or path to a schema file")
	validateCmd.Flags().StringVar(&validateJSON, "json", "", "Path to the JSON artifact (required)")

	if err := validateCmd.MarkFlagRequired("json"); err != nil {
		panic(fmt.Sprintf("failed to mark json flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

func runValidateCmd(_ *cobra.Command, _ []string) error {
	err := validateArtifact(validateSchema, validateJSON)
	var verr *schemas.ValidationError
	if errors.As(err, &verr) {
		fmt.Println("Validation failed")
		fmt.Print(verr.Error())
		return fmt.Errorf("%s does not match its schema", validateJSON)
	}
	if err != nil {
		return err
	}
	fmt.Println("Validation passed")
	return nil
}

// validateArtifact resolves schema to an embedded name or a file path and validates jsonPath.
func validateArtifact(schema, jsonPath string) error {
	if schema == "" {
		name, ok := schemas.SchemaForFile(jsonPath)
		if !ok {
			return fmt.Errorf("no schema known for %s, pass --schema", filepath.Base(jsonPath))
		}
		return schemas.ValidateFile(name, jsonPath)
	}

	if name, ok := embeddedSchema(schema); ok {
		return schemas.ValidateFile(name, jsonPath)
	}

	schemaData, err := os.ReadFile(schema)
	if err != nil {
		return fmt.Errorf("failed to read schema %s: %w", schema, err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", jsonPath, err)
	}
	return schemas.ValidateJSONString(string(schemaData), string(data))
}

// embeddedSchema matches "diff_report", "diff_report.schema.json" and similar names.
func embeddedSchema(name string) (string, bool) {
	if strings.ContainsAny(name, `/\`) {
		return "", false
	}
	if !strings.HasSuffix(name, ".schema.json") {
		name += ".schema.json"
	}
	for _, known := range rootschemas.Names() {
		if known == name {
			return known, true
		}
	}
	return "", false
}
