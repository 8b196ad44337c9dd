package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/johestephan/dokemon-api/internal/handler"
)

func newOpenAPICmd() *cobra.Command {
	var (
		outputFile string
		serverURL  string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate OpenAPI specification",
		Long: `Generate the OpenAPI 3.1 document describing every route of the API,
including request and response bodies and the admin-only operations.`,
		Example: `  dokemon openapi                      # print to stdout
  dokemon openapi -o openapi.json      # write to file
  dokemon openapi --server http://docker-host:9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpenAPI(outputFile, serverURL)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write spec to file instead of stdout")
	cmd.Flags().StringVar(&serverURL, "server", "", "Server URL to include in the document")

	return cmd
}

func runOpenAPI(outputFile, serverURL string) error {
	doc, err := handler.Document(appVersion, serverURL)
	if err != nil {
		return fmt.Errorf("generate OpenAPI document: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	if outputFile == "" {
		fmt.Println(string(jsonBytes))
		return nil
	}
	if err := os.WriteFile(outputFile, jsonBytes, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outputFile, err)
	}
	fmt.Printf("Wrote %s\n", outputFile)
	return nil
}
