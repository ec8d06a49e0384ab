package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/entrez-mcp/internal/eutils"
)

var abstractCmd = &cobra.Command{
	Use:   "abstract [pmids...]",
	Short: "Fetch the abstracts of PubMed articles",
	Long: `Abstract fetches the plain-text abstract rendition of one or more
articles, including the citation header PubMed prepends.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAbstract,
}

func init() {
	rootCmd.AddCommand(abstractCmd)
}

func runAbstract(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	client := eutils.NewClient(cfg.Eutils)

	body, _, err := client.Fetch(context.Background(), eutils.FetchParams{IDs: args})
	if err != nil {
		return err
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		fmt.Printf("No abstract available for PMID %s.\n", strings.Join(args, ", "))
		return nil
	}
	fmt.Println(text)
	return nil
}
