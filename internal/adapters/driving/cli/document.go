package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage indexed documents",
	Long:  `List, view, publish, unpublish, or delete synced documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list [source-id]",
	Short: "List documents for a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentDetailsCmd = &cobra.Command{
	Use:   "details [doc-id]",
	Short: "Show document metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDetails,
}

var documentPublishCmd = &cobra.Command{
	Use:   "publish [doc-id]",
	Short: "Make a document searchable",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentPublish,
}

var documentUnpublishCmd = &cobra.Command{
	Use:   "unpublish [doc-id]",
	Short: "Retract a document from search",
	Long:  `Removes a document from the search index while keeping it stored. A later publish or sync makes it searchable again.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentUnpublish,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Long:  `Deletes a document from the store and the index. The next sync of its source recreates it if it still exists there.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Show document counts per category",
	RunE:  runDocumentCategories,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentDetailsCmd)
	documentCmd.AddCommand(documentPublishCmd)
	documentCmd.AddCommand(documentUnpublishCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentCategoriesCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	sourceID := args[0]
	ctx := context.Background()

	docs, err := documentService.ListBySource(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents found for source: %s\n", sourceID)
		return nil
	}

	cmd.Printf("Documents for source %s:\n\n", sourceID)
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title: %s\n", docs[i].DisplayTitle())
		if docs[i].URI != "" {
			cmd.Printf("    URI: %s\n", docs[i].URI)
		}
		if !docs[i].Published {
			cmd.Println("    Unpublished")
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	ctx := context.Background()

	doc, err := documentService.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	published := "yes"
	if !doc.Published {
		published = "no"
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:     %s\n", doc.DisplayTitle())
	cmd.Printf("  Source:    %s\n", doc.SourceID)
	cmd.Printf("  URI:       %s\n", doc.URI)
	if doc.Category != "" {
		cmd.Printf("  Category:  %s\n", doc.Category)
	}
	cmd.Printf("  Language:  %s\n", doc.Language)
	cmd.Printf("  Published: %s\n", published)
	cmd.Printf("  Created:   %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:   %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	if len(doc.Tags) > 0 {
		cmd.Printf("  Tags:      %s\n", strings.Join(doc.Tags, ", "))
	}
	if doc.Summary != "" {
		cmd.Printf("\n  %s\n", doc.Summary)
	}

	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	ctx := context.Background()

	doc, err := documentService.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	cmd.Println(doc.Content)
	return nil
}

func runDocumentDetails(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	ctx := context.Background()

	details, err := documentService.GetDetails(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to get document details: %w", err)
	}

	cmd.Printf("Document Details: %s\n\n", details.ID)
	cmd.Printf("  Title:       %s\n", details.Title)
	cmd.Printf("  Source:      %s (%s)\n", details.SourceName, details.SourceType)
	cmd.Printf("  Source ID:   %s\n", details.SourceID)
	cmd.Printf("  URI:         %s\n", details.URI)
	if details.Category != "" {
		cmd.Printf("  Category:    %s\n", details.Category)
	}
	if details.Author != "" {
		cmd.Printf("  Author:      %s\n", details.Author)
	}
	cmd.Printf("  Published:   %t\n", details.Published)
	cmd.Printf("  Created:     %s\n", details.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:     %s\n", details.UpdatedAt.Format("2006-01-02 15:04:05"))

	if len(details.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		keys := make([]string, 0, len(details.Metadata))
		for k := range details.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Printf("    %s: %s\n", k, details.Metadata[k])
		}
	}

	return nil
}

func runDocumentPublish(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]

	if err := documentService.Publish(context.Background(), docID); err != nil {
		return fmt.Errorf("failed to publish document: %w", err)
	}

	cmd.Printf("Document %s is searchable.\n", docID)
	return nil
}

func runDocumentUnpublish(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]

	if err := documentService.Unpublish(context.Background(), docID); err != nil {
		return fmt.Errorf("failed to unpublish document: %w", err)
	}

	cmd.Printf("Document %s retracted from search.\n", docID)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]

	if err := documentService.Delete(context.Background(), docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document %s.\n", docID)
	return nil
}

func runDocumentCategories(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	categories, err := documentService.Categories(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}

	if len(categories) == 0 {
		cmd.Println("No categories found.")
		return nil
	}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	cmd.Println("Categories:")
	for _, name := range names {
		cmd.Printf("  %s: %d\n", name, categories[name])
	}

	return nil
}
