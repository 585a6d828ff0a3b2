package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

var (
	addCategory       string
	addTitle          string
	addContent        string
	addFile           string
	addTags           string
	addURL            string
	addAttachment     string
	addAllowDuplicate bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an entry to the knowledge base",
	Long: `Writes a new entry under its category and rebuilds the index.

Content comes from --content, from --file, or from standard input when
neither is given. An entry whose fingerprint is already indexed is skipped
unless --allow-duplicate is set.`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addCategory, "category", "c", "", "category (e.g. gpt, claude)")
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "entry title")
	addCmd.Flags().StringVar(&addContent, "content", "", "entry content")
	addCmd.Flags().StringVarP(&addFile, "file", "f", "", "read content from file ('-' for stdin)")
	addCmd.Flags().StringVar(&addTags, "tags", "", "comma-separated tags")
	addCmd.Flags().StringVar(&addURL, "url", "", "source URL")
	addCmd.Flags().StringVar(&addAttachment, "attachment", "", "file to attach")
	addCmd.Flags().BoolVar(&addAllowDuplicate, "allow-duplicate", false, "write even if the fingerprint exists")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, _ []string) error {
	svc, err := openKnowledgeService()
	if err != nil {
		return err
	}

	content, err := readAddContent(cmd)
	if err != nil {
		return err
	}

	res, err := svc.Add(cmd.Context(), driving.AddRequest{
		Category:       addCategory,
		Title:          addTitle,
		Content:        content,
		Tags:           splitTags(addTags),
		URL:            addURL,
		AttachmentPath: addAttachment,
		AllowDuplicate: addAllowDuplicate,
	})
	if err != nil {
		return fmt.Errorf("add failed: %w", err)
	}

	if res.Duplicate {
		cmd.Printf("Duplicate: %s is already in the index, nothing written.\n", res.Fingerprint)
		return nil
	}
	cmd.Printf("Added %s\n", res.Path)
	cmd.Printf("  Fingerprint: %s\n", res.Fingerprint)
	if res.Rebuild != nil {
		printRebuild(cmd, res.Rebuild)
	}
	return nil
}

func readAddContent(cmd *cobra.Command) (string, error) {
	switch {
	case addContent != "":
		return addContent, nil
	case addFile == "-" || addFile == "":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(addFile)
		if err != nil {
			return "", fmt.Errorf("read content: %w", err)
		}
		return string(data), nil
	}
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
