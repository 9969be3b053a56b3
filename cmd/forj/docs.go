package forj

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

//go:embed docs/*.md
var docsFS embed.FS

func newDocsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs [topic]",
		Short: "Display documentation topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				topics, err := listTopics()
				if err != nil {
					return err
				}
				fmt.Println("Available topics:")
				for _, t := range topics {
					fmt.Printf("  %s\n", t)
				}
				return nil
			}

			content, err := docsFS.ReadFile("docs/" + args[0] + ".md")
			if err != nil {
				return fmt.Errorf("unknown topic %q", args[0])
			}
			fmt.Print(renderMarkdown(string(content)))
			return nil
		},
	}
}

func listTopics() ([]string, error) {
	entries, err := docsFS.ReadDir("docs")
	if err != nil {
		return nil, err
	}
	topics := make([]string, 0, len(entries))
	for _, e := range entries {
		topics = append(topics, strings.TrimSuffix(e.Name(), ".md"))
	}
	sort.Strings(topics)
	return topics, nil
}

// renderMarkdown converts markdown to terminal output, falling back to the
// raw text when rendering is unavailable.
func renderMarkdown(content string) string {
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
