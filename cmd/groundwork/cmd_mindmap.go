package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"groundwork/adapters/browser"
	"groundwork/adapters/ollama"
	"groundwork/internal/mindmap"
)

var mindmapFlags struct {
	url string
}

var mindmapCmd = &cobra.Command{
	Use:   "mindmap [url]",
	Short: "Generate a grounded Mermaid mind map from a web page",
	Long: `Fetch a web page, summarize it into an outline whose every item is
checked against the page text, and render the outline as a Mermaid mind map.

The diagram source is written to mermaid_code_<timestamp>.txt in the
output directory. Paste it into any Mermaid renderer.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMindmap,
}

func init() {
	f := mindmapCmd.Flags()
	f.StringVar(&mindmapFlags.url, "url", "", "Page URL to map")
	addModelFlags(f)
}

func runMindmap(cmd *cobra.Command, args []string) error {
	url := mindmapFlags.url
	if url == "" && len(args) > 0 {
		url = args[0]
	}
	if url == "" {
		return fmt.Errorf("a page URL is required\n\nUsage: groundwork mindmap <url>")
	}

	obs, writer := setupRun("mindmap")
	state, record, err := mindmap.Run(cmd.Context(), url, browser.New(), ollama.New(""), genOptions(), obs)
	if err != nil {
		return err
	}

	path, err := writer.Write("mermaid_code", "txt", []byte(state.GetString(mindmap.FieldDiagram)))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Mind map written to %s\n", path)
	reportRun(cmd, record)
	return nil
}
