// Command picprompt builds a multimodal prompt from the command line and
// prints one provider's request payload as JSON.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "picprompt",
	Short: "Build multimodal LLM prompts with provider-adapted images",
	Long: `picprompt fetches the images a prompt references (local files, HTTP(S)
URLs, or s3:// URIs), adapts them to the target provider's size and encoding
constraints, and prints the provider request payload as JSON.

Examples:
  $ picprompt build --provider anthropic --text "Describe this" --image photo.jpg
  $ picprompt build --provider openai --text "Compare" --image a.png --image https://example.com/b.png
  $ picprompt build --provider gemini --image s3://bucket/chart.png --s3`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
