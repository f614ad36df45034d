package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/picprompt/picprompt"
	"github.com/picprompt/picprompt/download"
	"github.com/picprompt/picprompt/format"
	fmtanthropic "github.com/picprompt/picprompt/format/anthropic"
	fmtgemini "github.com/picprompt/picprompt/format/gemini"
	fmtopenai "github.com/picprompt/picprompt/format/openai"
	"github.com/picprompt/picprompt/source"
)

var (
	providerID   string
	systemText   string
	userText     string
	imagePaths   []string
	configPath   string
	useS3        bool
	fetchTimeout time.Duration
	sequential   bool
	lenient      bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch and adapt images, then print the provider request payload",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&providerID, "provider", picprompt.ProviderOpenAI, "target provider: openai, anthropic, or gemini")
	buildCmd.Flags().StringVar(&systemText, "system", "", "system message")
	buildCmd.Flags().StringVar(&userText, "text", "", "user message")
	buildCmd.Flags().StringArrayVarP(&imagePaths, "image", "i", nil, "image path, URL, or s3:// URI (repeatable)")
	buildCmd.Flags().StringVar(&configPath, "config", "", "YAML file overriding provider image descriptors")
	buildCmd.Flags().BoolVar(&useS3, "s3", false, "enable the S3 source using ambient AWS credentials")
	buildCmd.Flags().DurationVar(&fetchTimeout, "timeout", 30*time.Second, "per-image fetch timeout")
	buildCmd.Flags().BoolVar(&sequential, "sequential", false, "fetch images one at a time instead of concurrently")
	buildCmd.Flags().BoolVar(&lenient, "lenient", false, "log per-image fetch failures instead of failing the build")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	ctx := cmd.Context()

	var resolverOpts []source.ResolverOption
	if useS3 {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("load AWS config: %w", err)
		}
		resolverOpts = append(resolverOpts, source.WithS3(s3.NewFromConfig(awsCfg)))
	}
	downloadOpts := []download.Option{
		download.WithLogger(log),
		download.WithTimeout(fetchTimeout),
	}
	if lenient {
		downloadOpts = append(downloadOpts, download.WithLoggedFailures())
	}

	builder := picprompt.NewPromptBuilder(
		picprompt.WithDownloader(download.New(source.NewResolver(resolverOpts...), downloadOpts...)),
	)
	if configPath != "" {
		configs, err := picprompt.LoadImageConfigs(configPath)
		if err != nil {
			return err
		}
		for id, cfg := range configs {
			builder.SetImageConfig(id, cfg)
		}
	}
	if systemText != "" {
		builder.AddSystemMessage(systemText)
	}
	if userText != "" {
		builder.AddUserMessage(userText)
	}
	builder.AddImageMessages(imagePaths...)

	if sequential {
		if err := builder.Build(ctx); err != nil {
			return err
		}
	} else if err := builder.BuildConcurrent(ctx); err != nil {
		return err
	}

	formatter, err := formatterFor(providerID)
	if err != nil {
		return err
	}
	payload, err := formatter.Format(builder.Messages(), builder.Registry())
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func formatterFor(id string) (format.Formatter, error) {
	switch id {
	case picprompt.ProviderOpenAI:
		return fmtopenai.New(), nil
	case picprompt.ProviderAnthropic:
		return fmtanthropic.New(), nil
	case picprompt.ProviderGemini:
		return fmtgemini.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", picprompt.ErrUnknownProvider, id)
	}
}
