package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oktay-be/gcp-testing-agent/internal/config"
	"github.com/oktay-be/gcp-testing-agent/internal/stimulus"
)

var (
	triggerKeywords    []string
	triggerURLs        []string
	triggerScrapeDepth int
	triggerPersist     bool
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Publish a scraper pipeline trigger request",
	Long: `Publish a scraping request to the pipeline's Pub/Sub topic.

This is the single write operation the agent performs; use it to produce
the remote state a subsequent verify run observes.

Examples:
  gcp-testing-agent trigger
  gcp-testing-agent trigger --keywords transfer,derbi --scrape-depth 2`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		req := stimulus.DefaultRequest()
		if len(triggerKeywords) > 0 {
			req.Keywords = triggerKeywords
		}
		if len(triggerURLs) > 0 {
			req.URLs = triggerURLs
		}
		req.ScrapeDepth = triggerScrapeDepth
		req.Persist = triggerPersist

		ctx := cmd.Context()

		publisher, err := stimulus.NewPublisher(ctx, Logger, cfg.ProjectID, cfg.PipelineTopic)
		if err != nil {
			return fmt.Errorf("creating publisher: %w", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				Logger.WithError(err).Warn("failed to close publisher")
			}
		}()

		id, err := publisher.Publish(ctx, req)
		if err != nil {
			return fmt.Errorf("publishing trigger: %w", err)
		}

		fmt.Printf("Published message %s to topic '%s'\n", id, cfg.PipelineTopic)
		return nil
	},
}

func init() {
	triggerCmd.Flags().StringSliceVar(&triggerKeywords, "keywords", nil, "Keywords to scrape for (defaults to the canonical set)")
	triggerCmd.Flags().StringSliceVar(&triggerURLs, "urls", nil, "Source URLs to scrape (defaults to the canonical set)")
	triggerCmd.Flags().IntVar(&triggerScrapeDepth, "scrape-depth", 1, "Scrape depth for the pipeline run")
	triggerCmd.Flags().BoolVar(&triggerPersist, "persist", false, "Persist scraped results downstream")
	rootCmd.AddCommand(triggerCmd)
}
