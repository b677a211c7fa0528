package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonathan/story-master/internal/client"
	"github.com/jonathan/story-master/internal/guided"
	"github.com/jonathan/story-master/internal/logging"
	"github.com/jonathan/story-master/internal/tui"
	"github.com/jonathan/story-master/internal/types"
	"github.com/spf13/cobra"
)

func newWriteCmd(a *app) *cobra.Command {
	var (
		apiURL  string
		policy  string
		samples bool
	)
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Open the story writing app",
		Long:  `Open the terminal app: learn story structure, write a guided story and browse the gallery. Stories are saved through the story API.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if apiURL != "" {
				a.cfg.APIURL = apiURL
			}
			if policy != "" {
				a.cfg.PromptPolicy = policy
			}
			if cmd.Flags().Changed("samples") {
				a.cfg.ShowSamples = &samples
			}

			// The terminal belongs to the UI, so logs go to a file.
			logPath := a.cfg.LogFile
			if logPath == "" {
				logPath = filepath.Join(os.TempDir(), "story_master.log")
			}
			logger, err := a.logger(logging.FormatJSON, logPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			promptPolicy, err := guided.ParsePromptPolicy(a.cfg.PromptPolicy)
			if err != nil {
				return err
			}
			cat, err := a.catalog()
			if err != nil {
				return err
			}

			c, err := client.New(a.cfg.APIURL,
				client.WithTimeout(a.cfg.Timeout()),
				client.WithLogger(logger.Named("client")),
			)
			if err != nil {
				return err
			}

			var sampleStories []types.Story
			if a.cfg.SamplesEnabled() {
				sampleStories = cat.SampleStories
			}

			model, err := tui.NewApp(tui.Config{
				Backend:      c,
				Catalog:      cat,
				Samples:      sampleStories,
				PromptPolicy: promptPolicy,
				ReactiveGate: a.cfg.ReactiveGate,
				Logger:       logger.Named("tui"),
			})
			if err != nil {
				return err
			}

			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running app: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Story API base URL, including /api")
	cmd.Flags().StringVar(&policy, "prompt-policy", "", "Story starter policy: first or random")
	cmd.Flags().BoolVar(&samples, "samples", true, "Show bundled sample stories in the gallery")
	return cmd
}
