package main

import (
	"errors"
	"fmt"

	"github.com/jonathan/story-master/internal/client"
	"github.com/jonathan/story-master/internal/logging"
	"github.com/jonathan/story-master/internal/observability"
	"github.com/jonathan/story-master/internal/types"
	"github.com/spf13/cobra"
)

// apiClient builds a story API client from the resolved configuration.
func (a *app) apiClient(apiURL string) (*client.Client, error) {
	if apiURL != "" {
		a.cfg.APIURL = apiURL
	}
	logger, err := a.logger(logging.FormatConsole, a.cfg.LogFile)
	if err != nil {
		return nil, err
	}
	return client.New(a.cfg.APIURL,
		client.WithTimeout(a.cfg.Timeout()),
		client.WithLogger(logger),
	)
}

func newProgressCmd(a *app) *cobra.Command {
	var (
		apiURL   string
		complete bool
		reset    bool
	)
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show the learner's progress",
		Long:  `Show lesson completion, story count, total words and the writing streak. --complete-lesson and --reset change the lesson flag.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if complete && reset {
				return errors.New("cannot use --complete-lesson with --reset")
			}
			c, err := a.apiClient(apiURL)
			if err != nil {
				return err
			}

			var p *types.Progress
			switch {
			case complete:
				p, err = c.UpdateProgress(cmd.Context(), types.ProgressUpdate{LessonCompleted: types.Bool(true)})
			case reset:
				p, err = c.UpdateProgress(cmd.Context(), types.ProgressUpdate{LessonCompleted: types.Bool(false)})
			default:
				p, err = c.GetProgress(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("failed to load progress: %w", err)
			}

			observability.NewPrinter(cmd.OutOrStdout()).PrintProgress(p)
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Story API base URL, including /api")
	cmd.Flags().BoolVar(&complete, "complete-lesson", false, "Mark the story structure lesson as completed")
	cmd.Flags().BoolVar(&reset, "reset", false, "Mark the lesson as not completed")
	return cmd
}
