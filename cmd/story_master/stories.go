package main

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/story-master/internal/client"
	"github.com/jonathan/story-master/internal/gallery"
	"github.com/jonathan/story-master/internal/observability"
	"github.com/spf13/cobra"
)

func newStoriesCmd(a *app) *cobra.Command {
	var apiURL string
	cmd := &cobra.Command{
		Use:   "stories",
		Short: "List, show and delete saved stories",
	}
	cmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Story API base URL, including /api")

	var (
		query    string
		category string
		asJSON   bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved stories, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.apiClient(apiURL)
			if err != nil {
				return err
			}
			stories, err := c.ListStories(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list stories: %w", err)
			}
			stories = gallery.New(stories, nil).Filter(query, category)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stories)
			}
			observability.NewPrinter(cmd.OutOrStdout()).PrintStories(stories)
			return nil
		},
	}
	list.Flags().StringVarP(&query, "search", "s", "", "Only stories whose title or text contains this")
	list.Flags().StringVarP(&category, "category", "c", "", "Only stories in this category")
	list.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a summary")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(apiURL)
			if err != nil {
				return err
			}
			story, err := c.GetStory(cmd.Context(), args[0])
			if err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("story %s not found", args[0])
				}
				return fmt.Errorf("failed to get story: %w", err)
			}
			observability.NewPrinter(cmd.OutOrStdout()).PrintStory(story)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(apiURL)
			if err != nil {
				return err
			}
			if err := c.DeleteStory(cmd.Context(), args[0]); err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("story %s not found", args[0])
				}
				return fmt.Errorf("failed to delete story: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted story %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, show, del)
	return cmd
}
