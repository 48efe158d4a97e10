package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	llmclient "topicgrid/internal/llm/client"
	"topicgrid/internal/settings"
)

var providerCmd = &cobra.Command{
	Use:   "provider [openai|deepseek|gemini]",
	Short: "Show or save the default provider",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store := settings.NewFileStore(settingsPath)
		if len(args) == 0 {
			s, err := settings.Load(ctx, store, "")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.Provider)
			return nil
		}
		return saveProvider(ctx, store, args[0], cmd)
	},
}

func saveProvider(ctx context.Context, store settings.Store, raw string, cmd *cobra.Command) error {
	name, ok := llmclient.ParseName(raw)
	if !ok {
		return fmt.Errorf("%w: %q", settings.ErrUnknownProvider, raw)
	}
	if err := settings.Save(ctx, store, "", settings.Settings{Provider: name}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "provider set to %s (%s)\n", name, settingsPath)
	return nil
}

func init() {
	rootCmd.AddCommand(providerCmd)
}
