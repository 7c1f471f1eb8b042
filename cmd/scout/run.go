package main

import (
	"errors"
	"fmt"

	"github.com/juhapellotsalo/agentic-content-scout/internal/agent/core"
	"github.com/spf13/cobra"
)

func runCMD(cfgPath *string) *cobra.Command {
	var topic, task string
	var run = &cobra.Command{
		Use:   "run",
		Short: "Scout one topic now and save new links",
		RunE: func(cmd *cobra.Command, args []string) error {
			if topic == "" {
				return errors.New("--topic is required")
			}
			a, err := buildApp(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			st, err := a.orch.ScoutTopic(cmd.Context(), topic, task)
			if errors.Is(err, core.ErrNeedsInput) {
				return fmt.Errorf("%w (pass an exact topic slug; see `scout topics list`)", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.Summary)
			return nil
		},
	}
	run.Flags().StringVar(&topic, "topic", "", "topic slug to scout")
	run.Flags().StringVar(&task, "task", "", "what to look for (default: relevant content)")
	return run
}
