package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/juhapellotsalo/agentic-content-scout/internal/agent/core"
	srv "github.com/juhapellotsalo/agentic-content-scout/internal/server"
	"github.com/spf13/cobra"
)

func topicsCMD(cfgPath *string) *cobra.Command {
	var topics = &cobra.Command{
		Use:   "topics",
		Short: "Inspect topics without the assistant",
	}
	topics.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List topic slugs",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, repo, err := loadTopics(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			slugs, err := repo.ListTopics(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), core.FormatTopicList(slugs))
			return nil
		},
	}, &cobra.Command{
		Use:   "show <slug>",
		Short: "Print a topic's preferences and saved links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, repo, err := loadTopics(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			t, err := repo.GetTopic(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("topic %q: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), core.FormatTopic(t))
			return nil
		},
	})
	return topics
}

func hashPasswordCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its bcrypt hash for server.password_hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return err
			}
			hash, err := srv.HashPassword(strings.TrimRight(line, "\r\n"))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
