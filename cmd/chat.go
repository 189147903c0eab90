package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/abhisek/coursekit/internal/chat"
	"github.com/abhisek/coursekit/internal/course"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Manage the Madam JI chat tutor",
}

var chatSetKeyCmd = &cobra.Command{
	Use:   "set-key [key]",
	Short: "Store the chat API key (prompts when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		clear, _ := cmd.Flags().GetBool("clear")
		var key string
		switch {
		case clear:
		case len(args) == 1:
			key = args[0]
		default:
			prompt := promptui.Prompt{
				Label:    "API key",
				Mask:     '*',
				Validate: nonBlank,
			}
			if key, err = prompt.Run(); err != nil {
				return fmt.Errorf("api key: %w", err)
			}
		}

		svc := chat.New(st.KV(), nil, nil)
		if err := svc.SaveKey(cmd.Context(), key); err != nil {
			return err
		}
		if strings.TrimSpace(key) == "" {
			color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "Chat key cleared.")
			return nil
		}
		color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "✓ API key saved. Ask away!")
		return nil
	},
}

var chatShowCmd = &cobra.Command{
	Use:   "show [course]",
	Short: "Print the tutor's system prompt, greeting and quick questions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		courses, err := loadCourses(cfg)
		if err != nil {
			return err
		}
		c := courses[0]
		if len(args) == 1 {
			c = nil
			for _, cc := range courses {
				if cc.ID == args[0] {
					c = cc
				}
			}
			if c == nil {
				return fmt.Errorf("unknown course %q", args[0])
			}
		}
		printAssistant(cmd.OutOrStdout(), c)
		return nil
	},
}

// printAssistant shows what a chat session for c starts with.
func printAssistant(w io.Writer, c *course.Course) {
	a := c.Assistant
	svc := chat.New(nil, nil, nil,
		chat.WithSystemPrompt(a.SystemPrompt), chat.WithGreeting(a.Greeting), chat.WithChips(a.Chips))

	bold := color.New(color.Bold)
	bold.Fprintf(w, "%s\n\n", c.Title)
	bold.Fprintln(w, "System prompt")
	fmt.Fprintf(w, "%s\n\n", svc.SystemPrompt())
	bold.Fprintln(w, "Greeting")
	fmt.Fprintf(w, "%s\n\n", svc.Transcript()[0].Text)
	bold.Fprintln(w, "Quick questions")
	for i, chip := range svc.Chips() {
		fmt.Fprintf(w, "  %d. %s\n", i+1, chip)
	}
}

func init() {
	chatSetKeyCmd.Flags().Bool("clear", false, "Remove the stored key")
	chatCmd.AddCommand(chatSetKeyCmd, chatShowCmd)
}
