package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read or change preferences",
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show preference values",
	Long: `Show one preference, or all of them.

Keys: session, agent-mode, timezone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a preference value",
	Long: `Change a preference value.

Examples:
  memoria config set timezone America/Los_Angeles
  memoria config set agent-mode true`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var integrationsCmd = &cobra.Command{
	Use:   "integrations",
	Short: "Show connected external sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		statuses, err := apiClient.IntegrationsStatus(cmd.Context())
		if err != nil {
			return err
		}
		if len(statuses) == 0 {
			fmt.Println("No integrations configured.")
			return nil
		}
		for _, s := range statuses {
			state := "disconnected"
			if s.Connected {
				state = "connected"
			}
			fmt.Printf("%-16s %s", s.Name, state)
			if s.LastSyncAt != nil {
				fmt.Printf(" (last sync %s)", s.LastSyncAt.In(loc).Format(time.RFC1123))
			}
			if s.Error != nil {
				fmt.Printf(" error: %s", *s.Error)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(integrationsCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	show := func(key string) error {
		switch key {
		case "session":
			fmt.Println(prefsStore.SessionID())
		case "agent-mode":
			fmt.Println(prefsStore.AgentMode())
		case "timezone":
			tz := prefsStore.Timezone()
			if tz == "" {
				tz = "(system)"
			}
			fmt.Println(tz)
		default:
			return fmt.Errorf("unknown preference %q", key)
		}
		return nil
	}

	if len(args) == 1 {
		return show(args[0])
	}
	for _, key := range []string{"session", "agent-mode", "timezone"} {
		fmt.Printf("%-12s ", key+":")
		if err := show(key); err != nil {
			return err
		}
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	switch key {
	case "session":
		return prefsStore.SetSessionID(value)
	case "agent-mode":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("agent-mode wants true/false: %w", err)
		}
		return prefsStore.SetAgentMode(on)
	case "timezone":
		if value != "" {
			if _, err := time.LoadLocation(value); err != nil {
				return fmt.Errorf("unknown time zone %q: %w", value, err)
			}
		}
		return prefsStore.SetTimezone(value)
	default:
		return fmt.Errorf("unknown preference %q", key)
	}
}
