package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/memoriahq/memoria-go/internal/bus"
	"github.com/memoriahq/memoria-go/internal/metrics"
	"github.com/memoriahq/memoria-go/internal/timeline"
	"github.com/memoriahq/memoria-go/internal/tui"
)

var (
	chatAgentMode  bool
	chatNewSession bool
	chatOpenCited  bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the memory assistant",
	Long: `Chat with the assistant over your memories.

With a message argument, sends one message and streams the reply. Without
arguments, starts an interactive loop. The active session is remembered
between runs.

Examples:
  memoria chat "what did I do last weekend?"
  memoria chat "when was the beach trip?" --open
  memoria chat --new --agent`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatAgentMode, "agent", false, "enable agent mode for this session")
	chatCmd.Flags().BoolVar(&chatNewSession, "new", false, "start a new session")
	chatCmd.Flags().BoolVar(&chatOpenCited, "open", false, "open the timeline on the first cited memory")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	agentMode := chatAgentMode || prefsStore.AgentMode()

	sessionID := prefsStore.SessionID()
	if chatNewSession || sessionID == "" {
		session, err := apiClient.CreateSession(ctx, "memoria cli", agentMode)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		sessionID = session.ID
		if err := prefsStore.SetSessionID(sessionID); err != nil {
			return fmt.Errorf("remember session: %w", err)
		}
	}

	send := func(message string) ([]string, error) {
		start := time.Now()
		memoryIDs, err := apiClient.ChatStream(ctx, sessionID, message, agentMode, func(delta string) error {
			fmt.Print(delta)
			return nil
		})
		collector.RecordTiming(metrics.OpChat, time.Since(start))
		fmt.Println()
		if err != nil {
			return nil, err
		}
		if verbose && len(memoryIDs) > 0 {
			fmt.Printf("(cited memories: %s)\n", strings.Join(memoryIDs, ", "))
		}
		return memoryIDs, nil
	}

	if len(args) > 0 {
		memoryIDs, err := send(strings.Join(args, " "))
		if err != nil {
			return err
		}
		if chatOpenCited && len(memoryIDs) > 0 {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				fmt.Printf("Cited memories: %s\n", strings.Join(memoryIDs, ", "))
				return nil
			}
			return openCitedMemory(ctx, memoryIDs[0])
		}
		return nil
	}

	// Interactive loop.
	fmt.Println("Chatting with your memories. Empty line or Ctrl+D to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		if _, err := send(line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return scanner.Err()
}

// openCitedMemory publishes a focus request for a cited memory and opens
// the timeline browser on it. The item's captured time, when available,
// navigates the anchor to the right day so the pending focus can resolve.
func openCitedMemory(ctx context.Context, id string) error {
	req := bus.FocusRequest{ItemID: id}
	if detail, err := apiClient.ItemDetail(ctx, id); err == nil && detail.CapturedAt != nil {
		req.Date = string(timeline.NewDateKey(*detail.CapturedAt, loc))
	}

	ctrl := timeline.NewController(apiClient, loc, logger, collector)
	unsubscribe := focusBus.Subscribe(ctrl.HandleFocus)
	focusBus.Publish(req)
	unsubscribe()

	return tui.RunBrowser(ctrl, focusBus)
}
