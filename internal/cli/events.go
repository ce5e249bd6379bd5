package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream live events from a broadcast channel",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "room <room-id>",
		Short: "Stream room events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents(fmt.Sprintf("/ws/rooms/%s", args[0]))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "team <team-id>",
		Short: "Stream team events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents(fmt.Sprintf("/ws/teams/%s", args[0]))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "user <display-name>",
		Short: "Stream duel invitations for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents(fmt.Sprintf("/ws/users/%s", args[0]))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "global",
		Short: "Stream global counter updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents("/ws/global")
		},
	})

	return cmd
}

// wsEnvelope mirrors the gateway's wire frame
type wsEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func streamEvents(path string) error {
	wsURL := strings.Replace(client.BaseURL(), "http", "ws", 1) + path

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = conn.Close()
	}()

	fmt.Fprintf(os.Stderr, "streaming %s (ctrl-c to stop)\n", path)
	for {
		var env wsEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			return nil
		}
		line, _ := json.Marshal(env)
		fmt.Println(string(line))
	}
}
