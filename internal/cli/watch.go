package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "watch <id> <player-name>",
		Short: "Join a game over websocket and stream its events",
		Long: `Connect to the server's websocket endpoint, join the given game as a new
player, and print every event the session broadcasts.

Events include:
  - PLAYER_JOINED: roster changed
  - PLAYER_IS_READY: a player readied up
  - SET_PLAYER_SCORE: a round score came in
  - MOVE_TO_SCOREBOARD / MOVE_TO_GAME / MOVE_TO_RESULTS: phase changes

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchSession(args[0], args[1], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// wireEvent is a decoded event frame
type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func watchSession(sessionID, playerName string, jsonOutput bool) error {
	url := websocketURL(cfg.ServerURL)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Join the game so the server routes its broadcasts here
	join := map[string]any{
		"event": "JOIN_GAME",
		"payload": map[string]string{
			"sessionId":  sessionID,
			"playerName": playerName,
		},
	}
	if err := conn.WriteJSON(join); err != nil {
		return fmt.Errorf("join failed: %w", err)
	}

	// Handle interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		_ = conn.Close()
	}()

	if !jsonOutput {
		fmt.Printf("Watching game %s as %s\n", sessionID, playerName)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// Interrupt closes the connection under us
			if ctx.Err() != nil {
				if !jsonOutput {
					fmt.Println("\nDisconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		printWireEvent(data, jsonOutput)
	}
}

func printWireEvent(data []byte, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(string(data))
		return
	}

	var evt wireEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		fmt.Println(string(data))
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	display := string(evt.Data)
	if len(display) > 100 {
		display = display[:100] + "..."
	}
	fmt.Printf("[%s] %s: %s\n", timestamp, evt.Event, display)
}

// websocketURL converts the configured HTTP base URL to the ws endpoint
func websocketURL(serverURL string) string {
	url := strings.TrimSuffix(serverURL, "/")
	if strings.HasPrefix(url, "https://") {
		url = "wss://" + strings.TrimPrefix(url, "https://")
	} else {
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + "/ws"
}
