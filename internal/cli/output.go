package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Session:
		o.printSession(v)
	case SessionWithPlayer:
		o.printSessionWithPlayer(v)
	case SessionList:
		o.printSessionList(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
	Score int    `json:"score"`
}

// Session response type
type Session struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	HostID  string   `json:"hostId"`
	Players []Player `json:"players"`
	Phase   string   `json:"phase"`
	Micro   string   `json:"micro"`
}

// SessionWithPlayer is returned by create and join
type SessionWithPlayer struct {
	Session Session `json:"game"`
	Player  Player  `json:"player"`
}

// SessionList response type
type SessionList struct {
	Sessions []Session `json:"games"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printSession(s Session) {
	fmt.Printf("Game: %s", s.ID)
	if s.Name != "" {
		fmt.Printf(" (%s)", s.Name)
	}
	fmt.Println()
	fmt.Printf("Phase: %s\n", s.Phase)
	fmt.Printf("Mini-game: %s\n", s.Micro)
	fmt.Printf("Players (%d):\n", len(s.Players))
	for _, p := range s.Players {
		hostStr := ""
		if p.ID == s.HostID {
			hostStr = " [host]"
		}
		readyStr := ""
		if p.Ready {
			readyStr = " (ready)"
		}
		fmt.Printf("  - %s: %d points%s%s\n", p.Name, p.Score, readyStr, hostStr)
	}
}

func (o *Output) printSessionWithPlayer(s SessionWithPlayer) {
	o.printSession(s.Session)
	fmt.Printf("You are: %s (%s)\n", s.Player.Name, s.Player.ID)
}

func (o *Output) printSessionList(l SessionList) {
	if len(l.Sessions) == 0 {
		fmt.Println("No games found")
		return
	}
	for _, s := range l.Sessions {
		fmt.Printf("%s  %-20s  %-10s  %d players\n", s.ID, s.Name, s.Phase, len(s.Players))
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
