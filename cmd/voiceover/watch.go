package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/voiceover/domain/entities"
	ws "github.com/satriahrh/voiceover/internal/websocket"
)

type watchOptions struct {
	server  string
	token   string
	timeout time.Duration
}

var watchOpts watchOptions

var watchCmd = &cobra.Command{
	Use:   "watch [run-id]",
	Short: "Follow the progress of a generation run on a server",
	Long: `Watch connects to the progress websocket of a running server and prints
each slide as it settles. Without a run id the server's current run is followed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchOpts.server, "server", "http://localhost:8080", "Server base URL")
	watchCmd.Flags().StringVar(&watchOpts.token, "token", "", "Operator token when the server requires one")
	watchCmd.Flags().DurationVar(&watchOpts.timeout, "timeout", 10*time.Minute, "Give up after this long without completion")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	runID := ""
	if len(args) > 0 {
		runID = args[0]
	}
	return watchRun(cmd, watchOpts, runID)
}

func watchRun(cmd *cobra.Command, opts watchOptions, runID string) error {
	out := cmd.OutOrStdout()

	if runID == "" {
		current, err := fetchCurrentRun(opts)
		if err != nil {
			return err
		}
		runID = current.ID
	}

	wsURL, err := progressURL(opts, runID)
	if err != nil {
		return err
	}
	logger.Debug("Connecting to progress stream", zap.String("url", wsURL))

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket connection failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket connection failed: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(opts.timeout)
	reported := 0
	for {
		conn.SetReadDeadline(deadline)
		var msg ws.RunMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("failed to read progress: %w", err)
		}

		if msg.Run == nil {
			continue
		}
		if msg.Type == ws.MessageTypeRunSnapshot {
			fmt.Fprintf(out, "Run %s: %d slides, voice %s\n", msg.RunID, msg.Total, msg.Run.Voice)
		}
		reported = reportProgress(out, msg.Run, reported)

		if msg.Type == ws.MessageTypeRunCompleted {
			fmt.Fprintf(out, "Completed: %d of %d slides generated\n", msg.Total-msg.Failed, msg.Total)
			return nil
		}
	}
}

// progressURL turns the server base URL into the websocket URL of a run
func progressURL(opts watchOptions, runID string) (string, error) {
	u, err := url.Parse(opts.server)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/runs/" + url.PathEscape(runID)

	if opts.token != "" {
		q := u.Query()
		q.Set("token", opts.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func fetchCurrentRun(opts watchOptions) (*entities.Run, error) {
	req, err := http.NewRequest(http.MethodGet, strings.TrimRight(opts.server, "/")+"/api/v1/runs/current", nil)
	if err != nil {
		return nil, err
	}
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current run: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("failed to fetch current run: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var run entities.Run
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to decode run: %w", err)
	}
	return &run, nil
}
