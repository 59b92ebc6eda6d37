package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GoPolymarket/schemascope/internal/model"
	"github.com/GoPolymarket/schemascope/internal/repository"
	"github.com/GoPolymarket/schemascope/internal/service"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	serverAddr string
	debugKey   string
	pretty     bool
	method     string
	minStatus  int
)

var rootCmd = &cobra.Command{
	Use:   "schemascope-tail",
	Short: "Follow diagnostic records from a running schemascope server",
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "Indent records")
	rootCmd.PersistentFlags().StringVar(&method, "method", "", "Only show records for this HTTP method")
	rootCmd.PersistentFlags().IntVar(&minStatus, "min-status", 0, "Only show records with at least this status")
}

func main() {
	rootCmd.AddCommand(newStreamCmd())
	rootCmd.AddCommand(newRedisCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newStreamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Follow records live over the debug websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return stream(ctx)
		},
	}
	cmd.Flags().StringVar(&serverAddr, "addr", "http://localhost:3000", "Server base URL")
	cmd.Flags().StringVar(&debugKey, "key", os.Getenv("SCHEMASCOPE_DEBUG_KEY"), "Value for the X-Debug-Key header")
	return cmd
}

func newRedisCmd() *cobra.Command {
	var (
		addr    string
		listKey string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "redis",
		Short: "Print the newest records kept in the redis list",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := redis.NewClient(&redis.Options{Addr: addr})
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			items, err := repository.NewRedisSink(client, listKey, 0, 0).Recent(ctx, limit)
			if err != nil {
				return fmt.Errorf("read %s: %w", listKey, err)
			}
			// Oldest first, like a log.
			for i := len(items) - 1; i >= 0; i-- {
				var rec model.DiagnosticRecord
				if err := json.Unmarshal([]byte(items[i]), &rec); err != nil {
					continue
				}
				if err := printRecord(rec); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "redis-addr", "localhost:6379", "Redis address")
	cmd.Flags().StringVar(&listKey, "list-key", "schemascope:diagnostics", "Redis list holding records")
	cmd.Flags().IntVar(&limit, "limit", 50, "Number of records to print")
	return cmd
}

func stream(ctx context.Context) error {
	u, err := url.Parse(strings.TrimRight(serverAddr, "/") + "/debug/diagnostics/stream")
	if err != nil {
		return fmt.Errorf("invalid --addr: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	header := http.Header{}
	if debugKey != "" {
		header.Set("X-Debug-Key", debugKey)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %d)", u, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", u, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	fmt.Fprintf(os.Stderr, "following %s\n", u)
	for {
		var rec model.DiagnosticRecord
		if err := conn.ReadJSON(&rec); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if err := printRecord(rec); err != nil {
			return err
		}
	}
}

func printRecord(rec model.DiagnosticRecord) error {
	if method != "" && !strings.EqualFold(method, rec.Method) {
		return nil
	}
	if rec.Status < minStatus {
		return nil
	}
	text, err := service.Encode(rec, pretty)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}
