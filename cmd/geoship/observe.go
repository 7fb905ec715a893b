package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/geoship/internal/adapters/observe"
)

func newObserveCommand() *cobra.Command {
	var (
		addr    string
		useCBOR bool
	)

	cmd := &cobra.Command{
		Use:   "observe",
		Short: "Follow a running agent's status lines",
		Long: strings.TrimSpace(`
Connect to a running agent, print its buffered status lines, then print
new lines as they happen until the agent stops or you interrupt.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			url := addr
			if useCBOR {
				url = withQuery(url, "encoding=cbor")
			}

			out := cmd.OutOrStdout()
			err := observe.Watch(ctx, url, func(m observe.Message) {
				switch m.Type {
				case observe.TypeLogRing:
					for _, e := range m.Entries {
						fmt.Fprintf(out, "%s  %s\n", e.Timestamp.Local().Format(time.DateTime), e.Text)
					}
				case observe.TypeLog:
					fmt.Fprintf(out, "%s  %s\n", time.Now().Format(time.DateTime), m.Text)
				case observe.TypeShutdown:
					fmt.Fprintln(out, "-- agent stopped")
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "ws://127.0.0.1:8765/ws", "agent websocket URL")
	cmd.Flags().BoolVar(&useCBOR, "cbor", false, "request CBOR frames instead of JSON")
	return cmd
}

func withQuery(url, q string) string {
	if strings.Contains(url, "?") {
		return url + "&" + q
	}
	return url + "?" + q
}
