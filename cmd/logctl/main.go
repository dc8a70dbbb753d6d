// cmd/logctl is the CLI entry-point built with Cobra.
//
// Usage:
//
//	logctl send "hello world"          --server http://localhost:8080
//	logctl send "hello world" --w 2    --server http://localhost:8080
//	logctl logs                        --server http://localhost:8080
//	logctl health                      --server http://localhost:8080
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/you/replicatedlog/internal/client"
)

var (
	serverAddr string
	timeout    time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "logctl",
		Short: "CLI client for a replicated log node",
	}

	root.PersistentFlags().StringVarP(&serverAddr, "server", "s",
		"http://localhost:8080", "Node address")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second,
		"HTTP request timeout")

	root.AddCommand(sendCmd(), logsCmd(), healthCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ─── send ─────────────────────────────────────────────────────────────────

func sendCmd() *cobra.Command {
	var w int
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Append a message to the log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(serverAddr, timeout)
			resp, err := c.Send(context.Background(), args[0], w)
			if err != nil {
				return err
			}
			prettyPrint(resp)
			return nil
		},
	}
	cmd.Flags().IntVar(&w, "w", 1, "Write concern: number of acks to wait for before returning")
	return cmd
}

// ─── logs ─────────────────────────────────────────────────────────────────

func logsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Print the node's current log",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(serverAddr, timeout)
			resp, err := c.Logs(context.Background())
			if err != nil {
				return err
			}
			prettyPrint(resp)
			return nil
		},
	}
}

// ─── health ───────────────────────────────────────────────────────────────

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Print the node's health status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(serverAddr, timeout)
			resp, err := c.Health(context.Background())
			if err != nil {
				return err
			}
			fmt.Println(resp)
			return nil
		},
	}
}

// ─── helpers ──────────────────────────────────────────────────────────────

func prettyPrint(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(data))
}
