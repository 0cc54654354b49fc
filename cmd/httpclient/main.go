package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"httpwire/internal/client"
	"httpwire/internal/request"
)

func main() {
	var (
		port    int
		timeout time.Duration
		verbose bool
	)

	cmd := &cobra.Command{
		Use:          "httpclient <host> [target]",
		Short:        "Send one GET request and print the response",
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			host := args[0]
			target := "/"
			if len(args) == 2 {
				target = args[1]
			}

			log := zap.NewNop()
			if verbose {
				var err error
				if log, err = zap.NewDevelopment(); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			req := request.New(request.MethodGet, target)
			req.Headers.Set("host", host)

			c := client.New(client.WithLogger(log), client.WithPort(port))
			resp, err := c.Send(ctx, host, req)
			if err != nil {
				return err
			}

			fmt.Printf("HTTP/%s %d %s\n", resp.StatusLine.Version, resp.StatusLine.Code, resp.StatusLine.Code.Reason())
			var sb strings.Builder
			_ = resp.Headers.WriteTo(&sb)
			fmt.Print(sb.String())
			fmt.Println(string(resp.Body))
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 80, "destination port")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall deadline")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log failed dial attempts")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
