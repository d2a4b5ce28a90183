package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/tarm/serial"

	"lightcode-go/services/telemetry"
)

var (
	monitorBaud int
	monitorRaw  bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor <port>",
	Short: "Show telemetry from a board over USB serial",
	Long: `Read the JSON telemetry lines a board writes on its serial port and
print them as one-line summaries. The port is reopened with backoff when
the board resets.`,
	Args: cobra.ExactArgs(1),
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().IntVarP(&monitorBaud, "baud", "b", 115200, "baud rate")
	monitorCmd.Flags().BoolVar(&monitorRaw, "raw", false, "print lines undecoded")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	backoff := backoffSeq(250*time.Millisecond, 5*time.Second)
	for {
		port, err := serial.OpenPort(&serial.Config{
			Name:        args[0],
			Baud:        monitorBaud,
			ReadTimeout: 500 * time.Millisecond,
		})
		if err != nil {
			delay := backoff()
			fmt.Fprintf(cmd.ErrOrStderr(), "open %s: %v (retry in %s)\n", args[0], err, delay)
			if !sleep(ctx, delay) {
				return nil
			}
			continue
		}
		backoff = backoffSeq(250*time.Millisecond, 5*time.Second)
		err = monitorStream(ctx, port, out, monitorRaw)
		_ = port.Close()
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "link lost: %v\n", err)
	}
}

// monitorStream prints lines from r until ctx is done or r fails. io.EOF
// is a read timeout on a serial port and does not end the stream.
func monitorStream(ctx context.Context, r io.Reader, out io.Writer, raw bool) error {
	var pending []byte
	buf := make([]byte, 256)
	for ctx.Err() == nil {
		n, err := r.Read(buf)
		pending = append(pending, buf[:n]...)
		for {
			i := bytes.IndexByte(pending, '\n')
			if i < 0 {
				break
			}
			printLine(out, bytes.TrimSpace(pending[:i]), raw)
			pending = pending[i+1:]
		}
		if len(pending) > 4096 {
			pending = pending[:0]
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}
	return ctx.Err()
}

func printLine(out io.Writer, line []byte, raw bool) {
	if len(line) == 0 {
		return
	}
	if raw || line[0] != '{' {
		fmt.Fprintf(out, "%s\n", line)
		return
	}
	topic, v, err := telemetry.Decode(line)
	if err != nil {
		fmt.Fprintf(out, "?? %s\n", line)
		return
	}
	fmt.Fprintf(out, "%-18s %s\n", topic, telemetry.Summary(v))
}

func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	cur := min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
