package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	errColor  = color.New(color.FgRed)
	nameColor = color.New(color.FgCyan, color.Bold)
)

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <tool> [json-args]",
		Short: "Invoke a single tool and print its result",
		Long:  "Invoke one tool with JSON arguments and print the result string. Arguments default to {} and may also be piped on stdin when '-' is given.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, store, err := setup()
			if err != nil {
				return err
			}
			defer store.Close()

			name := args[0]
			if !reg.Has(name) {
				return fmt.Errorf("unknown tool %q (see 'toolbelt tools')", name)
			}

			raw := "{}"
			if len(args) == 2 {
				raw = args[1]
			}
			if raw == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read args from stdin: %w", err)
				}
				raw = string(data)
			}
			if !json.Valid([]byte(raw)) {
				return fmt.Errorf("arguments are not valid JSON: %s", raw)
			}

			out := reg.Run(cmd.Context(), name, json.RawMessage(raw))
			printResult(cmd.OutOrStdout(), out)
			return nil
		},
	}
	return cmd
}

// serveRequest/serveResponse 是一行一个请求的 stdin 协议。
// serveRequest/serveResponse form the one-request-per-line stdin protocol.
type serveRequest struct {
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args"`
}

type serveResponse struct {
	Tool   string `json:"tool"`
	Output string `json:"output"`
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Read tool invocations from stdin, one JSON object per line",
		Long:  "Read {\"tool\": ..., \"args\": {...}} objects from stdin, one per line, and write {\"tool\": ..., \"output\": ...} responses to stdout. Malformed lines produce an Error output, never a crash.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, store, err := setup()
			if err != nil {
				return err
			}
			defer store.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				var req serveRequest
				if err := json.Unmarshal([]byte(line), &req); err != nil {
					resp := serveResponse{Output: fmt.Sprintf("Error: invalid request line: %v", err)}
					if err := enc.Encode(resp); err != nil {
						return err
					}
					continue
				}
				args := req.Args
				if len(args) == 0 {
					args = json.RawMessage("{}")
				}
				resp := serveResponse{
					Tool:   req.Tool,
					Output: reg.Run(cmd.Context(), req.Tool, args),
				}
				if err := enc.Encode(resp); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}
}

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List available tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, store, err := setup()
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			for _, def := range reg.Definitions() {
				fmt.Fprintf(w, "%s\n    %s\n", nameColor.Sprint(def.Name), def.Description)
			}
			return nil
		},
	}
}

func printResult(w io.Writer, out string) {
	if strings.HasPrefix(out, "Error: ") {
		fmt.Fprintln(w, errColor.Sprint(out))
		return
	}
	fmt.Fprintln(w, out)
}
