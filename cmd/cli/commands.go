package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	listSource string
	listSearch string

	replayTargetURL      string
	replayTargetName     string
	replayIncludeHeaders bool
	replayHeaders        []string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List captured events, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := api.ListEvents(cmd.Context(), listSource, listSearch)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), events)
		}
		if len(events) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No events captured.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSOURCE\tMETHOD\tPATH\tRECEIVED\tREPLAYS")
		for _, ev := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
				ev.ID, ev.Source, ev.Method, ev.Path, ev.CreatedAt.Local().Format(time.DateTime), len(ev.ReplayHistory))
		}
		return w.Flush()
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one captured event with its replay history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := api.GetEvent(cmd.Context(), args[0])
		if isNotFound(err) {
			return fmt.Errorf("event %s not found (it may have been evicted)", args[0])
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), ev)
		}
		printEvent(cmd.OutOrStdout(), ev)
		return nil
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay <id>",
	Short: "Resend a captured event to a URL or a configured target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		headers, err := parseHeaders(replayHeaders)
		if err != nil {
			return err
		}
		outcome, err := api.Replay(cmd.Context(), args[0], replayRequest{
			TargetURL:              replayTargetURL,
			Target:                 replayTargetName,
			IncludeOriginalHeaders: replayIncludeHeaders,
			AdditionalHeaders:      headers,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), outcome)
		}

		result := "✓"
		if !outcome.OK {
			result = "✗"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d from %s in %dms\n", result, outcome.StatusCode, outcome.TargetURL, outcome.DurationMs)
		if outcome.Body != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", outcome.Body)
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard every captured event",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All events cleared.")
		return nil
	},
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the replay targets the server has configured",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := api.Targets(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), targets)
		}
		if len(targets) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No targets configured.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tURL\tSIGNED\tHEADERS")
		for _, t := range targets {
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", t.Name, t.URL, t.Signed, strings.Join(t.HeaderNames, ","))
		}
		return w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := api.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), stats)
	},
}

func init() {
	listCmd.Flags().StringVar(&listSource, "source", "", "only events from this source")
	listCmd.Flags().StringVar(&listSearch, "search", "", "case-insensitive text search")

	replayCmd.Flags().StringVar(&replayTargetURL, "target-url", "", "absolute http(s) URL to replay to")
	replayCmd.Flags().StringVar(&replayTargetName, "target", "", "name of a configured target")
	replayCmd.Flags().BoolVar(&replayIncludeHeaders, "include-headers", false, "forward the captured headers")
	replayCmd.Flags().StringArrayVar(&replayHeaders, "header", nil, "extra header as name=value (repeatable)")
	replayCmd.MarkFlagsOneRequired("target-url", "target")
}

// parseHeaders turns name=value pairs into a header map
func parseHeaders(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q (expected name=value)", pair)
		}
		headers[name] = value
	}
	return headers, nil
}

func printEvent(w io.Writer, ev webhookEvent) {
	fmt.Fprintf(w, "ID:       %s\n", ev.ID)
	fmt.Fprintf(w, "Source:   %s\n", ev.Source)
	fmt.Fprintf(w, "Received: %s\n", ev.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "Request:  %s %s\n", ev.Method, ev.Path)
	if ev.EventType != "" {
		fmt.Fprintf(w, "Type:     %s\n", ev.EventType)
	}

	if len(ev.Query) > 0 {
		fmt.Fprintln(w, "\nQuery:")
		for _, k := range sortedKeys(ev.Query) {
			fmt.Fprintf(w, "  %s=%s\n", k, ev.Query[k])
		}
	}

	fmt.Fprintln(w, "\nHeaders:")
	for _, k := range sortedKeys(ev.Headers) {
		fmt.Fprintf(w, "  %s: %s\n", k, ev.Headers[k])
	}

	if ev.Body != nil {
		fmt.Fprintf(w, "\nBody:\n%s\n", *ev.Body)
	}

	if len(ev.ReplayHistory) > 0 {
		fmt.Fprintln(w, "\nReplays (newest first):")
		for _, r := range ev.ReplayHistory {
			fmt.Fprintf(w, "  %s  %d  ok=%t  %dms  %s\n",
				r.ReplayedAt.Local().Format(time.DateTime), r.StatusCode, r.OK, r.DurationMs, r.TargetURL)
		}
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
