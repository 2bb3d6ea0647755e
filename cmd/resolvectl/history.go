package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"stream-resolver/internal/domain"
)

var historyCmd = &cobra.Command{
	Use:   "history-check [file]",
	Short: "Validate exported history records (a JSON object or array; stdin when no file)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  historyCheckRun,
}

func historyCheckRun(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	records, err := splitRecords(data)
	if err != nil {
		return err
	}

	var invalid int
	for i, raw := range records {
		item, err := domain.DecodeHistoryItem(raw)
		if err != nil {
			invalid++
			fmt.Fprintf(cmd.OutOrStdout(), "#%d  invalid  %v\n", i, err)
			continue
		}
		h := item.Header()
		fmt.Fprintf(cmd.OutOrStdout(), "#%d  %-6s   %s  %s (%s)\n", i, item.Kind(), h.ID, h.Name, h.Provider)
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d records invalid", invalid, len(records))
	}
	return nil
}

// splitRecords accepts a single object or an array of objects.
func splitRecords(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidHistoryItem, err)
		}
		return records, nil
	}
	return []json.RawMessage{trimmed}, nil
}
