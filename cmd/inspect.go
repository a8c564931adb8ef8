package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/qdx-converter/internal/parser"
	"github.com/ginjaninja78/qdx-converter/internal/qdx"
)

var (
	inspectFile  string
	inspectLimit int
)

// inspectCmd prints one line per slot: its opcode bytes, the handler the
// dispatch table picks, the session key and the tail timestamp.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Dump the slot headers of a QDX log",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectFile, "file", "", "QDX log to inspect (required)")
	inspectCmd.Flags().IntVar(&inspectLimit, "limit", 0, "Stop after this many slots (0 = all)")
	inspectCmd.MarkFlagRequired("file")
}

func runInspect(cmd *cobra.Command) error {
	mainConfig, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}
	opts, err := mainConfig.Parser.Options()
	if err != nil {
		return err
	}
	log, err := newLogger(mainConfig)
	if err != nil {
		return err
	}
	defer log.Sync()
	opts.Logger = log

	f, err := os.Open(inspectFile)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tOP\tHANDLER\tSESSION\tTIME")

	var p *parser.Parser
	index := 0
	opts.RawRecordHook = func(slot []byte, tail *qdx.Tail) {
		var when string
		if ts, err := tail.Time(); err == nil {
			when = ts.Format("2006-01-02 15:04:05")
		} else {
			when = "invalid " + bcdString(tail.DateTime.Digits())
		}
		fmt.Fprintf(tw, "%d\t%02X %02X\t%s\t%s\t%s\n",
			index, slot[0], slot[1], opts.Table.Lookup(slot), tail.SessionID(), when)

		index++
		if inspectLimit > 0 && index >= inspectLimit {
			p.Stop()
		}
	}
	p = parser.New(opts)

	stats, err := p.Parse(cmd.Context(), f, nil)
	tw.Flush()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nslots %d, ignored %d, malformed %d, tickets %d, rejected %d, unfinished %d\n",
		stats.Slots, stats.Ignored, stats.Malformed, stats.Emitted, stats.RejectedTotal(), stats.Pending)
	if stats.TrailingBytes > 0 {
		fmt.Fprintf(out, "trailing partial slot: %d bytes\n", stats.TrailingBytes)
	}
	return nil
}

// bcdString renders raw BCD nibbles; values above 9 show as hex.
func bcdString(digits [12]uint8) string {
	var b strings.Builder
	for _, d := range digits {
		fmt.Fprintf(&b, "%X", d)
	}
	return b.String()
}
