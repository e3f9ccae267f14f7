// Command ctxlayout prints the task.Context field offsets that the
// context switch routine relies on, either as a table or as assembler
// #defines.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"flint/flintos/task"
)

func main() {
	var format string
	flag.StringVar(&format, "format", "table", "Output format: table or asm.")
	flag.Parse()

	if err := run(os.Stdout, format); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func run(w io.Writer, format string) error {
	fields := task.Layout()
	switch format {
	case "table":
		return writeTable(w, fields)
	case "asm":
		return writeAsm(w, fields)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeTable(w io.Writer, fields []task.Field) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tOFFSET\tSIZE")
	for _, f := range fields {
		fmt.Fprintf(tw, "%s\t%#04x\t%d\n", f.Name, f.Offset, f.Size)
	}
	fmt.Fprintf(tw, "total\t%#04x\t\n", task.ContextSize)
	return tw.Flush()
}

func writeAsm(w io.Writer, fields []task.Field) error {
	for _, f := range fields {
		if _, err := fmt.Fprintf(w, "#define CTX_%s 0x%x\n", strings.ToUpper(f.Name), f.Offset); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "#define CTX_SIZE 0x%x\n", task.ContextSize)
	return err
}
