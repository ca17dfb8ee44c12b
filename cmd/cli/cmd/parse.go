package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeheap-analysis/pkg/model"
)

var parseJSON bool

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a heap dump and print its contents",
	Long: `Parse a jemalloc heap_v2 dump and print the decoded profile without
running any analysis. Useful for checking whether a dump is well formed
and for inspecting raw stack and mapping data. The dump may be gzip or
zstd compressed.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	binName := BinName()
	parseCmd.Example = `  # Print the decoded dump
  ` + binName + ` parse ./jeprof.12345.0.f.heap

  # Emit the profile as JSON
  ` + binName + ` parse --json ./jeprof.12345.0.f.heap`

	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "emit the decoded profile as JSON")
}

func runParse(cmd *cobra.Command, args []string) error {
	profile, err := loadDump(args[0])
	if err != nil {
		return err
	}

	if parseJSON {
		out, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode profile: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(out))
		return nil
	}

	printProfile(profile)
	return nil
}

func printProfile(p *model.Profile) {
	fmt.Printf("sampling rate: %d bytes\n", p.SamplingRate)
	fmt.Printf("live: %d bytes in %d objects\n", p.LiveBytes(), p.LiveObjects())

	fmt.Printf("\ntotals (%d threads):\n", len(p.Totals))
	for _, t := range p.Totals {
		printThread(t, "  ")
	}

	fmt.Printf("\nstacks (%d):\n", len(p.Stacks))
	for i, s := range p.Stacks {
		fmt.Printf("  #%d:", i+1)
		for _, addr := range s.Addrs {
			fmt.Printf(" 0x%x", addr)
		}
		fmt.Println()
		for _, t := range s.Threads {
			printThread(t, "    ")
		}
	}

	fmt.Printf("\nmapped libraries (%d):\n", len(p.MappedLibraries))
	for _, m := range p.MappedLibraries {
		fmt.Printf("  %016x-%016x %s\n", m.First, m.Last, m.Path)
	}
}

func printThread(t model.Thread, indent string) {
	fmt.Printf("%st%s: inuse %d/%d alloc %d/%d\n",
		indent, t.ID, t.InuseCount, t.InuseSpace, t.AllocCount, t.AllocSpace)
}
