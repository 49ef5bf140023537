package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ernie/skin-inspect/internal/assets"
	"github.com/ernie/skin-inspect/internal/identity"
	"github.com/ernie/skin-inspect/internal/pipeline"
)

var (
	flagPaint    int
	flagSeed     int
	flagWear     float64
	flagImageURL string
	flagFormat   string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <full item name>",
	Short: "Resolve one item into a render material",
	Example: `  skininspect resolve "StatTrak™ AK-47 | Redline (Field-Tested)" --paint 282 --wear 0.25
  skininspect resolve "★ Karambit | Doppler (Factory New)" --image https://cdn.example.com/karambit_phase2.png`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Resolve items read as JSON lines from stdin; each new item supersedes the last",
	Long: `watch reads one inspect result per line from stdin, for example

  {"market_hash_name":"AWP | Asiimov (Field-Tested)","paintindex":279,"paintseed":12,"floatvalue":0.21}

Each line starts a new resolution and abandons the one still in flight, so
only the most recent item is ever printed.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates <full item name>",
	Short: "Show the mesh, pattern and file search lists for an item without fetching",
	Args:  cobra.ExactArgs(1),
	RunE:  runCandidates,
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize <full item name>...",
	Short: "Print the normalized identity of item names",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNormalize,
}

var parseCmd = &cobra.Command{
	Use:   "parse <definition file>",
	Short: "Parse a local material definition file",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	for _, c := range []*cobra.Command{resolveCmd, candidatesCmd} {
		c.Flags().IntVarP(&flagPaint, "paint", "p", -1, "Paint index (negative means unknown)")
		c.Flags().StringVar(&flagImageURL, "image", "", "Item image URL, used to detect finish variants")
	}
	resolveCmd.Flags().IntVar(&flagSeed, "seed", 0, "Paint seed")
	resolveCmd.Flags().Float64VarP(&flagWear, "wear", "w", 0, "Wear value in [0,1]")
	parseCmd.Flags().StringVarP(&flagFormat, "format", "f", "", "Dialect: vmat or vmt (default: from file extension)")

	rootCmd.AddCommand(resolveCmd, watchCmd, candidatesCmd, normalizeCmd, parseCmd)
}

func descriptorFromFlags(name string) identity.ItemDescriptor {
	desc := identity.ItemDescriptor{
		FullName:  name,
		PaintSeed: flagSeed,
		Wear:      flagWear,
		ImageURL:  flagImageURL,
	}
	if flagPaint >= 0 {
		paint := flagPaint
		desc.PaintIndex = &paint
	}
	return desc
}

func runResolve(cmd *cobra.Command, args []string) error {
	r, closeFn, err := newResolver(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	m, err := r.Resolve(ctx, descriptorFromFlags(args[0]))
	if err != nil {
		return fmt.Errorf("resolve %q: %w", args[0], err)
	}
	return printMaterial(cmd.OutOrStdout(), m)
}

func runWatch(cmd *cobra.Command, args []string) error {
	r, closeFn, err := newResolver(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	var outMu sync.Mutex
	in := pipeline.NewInspector(r, pipeline.SinkFunc(func(m *pipeline.ResolvedRenderMaterial) {
		outMu.Lock()
		defer outMu.Unlock()
		if err := printMaterial(out, m); err != nil {
			log.Printf("Warning: print: %v", err)
		}
	}))

	var wg sync.WaitGroup
	scanner := bufio.NewScanner(cmd.InOrStdin())
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var desc identity.ItemDescriptor
		if err := json.Unmarshal([]byte(line), &desc); err != nil {
			log.Printf("Warning: line %d: %v", lineNo, err)
			continue
		}
		// The request takes its place in line here, in read order.
		req := in.Begin(ctx)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := req.Run(desc)
			if err != nil && !errors.Is(err, pipeline.ErrSuperseded) && !errors.Is(err, context.Canceled) {
				log.Printf("Inspect %q: %v", desc.FullName, err)
			}
		}()
	}
	wg.Wait()
	return scanner.Err()
}

func runCandidates(cmd *cobra.Command, args []string) error {
	r, err := newPlanner(cmd)
	if err != nil {
		return err
	}
	plan, err := r.Plan(descriptorFromFlags(args[0]))
	if err != nil {
		return fmt.Errorf("plan %q: %w", args[0], err)
	}
	return printPlan(cmd.OutOrStdout(), plan)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	pretty := wantPretty(out)
	for _, name := range args {
		id := identity.Normalize(name)
		if pretty {
			fmt.Fprintf(out, "%-48s weapon=%-14s skin=%-20s variant=%s\n", name, id.WeaponKey, id.SkinKey, id.Variant)
			continue
		}
		if err := writeJSON(out, map[string]any{"name": name, "identity": id}); err != nil {
			return err
		}
	}
	return nil
}

func runParse(cmd *cobra.Command, args []string) error {
	format := assets.FormatForPath(args[0])
	switch strings.ToLower(flagFormat) {
	case "":
	case "vmat":
		format = assets.FormatPrimary
	case "vmt":
		format = assets.FormatCompact
	default:
		return fmt.Errorf("unknown format %q (want vmat or vmt)", flagFormat)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	def, err := assets.ParseDefinition(f, format)
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}
	return printDefinition(cmd.OutOrStdout(), args[0], def)
}
