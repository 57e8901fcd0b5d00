// Command analyze runs the market-structure pipeline over a CSV candle
// file and prints the detected artifacts.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"smc-analyzer/internal/analysis"
	"smc-analyzer/internal/market"
)

func main() {
	godotenv.Load()

	var (
		file      = flag.String("file", "", "CSV candle file: time,open,high,low,close,volume")
		symbol    = flag.String("symbol", "UNKNOWN", "instrument symbol")
		timeframe = flag.String("timeframe", "1h", "timeframe of the series")
		wick      = flag.Bool("wick", false, "break structure on wicks instead of closes")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze -file candles.csv [-symbol EURUSD] [-timeframe 1h]")
		os.Exit(1)
	}

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening %s: %v\n", *file, err)
		os.Exit(1)
	}
	defer f.Close()

	candles, err := market.ReadCSV(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parsing candles: %v\n", err)
		os.Exit(1)
	}

	tf := market.Timeframe(*timeframe)
	cfg := analysis.DefaultConfig(tf)
	cfg.BreakOnWick = *wick

	pipeline, err := analysis.NewPipeline(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building pipeline: %v\n", err)
		os.Exit(1)
	}

	snap := pipeline.Analyze(*symbol, tf, candles, nil)

	fmt.Printf("%s %s: %d candles\n\n", snap.Symbol, snap.Timeframe, len(candles))

	fmt.Printf("Swings (%d):\n", len(snap.Swings))
	for _, s := range snap.Swings {
		role := string(s.Role)
		if role == "" {
			role = "-"
		}
		fmt.Printf("  [%4d] %-4s %-2s %.5f\n", s.Index, s.Kind, role, s.Price)
	}

	fmt.Printf("\nStructure events (%d):\n", len(snap.Events))
	for _, ev := range snap.Events {
		fmt.Printf("  [%4d] %s\n", ev.BreakIndex, ev.Description)
	}

	fmt.Printf("\nOrder blocks (%d):\n", len(snap.OrderBlocks))
	for _, ob := range snap.OrderBlocks {
		breaker := ""
		if ob.IsBreaker {
			breaker = " breaker"
		}
		fmt.Printf("  [%4d] %-7s %.5f-%.5f %s%s\n", ob.CandleIndex, ob.Kind, ob.Low, ob.High, ob.State, breaker)
	}

	fmt.Printf("\nFair value gaps (%d):\n", len(snap.Gaps))
	for _, g := range snap.Gaps {
		fmt.Printf("  [%4d-%4d] %-7s %.5f-%.5f fill %d/4\n", g.StartIndex, g.EndIndex, g.Kind, g.Bottom, g.Top, g.MitigationLevel)
	}

	fmt.Printf("\nLiquidity zones (%d):\n", len(snap.Liquidity))
	for _, z := range snap.Liquidity {
		swept := ""
		if z.Swept {
			swept = fmt.Sprintf(" swept@%d", z.SweepIndex)
		}
		fmt.Printf("  [%4d] %-9s %-8s %.5f%s\n", z.SourceIndex, z.Kind, z.Subtype, z.Price, swept)
	}

	fmt.Printf("\nRange zones (%d):\n", len(snap.RangeZones))
	for _, z := range snap.RangeZones {
		fmt.Printf("  %-11s %.5f-%.5f\n", z.Kind, z.Bottom, z.Top)
	}
}
