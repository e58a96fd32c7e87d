// Command aquaverify builds a one-revision aqua chain from a file on disk
// (a genesis file revision with the content embedded), then verifies it
// and prints a colorized per-revision breakdown. It does not append a
// signature or a witness revision — a demonstration binary in the same spirit as
// the teacher's root main.go's colorized proxy console.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"aquachain/internal/config"
	"aquachain/pkg/aqua"
)

func main() {
	var (
		filePath   = flag.String("file", "", "path to the file to build a genesis revision from")
		configPath = flag.String("config", "", "path to a YAML config file (optional)")
	)
	flag.Parse()

	if *filePath == "" {
		color.Red("aquaverify: -file is required")
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			color.Red("aquaverify: %v", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	runID := uuid.NewString()
	color.Cyan("╔══════════════════════════════════════════════╗")
	color.Cyan("║              aquaverify — run %s", runID[:8])
	color.Cyan("╚══════════════════════════════════════════════╝")

	chain := aqua.New()
	builder := aqua.NewBuilder(chain)
	ctx := context.Background()

	vhash, err := builder.AppendFile(ctx, *filePath, aqua.FileOptions{EmbedContent: true})
	if err != nil {
		color.Red("build failed: %v", err)
		os.Exit(1)
	}
	color.Green("✓ genesis revision appended: %s", vhash)

	result := aqua.VerifyChain(ctx, chain, aqua.OSFileProvider{}, nil, cfg.Verifier.ToAqua())
	renderResult(result)

	if !result.Pass {
		os.Exit(1)
	}
}

func renderResult(result aqua.ChainResult) {
	for i, rr := range result.Revisions {
		fmt.Printf("\nrevision %d — %s\n", i, rr.Hash)
		printSub("linkage", rr.Linkage)
		printSub("file integrity", rr.FileIntegrity)
		printSub("content integrity", rr.ContentIntegrity)
		printSub("signature", rr.Signature)
		printSub("witness", rr.Witness)
	}
	fmt.Println()
	if result.Pass {
		color.Green("chain verification: PASS")
	} else {
		color.Red("chain verification: FAIL")
	}
}

func printSub(label string, sub aqua.SubResult) {
	switch sub.Status {
	case aqua.StatusPass:
		color.Green("  %-20s PASS", label)
	case aqua.StatusMissing:
		color.Yellow("  %-20s MISSING", label)
	case aqua.StatusFail:
		color.Red("  %-20s FAIL — %s", label, sub.Message)
	}
}
