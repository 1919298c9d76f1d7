// cmd/tools/catalog-lint/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"matching-workers/pkg/catalog"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", "configs/questions.json", "Path to question catalog file")

	showCmd := flag.NewFlagSet("show", flag.ExitOnError)
	showPath := showCmd.String("path", "configs/questions.json", "Path to question catalog file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		cat, err := catalog.Load(*validatePath)
		if err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Catalog validation passed: version %s, %d questions.\n", cat.Version, len(cat.Questions))

	case "show":
		showCmd.Parse(os.Args[2:])
		cat, err := catalog.Load(*showPath)
		if err != nil {
			fmt.Printf("Error loading catalog: %v\n", err)
			os.Exit(1)
		}
		show(cat)

	case "help":
		fallthrough
	default:
		help()
	}
}

func show(cat *catalog.Catalog) {
	bySection := map[catalog.Section]int{}
	byKind := map[catalog.Kind]int{}
	var dealbreakers, hardFilters, excluded int

	for i := range cat.Questions {
		q := &cat.Questions[i]
		bySection[q.Section]++
		byKind[q.Kind]++
		if q.AllowDealbreaker {
			dealbreakers++
		}
		if q.HardFilter {
			hardFilters++
		}
		if !q.Scorable() {
			excluded++
		}
	}

	fmt.Printf("Catalog version: %s\n", cat.Version)
	fmt.Printf("Questions:       %d (%d scorable, %d excluded from scoring)\n",
		len(cat.Questions), len(cat.Scorable()), excluded)

	fmt.Println("\nBy section:")
	for _, s := range sortedSections(bySection) {
		fmt.Printf("  %-12s %d\n", s, bySection[s])
	}

	fmt.Println("\nBy kind:")
	for _, k := range sortedKinds(byKind) {
		fmt.Printf("  %-12s %d\n", k, byKind[k])
	}

	fmt.Printf("\nDealbreaker-eligible: %d\n", dealbreakers)
	fmt.Printf("Hard-filter:          %d\n", hardFilters)
	for _, q := range cat.HardFilterQuestions() {
		fmt.Printf("  %s (%s)\n", q.ID, q.Kind)
	}
}

func sortedSections(m map[catalog.Section]int) []catalog.Section {
	out := make([]catalog.Section, 0, len(m))
	for s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedKinds(m map[catalog.Kind]int) []catalog.Kind {
	out := make([]catalog.Kind, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func help() {
	fmt.Println(`Catalog Lint CLI

Usage:
  catalog-lint <command> [flags]

Commands:
  validate  Schema-check and semantically validate a question catalog file.
            -path string  Path to catalog file (default "configs/questions.json")

  show      Print a summary of a catalog: sections, kinds, dealbreaker and
            hard-filter counts.
            -path string  Path to catalog file (default "configs/questions.json")

  help      Show this help message.`)
}
