package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcelsud/hookwatch/targets"
)

/* validate-targets - Standalone CLI tool to validate a replay targets file
 * Usage: go run cmd/validate-targets/main.go [targets.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	targetsFile := "targets.yaml"
	if len(os.Args) > 1 {
		targetsFile = os.Args[1]
	}

	fmt.Printf("Validating targets file: %s\n", targetsFile)
	fmt.Println(strings.Repeat("-", 50))

	loader := targets.NewLoader()
	if err := loader.Load(targetsFile); err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	loaded := loader.List()
	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d target(s):\n", len(loaded))

	for i, t := range loaded {
		fmt.Printf("\n%d. Target: %s\n", i+1, t.Name)
		fmt.Printf("   URL:              %s\n", t.URL)
		fmt.Printf("   Original headers: %t\n", t.IncludeOriginalHeaders)
		fmt.Printf("   Default headers:  %d\n", len(t.Headers))
		fmt.Printf("   Signed:           %t\n", t.Signed())
	}

	fmt.Printf("\n✓ All targets are valid!\n")
	os.Exit(0)
}
