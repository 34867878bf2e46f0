//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// run executes the built CLI binary with the given arguments.
func run(args ...string) error {
	bin := filepath.Join(binDir, binName)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", bin, args, err)
	}
	return nil
}

// Collect fetches trial and PubMed metadata for the default smoke query.
func Collect() error {
	mg.Deps(Build)
	if err := run("collect", "trials", "--query", "aging OR longevity", "--max", "100"); err != nil {
		return err
	}
	return run("collect", "pubmed", "--query", "aging interventions", "--max", "100")
}

// Extract builds the structured evidence file from collected outputs.
func Extract() error {
	mg.Deps(Build)
	return run("extract")
}

// Report renders the Markdown report from structured evidence.
func Report() error {
	mg.Deps(Build)
	return run("report")
}

// Pipeline runs collect, extract, and report in sequence.
func Pipeline() error {
	mg.SerialDeps(Collect, Extract, Report)
	return nil
}

// Test runs the full test suite.
func Test() error {
	cmd := exec.Command("go", "test", "./...")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
