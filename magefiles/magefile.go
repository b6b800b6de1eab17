//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binary   = "bulkops"
	mainPkg  = "./cmd/bulkops"
	coverOut = "coverage.out"
)

// Default target to run when none is specified
var Default = Build

// Build builds the bulkops binary
func Build() error {
	fmt.Println("Building...")
	return sh.RunV("go", "build", "-o", binary, mainPkg)
}

// Install installs bulkops into GOBIN
func Install() error {
	fmt.Println("Installing...")
	return sh.RunV("go", "install", mainPkg)
}

// Test runs all tests with the race detector and writes coverage.out
func Test() error {
	fmt.Println("Running tests...")
	return sh.RunV("go", "test", "-race", "-coverprofile="+coverOut, "./...")
}

// Stress repeats the engine tests, which exercise the worker pool, the
// reporter and cancellation timing
func Stress() error {
	fmt.Println("Stressing the engine...")
	return sh.RunV("go", "test", "-race", "-count=5", "-shuffle=on", "./internal/opengine/...")
}

// Lint lints the codebase
func Lint() error {
	fmt.Println("Linting...")
	return sh.RunV("golangci-lint", "run", "./...")
}

// Fmt formats the code
func Fmt() error {
	fmt.Println("Formatting code...")
	return sh.RunV("gofmt", "-s", "-w", "cmd", "internal", "pkg")
}

// Check runs formatting, lint and tests
func Check() {
	mg.SerialDeps(Fmt, Lint, Test)
}

// Clean removes build artifacts
func Clean() error {
	fmt.Println("Cleaning...")
	for _, path := range []string{binary, coverOut} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
