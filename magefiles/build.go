//go:build mage

// Package main provides build targets for fieldbook using Mage.
//
// Usage:
//
//	mage build           Compile the fieldbook binary to bin/
//	mage install         Install fieldbook to GOPATH/bin
//	mage clean           Remove build artifacts
//	mage test:all        Run every test
//	mage test:unit       Run tests without the Postgres integration test
//	mage test:postgres   Run the Postgres tests against FIELDBOOK_TEST_POSTGRES_DSN
//	mage test:cover      Write coverage.out and print the per-function summary
//	mage lint            Run golangci-lint
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "fieldbook"
	binaryDir  = "bin"
	cmdDir     = "./cmd/fieldbook"
)

// Build compiles the fieldbook binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	return sh.Copy(filepath.Join(gopath, "bin", binaryName), filepath.Join(binaryDir, binaryName))
}

// Clean removes build artifacts.
func Clean() error {
	for _, p := range []string{binaryDir, coverProfile} {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return sh.RunV(binGo, "clean")
}
