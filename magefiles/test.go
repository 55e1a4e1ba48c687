//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	coverProfile = "coverage.out"
	postgresEnv  = "FIELDBOOK_TEST_POSTGRES_DSN"
)

// Test groups test targets.
type Test mg.Namespace

// All runs every test. The Postgres integration test skips itself unless
// FIELDBOOK_TEST_POSTGRES_DSN is set.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Unit runs every test with the Postgres DSN cleared.
func (Test) Unit() error {
	return sh.RunWithV(map[string]string{postgresEnv: ""}, binGo, "test", "./...")
}

// Postgres runs the Postgres backend tests against a live server.
func (Test) Postgres() error {
	if os.Getenv(postgresEnv) == "" {
		return fmt.Errorf("%s must point at a Postgres database", postgresEnv)
	}
	return sh.RunV(binGo, "test", "-v", "-count=1", "./internal/postgres/...")
}

// Cover writes a coverage profile and prints the per-function summary.
func (Test) Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile="+coverProfile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func="+coverProfile)
}
