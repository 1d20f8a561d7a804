// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd008-declash-interface R3;
//
//	docs/ARCHITECTURE § Verification.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const defaultVerifyTimeout = 5 * time.Minute

// ErrVerifyFailed is returned when the verification command fails after
// renamed files were written. The files have been restored.
var ErrVerifyFailed = errors.New("verification failed")

// Diagnostic is one file:line[:col]: message line of compiler output.
type Diagnostic struct {
	FilePath string
	Line     int
	Column   int // 0 if not reported
	Message  string
}

func (d Diagnostic) String() string {
	if d.Column > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", d.FilePath, d.Line, d.Column, d.Message)
	}
	return fmt.Sprintf("%s:%d: %s", d.FilePath, d.Line, d.Message)
}

// VerifyConfig configures Verify.
type VerifyConfig struct {
	WorkDir string
	Cmd     string        // Command line, split on whitespace
	Timeout time.Duration // Zero means 5 minutes
}

// VerifyResult is the outcome of a verification command.
type VerifyResult struct {
	OK          bool
	Output      string       // Combined stdout and stderr
	Diagnostics []Diagnostic // Parsed from Output
}

// Verify runs the configured command in WorkDir.
func Verify(ctx context.Context, cfg VerifyConfig) *VerifyResult {
	parts := strings.Fields(cfg.Cmd)
	if len(parts) == 0 {
		return &VerifyResult{OK: true}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultVerifyTimeout
	}

	out, err := runCommand(ctx, cfg.WorkDir, timeout, parts[0], parts[1:]...)
	result := &VerifyResult{OK: err == nil, Output: out}
	if !result.OK {
		result.Diagnostics = parseDiagnostics(out)
		if result.Output == "" {
			result.Output = err.Error()
		}
	}
	return result
}

// runCommand executes a command with a timeout and captures combined output.
func runCommand(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, name, args...)
	cmd.Dir = dir

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	return buf.String(), err
}

// diagnosticRegex matches file:line:col: message and file(line,col): message,
// the two layouts compilers commonly print.
var diagnosticRegex = regexp.MustCompile(`^(.+?)(?::(\d+)(?::(\d+))?:|\((\d+),(\d+)\):) (.+)$`)

func parseDiagnostics(output string) []Diagnostic {
	var diags []Diagnostic
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		m := diagnosticRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		d := Diagnostic{FilePath: m[1], Message: m[6]}
		if m[2] != "" {
			d.Line, _ = strconv.Atoi(m[2])
			d.Column, _ = strconv.Atoi(m[3])
		} else {
			d.Line, _ = strconv.Atoi(m[4])
			d.Column, _ = strconv.Atoi(m[5])
		}
		diags = append(diags, d)
	}
	return diags
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
