// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package fingerprint asks the target runtime which architecture and
// versions it is running, for use in cache keys.
package fingerprint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
)

// ElixirScript prints the Erlang/Elixir identifiers as one JSON object.
const ElixirScript = `
map = %{
  architecture: IO.iodata_to_binary(:erlang.system_info(:system_architecture)),
  elixir_version: System.version(),
  otp_release: System.otp_release(),
  erts_version: IO.iodata_to_binary(:erlang.system_info(:version))
}
rough_json = map
|> Enum.map(fn {key, value} -> [?", Atom.to_string(key), '":', inspect(value)] end)
|> Enum.intersperse(?,)
IO.puts([?{, rough_json, ?}])
`

// Toolchain identifies the runtime a cache was built with.
type Toolchain struct {
	Architecture string
	// Versions are in the order of Probe.VersionFields.
	Versions []string
}

// Probe runs Command with the script written to a temp file and reads the
// JSON object it prints.
type Probe struct {
	// Command and Args run as: Command Args... <script path>.
	Command string
	Args    []string
	Script  string
	// TempDir holds the script while it runs; defaults to RUNNER_TEMP or the
	// OS temp dir.
	TempDir string

	ArchitectureField string
	VersionFields     []string

	// run is swapped in tests.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Elixir returns the probe for Elixir/OTP. Version order is otp_release,
// erts_version, elixir_version.
func Elixir() *Probe {
	return &Probe{
		Command:           "elixir",
		Args:              []string{"-r"},
		Script:            ElixirScript,
		ArchitectureField: "architecture",
		VersionFields:     []string{"otp_release", "erts_version", "elixir_version"},
	}
}

// Fingerprint runs the probe. The script file is removed whether or not the
// runtime succeeds.
func (p *Probe) Fingerprint(ctx context.Context) (Toolchain, error) {
	dir := p.TempDir
	if dir == "" {
		dir = os.Getenv("RUNNER_TEMP")
	}
	if dir == "" {
		dir = os.TempDir()
	}

	f, err := os.CreateTemp(dir, "cikit_fingerprint_*.exs")
	if err != nil {
		return Toolchain{}, fmt.Errorf("failed to create fingerprint script: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil {
			log.WithError(err).Debugf("failed to remove %s", path)
		}
	}()

	if _, err := f.WriteString(p.Script); err != nil {
		f.Close()
		return Toolchain{}, fmt.Errorf("failed to write fingerprint script: %w", err)
	}
	if err := f.Close(); err != nil {
		return Toolchain{}, fmt.Errorf("failed to write fingerprint script: %w", err)
	}

	run := p.run
	if run == nil {
		run = runCommand
	}
	args := append(append([]string{}, p.Args...), filepath.Clean(path))
	out, err := run(ctx, p.Command, args...)
	if err != nil {
		return Toolchain{}, fmt.Errorf("%s fingerprint failed: %w", p.Command, err)
	}

	return p.Parse(out)
}

// Parse extracts the configured fields from the probe output. Leading noise
// (compiler warnings and the like) before the JSON object is ignored.
func (p *Probe) Parse(out []byte) (Toolchain, error) {
	if i := bytes.IndexByte(out, '{'); i > 0 {
		out = out[i:]
	}
	if !gjson.ValidBytes(out) {
		return Toolchain{}, fmt.Errorf("fingerprint output is not JSON: %q", bytes.TrimSpace(out))
	}

	doc := gjson.ParseBytes(out)
	tc := Toolchain{}

	arch := doc.Get(p.ArchitectureField)
	if !arch.Exists() || arch.String() == "" {
		return Toolchain{}, fmt.Errorf("fingerprint output missing %q", p.ArchitectureField)
	}
	tc.Architecture = arch.String()

	var missing []string
	for _, field := range p.VersionFields {
		v := doc.Get(field)
		if !v.Exists() {
			missing = append(missing, field)
			continue
		}
		tc.Versions = append(tc.Versions, v.String())
	}
	if len(missing) > 0 {
		return Toolchain{}, fmt.Errorf("fingerprint output missing %v", missing)
	}

	return tc, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return nil, err
	}
	return out, nil
}
