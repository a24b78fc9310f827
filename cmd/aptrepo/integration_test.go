package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ralt/aptrepo/internal/testutil"
)

// TestIntegration builds a signed repository with the aptrepo binary and
// installs from it with apt in a Debian container
func TestIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	// Check if Docker is available
	if !isDockerAvailable() {
		t.Skip("Docker not available, skipping integration tests")
	}

	workDir := t.TempDir()

	t.Log("Building aptrepo binary...")
	bin := filepath.Join(workDir, "aptrepo")
	if err := buildAptrepo(bin); err != nil {
		t.Fatalf("Failed to build aptrepo: %v", err)
	}

	inputDir := filepath.Join(workDir, "debs")
	testutil.WriteDeb(t, inputDir, "aptrepo-test_1.0.0_amd64.deb", testControl("aptrepo-test", "1.0.0"))
	testutil.WriteDeb(t, inputDir, "aptrepo-utils_2.0.0_amd64.deb", testControl("aptrepo-utils", "2.0.0"))

	key := testutil.GenerateKey(t, "secret")
	keyPath := testutil.WriteFile(t, workDir, "signing.asc", key.Armored)
	passPath := testutil.WriteFile(t, workDir, "passphrase", []byte("secret\n"))

	// Generate repository
	repoDir := filepath.Join(workDir, "repo")
	t.Log("Generating signed repository with 2 packages...")
	cmd := exec.Command(bin, "generate",
		"--input-dir", inputDir,
		"--output-dir", repoDir,
		"--sign",
		"--gpg-key", keyPath,
		"--gpg-passphrase-file", passPath,
		"--export-key", "repo.asc",
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to generate repository: %v\nOutput: %s", err, output)
	}

	expectedFiles := []string{
		"Packages",
		"Packages.gz",
		"Release",
		"Release.gpg",
		"InRelease",
		"repo.asc",
		"aptrepo-test_1.0.0_amd64.deb",
		"aptrepo-utils_2.0.0_amd64.deb",
	}
	for _, file := range expectedFiles {
		if _, err := os.Stat(filepath.Join(repoDir, file)); os.IsNotExist(err) {
			t.Errorf("Expected file not found: %s", file)
		}
	}

	// Test repository in Docker
	t.Log("Testing repository in Debian container...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dockerCmd := exec.CommandContext(ctx, "docker", "run", "--rm",
		"-v", fmt.Sprintf("%s:/repo:ro", repoDir),
		"debian:bookworm",
		"bash", "-c", `
set -e
echo "deb [signed-by=/repo/repo.asc] file:///repo ./" > /etc/apt/sources.list.d/test.list
apt-get update
apt-cache policy aptrepo-test aptrepo-utils
apt-get install -y aptrepo-test aptrepo-utils
dpkg -s aptrepo-test aptrepo-utils
`,
	)
	dockerCmd.Stdout = os.Stdout
	dockerCmd.Stderr = os.Stderr

	if err := dockerCmd.Run(); err != nil {
		t.Fatalf("Docker test failed: %v", err)
	}
}

func testControl(name, version string) string {
	return strings.Join([]string{
		"Package: " + name,
		"Version: " + version,
		"Architecture: all",
		"Maintainer: Aptrepo Tests <tests@example.com>",
		"Installed-Size: 1",
		"Section: misc",
		"Priority: optional",
		"Description: aptrepo integration test package",
		" Installed from a generated flat repository.",
	}, "\n") + "\n"
}

func isDockerAvailable() bool {
	cmd := exec.Command("docker", "version")
	return cmd.Run() == nil
}

func buildAptrepo(out string) error {
	cmd := exec.Command("go", "build", "-o", out, ".")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
