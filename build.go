//go:build ignore

// build.go - OFI pipeline build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, day, batch, server, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

const (
	version = "0.1.0"
	module  = "github.com/xecuterisaquant/replication-cont-ofi"
)

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	GOOS    string
	GOARCH  string
	Release bool
}

var (
	distDir = "dist"

	// key = target name, value = source dir under cmd/
	executables = map[string]string{
		"day":    "ofi-day",
		"batch":  "ofi-batch",
		"server": "ofi-server",
	}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	goos := flag.String("os", runtime.GOOS, "Target GOOS")
	goarch := flag.String("arch", runtime.GOARCH, "Target GOARCH")
	flag.Parse()

	if runtime.GOOS == "windows" {
		colorReset, colorRed, colorGreen, colorYellow, colorCyan = "", "", "", "", ""
	}

	printHeader()
	startTime := time.Now()

	ctx := &BuildContext{Verbose: *verbose, GOOS: *goos, GOARCH: *goarch}

	switch *target {
	case "all":
		buildAll(ctx)
	case "day", "batch", "server":
		buildExecutable(*target, ctx)
	case "test":
		runTests(ctx.Verbose)
	case "clean":
		clean()
	case "release":
		ctx.Release = true
		runTests(ctx.Verbose)
		buildAll(ctx)
	case "help":
		showHelp()
		return
	default:
		printError(fmt.Sprintf("Unknown target: %s", *target))
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Done in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Printf("%sOFI pipeline build v%s%s\n", colorCyan, version, colorReset)
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorCyan, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[OK]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARN]%s %s\n", colorYellow, colorReset, msg)
}

func buildAll(ctx *BuildContext) {
	printInfo("Building all commands...")
	if err := os.MkdirAll(distDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create %s: %v", distDir, err))
		os.Exit(1)
	}

	targets := make([]string, 0, len(executables))
	for name := range executables {
		targets = append(targets, name)
	}
	sort.Strings(targets)
	for _, name := range targets {
		buildExecutable(name, ctx)
	}
	copyConfigExample(ctx.Verbose)
}

func buildExecutable(name string, ctx *BuildContext) {
	cmdName := executables[name]
	printInfo(fmt.Sprintf("Building %s...", cmdName))

	exeName := cmdName
	if ctx.GOOS == "windows" {
		exeName += ".exe"
	}
	outputPath := filepath.Join(distDir, ctx.GOOS+"_"+ctx.GOARCH, exeName)

	ldflags := fmt.Sprintf("-X %s/internal/infrastructure.ServiceVersion=%s", module, version)
	if ctx.Release {
		ldflags = "-s -w " + ldflags
	}

	args := []string{"build", "-trimpath", "-ldflags", ldflags, "-o", outputPath}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "./cmd/"+cmdName)

	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(), "GOOS="+ctx.GOOS, "GOARCH="+ctx.GOARCH, "CGO_ENABLED=0")
	cmd.Stderr = os.Stderr
	if ctx.Verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", cmdName, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		sizeMB := float64(info.Size()) / 1024 / 1024
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", outputPath, sizeMB))
	}
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

func clean() {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean %s: %v", distDir, err))
		return
	}
	printSuccess("Build artifacts cleaned")
}

func copyConfigExample(verbose bool) {
	src := filepath.Join("configs", "ofi.example.yaml")
	data, err := os.ReadFile(src)
	if err != nil {
		printWarning(fmt.Sprintf("No config example copied: %v", err))
		return
	}
	dest := filepath.Join(distDir, "ofi.example.yaml")
	if err := os.WriteFile(dest, data, 0644); err != nil {
		printWarning(fmt.Sprintf("Failed to copy %s: %v", src, err))
		return
	}
	if verbose {
		printInfo(fmt.Sprintf("Copied %s to %s", src, dest))
	}
}

func showHelp() {
	fmt.Println(`Usage: go run build.go [-target=TARGET] [-v] [-os=GOOS] [-arch=GOARCH]

Targets:
  all      Build ofi-day, ofi-batch and ofi-server into dist/
  day      Build ofi-day only
  batch    Build ofi-batch only
  server   Build ofi-server only
  test     Run go test -race ./...
  clean    Remove dist/
  release  Run tests, then build stripped binaries`)
}
