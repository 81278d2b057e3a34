package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/i-wajidrashid/keyforge/internal/keyforge"
	"github.com/i-wajidrashid/keyforge/internal/kfconfig"
	"github.com/i-wajidrashid/keyforge/internal/termcolor"
)

// Set via -ldflags at build time:
//
//	go build -ldflags "-X main.version=0.1.0 -X main.commit=$(git rev-parse --short HEAD)" -o keyforge ./cmd/keyforge
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		termcolor.Red("config error: %v", err)
		os.Exit(1)
	}

	v, err := keyforge.Open(cfg)
	if err != nil {
		termcolor.Red("%v", err)
		os.Exit(1)
	}

	var cmdErr error
	switch os.Args[1] {
	case "create":
		cmdErr = runCreate(v, os.Args[2:])
	case "unlock":
		cmdErr = runUnlock(v, os.Args[2:])
	case "lock":
		cmdErr = runLock(v, os.Args[2:])
	case "status":
		cmdErr = runStatus(v, os.Args[2:])
	case "list":
		cmdErr = runList(v, os.Args[2:])
	case "add":
		cmdErr = runAdd(v, os.Args[2:])
	case "delete":
		cmdErr = runDelete(v, os.Args[2:])
	case "reorder":
		cmdErr = runReorder(v, os.Args[2:])
	case "totp":
		cmdErr = runTOTP(v, os.Args[2:])
	case "hotp":
		cmdErr = runHOTP(v, os.Args[2:])
	case "export":
		cmdErr = runExport(v, os.Args[2:])
	case "import":
		cmdErr = runImport(v, os.Args[2:])
	case "version", "--version":
		printVersion()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if cmdErr != nil {
		termcolor.Red("%v", cmdErr)
		os.Exit(1)
	}
}

func loadConfig() (*kfconfig.Config, error) {
	path, err := kfconfig.DefaultPath()
	if err != nil {
		return nil, err
	}
	return kfconfig.Load(path)
}

func printVersion() {
	fmt.Printf("keyforge %s (%s)\n", version, commit)
	fmt.Printf("Go %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func printUsage() {
	fmt.Println("Usage: keyforge <command> [options]")
	fmt.Println()
	fmt.Println("Vault:")
	fmt.Println("  create                                  Create a new vault")
	fmt.Println("  unlock                                  Unlock the vault")
	fmt.Println("  lock                                    Lock the vault")
	fmt.Println("  status                                  Show vault state and location")
	fmt.Println()
	fmt.Println("Tokens:")
	fmt.Println("  list                                    List tokens")
	fmt.Println("  add --issuer I --account A --secret B32 [--kind totp|hotp] [--digits 6|8] [--period 30] [--algorithm SHA1|SHA256|SHA512]")
	fmt.Println("  delete <id>                             Delete a token")
	fmt.Println("  reorder <id> [<id> ...]                 Reorder tokens")
	fmt.Println()
	fmt.Println("Codes:")
	fmt.Println("  totp <id>                               Print the current TOTP code")
	fmt.Println("  hotp <id>                               Print the next HOTP code and advance the counter")
	fmt.Println()
	fmt.Println("Backup:")
	fmt.Println("  export [--encrypted]                    Export tokens as otpauth:// URIs or an encrypted blob")
	fmt.Println("  import [--encrypted] <file>             Import tokens from a URI list or an encrypted blob")
	fmt.Println()
	fmt.Println("  version                                 Print version info")
}
