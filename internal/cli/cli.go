// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for docchat.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdUpload
	CmdStatus
	CmdLogin
	CmdLogout
	CmdHistory
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool

	// Command-specific
	Query      string
	AudioFile  string
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Confirm    bool

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `docchat - chat with your documents from the terminal

Docchat is a terminal client for a document question-answering backend.
Upload documents, then ask questions about them by text or voice. Answers
come back as rendered markdown, and every exchange is kept in your
per-user history.

Usage:
  docchat                      Start the TUI (default)
  docchat ask "question"       Ask a single question
    --audio FILE               Attach a WAV recording instead of text
  docchat chat                 Interactive chat REPL
  docchat upload FILE...       Upload documents to the corpus
  docchat status, s            Show backend status
  docchat login                Sign in (prompts for credentials)
    --signup                   Create an account instead
  docchat logout               Sign out and drop the local session
  docchat history              Show your recent questions
    --clear --confirm          Delete your entire history
  docchat config [show|get|set|path]  Configuration
  docchat version              Show version information

Global Flags:
  -q, --quiet     Minimal output
  -v, --verbose   Debug output
  --json          Raw JSON output where applicable

Examples:
  docchat ask "What does the report conclude?"
  docchat ask --audio question.wav
  docchat upload report.pdf notes.txt
  docchat config set backend.base_url http://10.0.0.5:8000
  docchat history --clear --confirm

Environment:
  DOCCHAT_BACKEND_URL   Override the backend origin
  DOCCHAT_AUTH_URL      Override the identity provider
  DOCCHAT_LOG_LEVEL     debug, info, warn, error

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("docchat version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return ParseFrom(os.Args[1:])
}

// ParseFrom parses the given argument list (without the program name).
func ParseFrom(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)

	// no arguments means the TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chat":
		return CmdChat, parsedArgs

	case "upload":
		return CmdUpload, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "login", "signin":
		parseLoginArgs(&parsedArgs, remaining)
		return CmdLogin, parsedArgs

	case "logout", "signout":
		return CmdLogout, parsedArgs

	case "history":
		parseHistoryArgs(&parsedArgs, remaining)
		return CmdHistory, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// unknown word: treat it as a question for ask
		parsedArgs.Query = strings.Join(append([]string{cmd}, remaining...), " ")
		return CmdAsk, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		default:
			remaining = append(remaining, args[i])
		}
	}
	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var queryParts []string
	for i := 0; i < len(remaining); i++ {
		switch remaining[i] {
		case "--audio", "-a":
			if i+1 < len(remaining) {
				i++
				args.AudioFile = remaining[i]
			}
		default:
			if strings.HasPrefix(remaining[i], "--audio=") {
				args.AudioFile = strings.TrimPrefix(remaining[i], "--audio=")
			} else {
				queryParts = append(queryParts, remaining[i])
			}
		}
	}
	args.Query = strings.Join(queryParts, " ")
}

// parseLoginArgs parses login command specific arguments.
func parseLoginArgs(args *Args, remaining []string) {
	for _, arg := range remaining {
		if arg == "--signup" {
			args.Subcommand = "signup"
		}
	}
}

// parseHistoryArgs parses history command specific arguments.
func parseHistoryArgs(args *Args, remaining []string) {
	for _, arg := range remaining {
		switch arg {
		case "--clear":
			args.Subcommand = "clear"
		case "--confirm":
			args.Confirm = true
		}
	}
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) == 0 {
		args.Subcommand = "show"
		return
	}
	args.Subcommand = remaining[0]
	switch args.Subcommand {
	case "get":
		if len(remaining) >= 2 {
			args.ConfigKey = remaining[1]
		}
	case "set":
		if len(remaining) >= 3 {
			args.ConfigKey = remaining[1]
			args.ConfigVal = remaining[2]
		}
	}
}
