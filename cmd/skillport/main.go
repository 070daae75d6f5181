// Command skillport is a thin demonstration binary over the core
// packages: it parses a small command surface, dispatches to the core,
// and renders the stable JSON envelope and exit codes of spec §6. It is
// not the system under design — the CLI argument surface, marketplace
// client, interactive prompting, MCP server, and Markdown rendering
// listed as out of scope all live outside this binary's remit.
package main

import (
	"fmt"
	"os"
)

var version = "0.0.0-dev"

// Exit codes, the stable contract for automation (spec §6).
const (
	exitOK                = 0
	exitGeneral           = 1
	exitInputInvalid      = 2
	exitNetwork           = 10
	exitAuthRequired      = 11
	exitDependencyMissing = 20
	exitSecurityRejected  = 30
	exitQualityFailed     = 31
	exitPolicyRejected    = 32
)

func main() {
	os.Exit(run(os.Args))
}

func run(arguments []string) int {
	if len(arguments) < 2 {
		fmt.Println("skillport", version)
		return exitOK
	}

	jsonMode, rest := extractJSONFlag(arguments[2:])

	switch arguments[1] {
	case "init":
		return runInit(rest, jsonMode)
	case "scan":
		return runScan(rest, jsonMode)
	case "export":
		return runExport(rest, jsonMode)
	case "sign":
		return runSign(rest, jsonMode)
	case "verify":
		return runVerify(rest, jsonMode)
	case "install":
		return runInstall(rest, jsonMode)
	case "dry-run":
		return runDryRun(rest, jsonMode)
	case "uninstall":
		return runUninstall(rest, jsonMode)
	case "plan":
		return runPlan(rest, jsonMode)
	case "inspect":
		return runInspect(rest, jsonMode)
	case "keys":
		return runKeys(rest, jsonMode)
	case "convert":
		return runConvert(rest, jsonMode)
	case "publish":
		// publish would call marketplace.Client.Upload; no HTTP
		// implementation of that interface ships in this binary.
		return writeEnvelope(jsonMode, nil, envelopeError{
			Code:      "not_implemented",
			Message:   "publish requires a marketplace.Client implementation, outside this demonstration binary",
			Retryable: false,
		}, exitGeneral)
	default:
		return writeEnvelope(jsonMode, nil, envelopeError{
			Code:      "unknown_command",
			Message:   "unknown command: " + arguments[1],
			Retryable: false,
		}, exitInputInvalid)
	}
}

// extractJSONFlag removes every --json argument from args, wherever it
// appears, and reports whether any was present.
func extractJSONFlag(args []string) (bool, []string) {
	jsonMode := false
	rest := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--json" {
			jsonMode = true
			continue
		}
		rest = append(rest, a)
	}
	return jsonMode, rest
}
