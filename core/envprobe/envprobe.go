// Package envprobe detects the host environment a skill will run in: OS
// identity, binaries on the search path, and environment variables (spec
// §4.9). It never mutates anything and never fails — absence is always a
// reported check result, not an error.
package envprobe

import (
	"os"
	"os/exec"
	"runtime"

	"github.com/skillport/skillport/core/manifest"
)

// DetectOS normalizes the running host's OS identifier to one of the three
// values a manifest's os_compat may declare.
func DetectOS() string {
	switch runtime.GOOS {
	case "darwin":
		return "macos"
	case "windows":
		return "windows"
	default:
		return "linux"
	}
}

// BinaryExists reports whether name resolves on the OS search path. Any
// resolver error (including not-found) is reported as false.
func BinaryExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// EnvVarExists reports whether name is set to a non-empty value.
func EnvVarExists(name string) bool {
	return os.Getenv(name) != ""
}

// Status is the outcome of one environment check.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarn    Status = "warn"
	StatusMissing Status = "missing"
)

// Check is a single named environment probe result.
type Check struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Report aggregates every check plus the overall readiness flag.
type Report struct {
	OS     string  `json:"os"`
	Ready  bool    `json:"ready"`
	Checks []Check `json:"checks"`
}

// RequiredBinary and RequiredEnvVar name a dependency a manifest may ask
// the environment probe to check. A manifest does not currently carry a
// typed dependency list (spec §3's Manifest omits one); CheckEnvironment
// accepts them as explicit parameters. The install pipeline derives the
// binaries from the manifest's declared allowed commands and passes the
// env vars its own caller supplied.
type RequiredBinary struct {
	Name     string
	Optional bool
}

type RequiredEnvVar struct {
	Name     string
	Optional bool
}

// CheckEnvironment evaluates OS compatibility plus the supplied binary and
// environment-variable requirements against m, returning a Report whose
// Ready flag is true iff the OS is compatible and no required (non-optional)
// binary or env var is missing.
func CheckEnvironment(m manifest.Manifest, binaries []RequiredBinary, envVars []RequiredEnvVar) Report {
	host := DetectOS()
	report := Report{OS: host}

	osOK := osCompatible(host, m.OSCompat)
	osCheck := Check{Name: "os_compat", Status: StatusOK}
	if !osOK {
		osCheck.Status = StatusMissing
		osCheck.Message = "host OS " + host + " is not in the manifest's os_compat list"
	}
	report.Checks = append(report.Checks, osCheck)

	ready := osOK
	for _, b := range binaries {
		check := Check{Name: "binary:" + b.Name, Status: StatusOK}
		if !BinaryExists(b.Name) {
			if b.Optional {
				check.Status = StatusWarn
				check.Message = "optional binary " + b.Name + " was not found on the search path"
			} else {
				check.Status = StatusMissing
				check.Message = "required binary " + b.Name + " was not found on the search path"
				ready = false
			}
		}
		report.Checks = append(report.Checks, check)
	}

	for _, e := range envVars {
		check := Check{Name: "env:" + e.Name, Status: StatusOK}
		if !EnvVarExists(e.Name) {
			if e.Optional {
				check.Status = StatusWarn
				check.Message = "optional environment variable " + e.Name + " is not set"
			} else {
				check.Status = StatusMissing
				check.Message = "required environment variable " + e.Name + " is not set"
				ready = false
			}
		}
		report.Checks = append(report.Checks, check)
	}

	report.Ready = ready
	return report
}

func osCompatible(host string, compat []string) bool {
	for _, c := range compat {
		if c == host {
			return true
		}
	}
	return false
}
