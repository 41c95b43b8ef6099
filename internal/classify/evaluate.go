package classify

import (
	"fmt"
	"regexp"
	"strings"

	"zapfleet/internal/config"
	"zapfleet/internal/runner"
	"zapfleet/internal/zapfleet"
)

// evaluate applies a probe rule to a command result.
//
// Exit-code rules (existence-style probes): the configured exit code trips
// the rule, exit 0 passes, anything else is inconclusive. Pattern rules
// require exit 0 to be conclusive at all; a probe that exited non-zero says
// nothing about the device and must not be read as "no matches found".
func evaluate(rule config.Rule, device string, res runner.Result) (zapfleet.CheckResult, string) {
	if rule.ExitCode != nil {
		switch res.ExitCode {
		case *rule.ExitCode:
			return zapfleet.ResultFail, rule.Reason
		case 0:
			return zapfleet.ResultPass, ""
		default:
			return zapfleet.ResultInconclusive, probeError(res)
		}
	}

	if res.ExitCode != 0 {
		return zapfleet.ResultInconclusive, probeError(res)
	}

	// Lines are whitespace-trimmed before matching so anchored patterns work
	// against column-padded tool output. Only stdout is matched; the remote
	// wrapper is free to write noise to stderr.
	lines := strings.Split(res.Stdout, "\n")

	if rule.Includes != "" {
		includesRegex, err := regexp.Compile(rule.IncludesFor(device))
		if err != nil {
			return zapfleet.ResultInconclusive, fmt.Sprintf("invalid includes regex: %v", err)
		}
		for _, line := range lines {
			if includesRegex.MatchString(strings.TrimSpace(line)) {
				return zapfleet.ResultFail, rule.Reason
			}
		}
	}

	if rule.Excludes != "" {
		excludesRegex, err := regexp.Compile(rule.ExcludesFor(device))
		if err != nil {
			return zapfleet.ResultInconclusive, fmt.Sprintf("invalid excludes regex: %v", err)
		}
		matched := false
		for _, line := range lines {
			if excludesRegex.MatchString(strings.TrimSpace(line)) {
				matched = true
				break
			}
		}
		if !matched {
			return zapfleet.ResultFail, rule.Reason
		}
	}

	return zapfleet.ResultPass, ""
}

func probeError(res runner.Result) string {
	detail := strings.TrimSpace(res.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(res.Stdout)
	}
	if detail == "" {
		return fmt.Sprintf("probe exited %d", res.ExitCode)
	}
	return fmt.Sprintf("probe exited %d: %s", res.ExitCode, detail)
}
