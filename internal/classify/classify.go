// Package classify implements the device safety classifier. Checks run in a
// fixed order and short-circuit on the first blocking failure; a probe that
// cannot be completed blocks the device rather than passing it.
package classify

import (
	"context"
	"fmt"
	"log"

	"zapfleet/internal/config"
	"zapfleet/internal/runner"
	"zapfleet/internal/zapfleet"
)

// InconclusivePrefix prefixes the unsafe reason when a blocking check could
// not be completed.
const InconclusivePrefix = "check could not be completed"

// AdvisoryNoSignature is surfaced for safe devices that carry no recognizable
// storage signatures.
const AdvisoryNoSignature = "may not need zapping (no storage signatures found)"

// Classifier evaluates the safety checks for one device at a time.
type Classifier struct {
	Runner        runner.Runner
	Config        *config.Config
	SkipSignature bool // skip the advisory signature probe only
	Debug         bool
}

// Classify runs the blocking checks in order against a device,
// short-circuiting on the first Fail or Inconclusive result. The advisory
// signature check runs only when all five blocking checks pass; its outcome
// never changes the verdict. Classification is idempotent for unchanged
// probe results.
func (c *Classifier) Classify(ctx context.Context, device zapfleet.Device) zapfleet.Classification {
	cls := zapfleet.Classification{Device: device}

	for _, kind := range zapfleet.BlockingChecks {
		outcome := c.runCheck(ctx, device, kind)
		cls.Outcomes = append(cls.Outcomes, outcome)

		switch outcome.Result {
		case zapfleet.ResultFail:
			cls.Reason = outcome.Reason
			log.Printf("[INFO] Device /dev/%s on %s is unsafe: %s", device.Name, device.Node, cls.Reason)
			return cls
		case zapfleet.ResultInconclusive:
			cls.Reason = fmt.Sprintf("%s: %s", InconclusivePrefix, outcome.Reason)
			log.Printf("[WARN] Device /dev/%s on %s blocked (fail-closed): %s", device.Name, device.Node, cls.Reason)
			return cls
		case zapfleet.ResultPass:
		}
	}

	cls.Safe = true

	if !c.SkipSignature {
		outcome := c.runCheck(ctx, device, zapfleet.CheckSignature)
		cls.Outcomes = append(cls.Outcomes, outcome)
		switch outcome.Result {
		case zapfleet.ResultFail:
			cls.Advisory = AdvisoryNoSignature
			log.Printf("[WARN] Device /dev/%s on %s: %s", device.Name, device.Node, cls.Advisory)
		case zapfleet.ResultInconclusive:
			log.Printf("[WARN] Signature probe inconclusive for /dev/%s on %s: %s", device.Name, device.Node, outcome.Reason)
		case zapfleet.ResultPass:
		}
	}

	return cls
}

func (c *Classifier) runCheck(ctx context.Context, device zapfleet.Device, kind zapfleet.CheckKind) zapfleet.CheckOutcome {
	rule, ok := c.Config.Checks[string(kind)]
	if !ok {
		// Config validation guarantees blocking rules; the advisory rule may
		// legitimately be absent.
		return zapfleet.CheckOutcome{
			Kind:   kind,
			Result: zapfleet.ResultInconclusive,
			Reason: "no probe rule configured",
		}
	}

	command := rule.CommandFor(device.Name)
	if c.Debug {
		log.Printf("[DEBUG] Check %s for /dev/%s on %s: %s", kind, device.Name, device.Node, command)
	}

	res, err := c.Runner.Run(ctx, device.Node, command)
	if err != nil {
		return zapfleet.CheckOutcome{
			Kind:   kind,
			Result: zapfleet.ResultInconclusive,
			Reason: fmt.Sprintf("probe failed: %v", err),
		}
	}

	result, reason := evaluate(rule, device.Name, res)
	return zapfleet.CheckOutcome{Kind: kind, Result: result, Reason: reason}
}
