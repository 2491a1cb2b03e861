package validate

import (
	"context"
	"fmt"

	"github.com/dop251/goja"

	"github.com/verifyd/kycpipe/document"
	"github.com/verifyd/kycpipe/observability"
)

// Rule is a custom validation check written as a JavaScript expression.
// The script sees a read-only `fields` object holding the extracted record
// and must evaluate to either a boolean (false fails the rule) or an object
// of the shape {valid, errors: [...], warnings: [...]}.
type Rule struct {
	Name string
	// Types restricts the rule to specific document types; empty applies it
	// to every type.
	Types []document.Type
	// Message is appended as the error when a boolean script returns false.
	// Defaults to "rule <name> failed".
	Message string
	Script  string
}

func (r Rule) appliesTo(t document.Type) bool {
	if len(r.Types) == 0 {
		return true
	}
	for _, rt := range r.Types {
		if rt == t {
			return true
		}
	}
	return false
}

// RuleEngine evaluates scripted rules against field records and merges their
// findings into a validation outcome. A fresh JavaScript runtime is built per
// evaluation; runtimes are not safe for concurrent use and evaluations must
// stay independent across requests.
type RuleEngine struct {
	rules []Rule
	log   observability.Logger
}

// NewRuleEngine constructs an engine over the given rules.
func NewRuleEngine(rules []Rule, log observability.Logger) *RuleEngine {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &RuleEngine{rules: append([]Rule(nil), rules...), log: log}
}

// Apply runs every rule matching docType and merges findings into out.
// A rule that fails to evaluate is reported as a warning, never an error:
// a broken rule script must not block an otherwise valid document.
func (e *RuleEngine) Apply(ctx context.Context, docType document.Type, rec document.FieldRecord, out *Outcome) {
	for _, rule := range e.rules {
		if !rule.appliesTo(docType) {
			continue
		}
		if err := ctx.Err(); err != nil {
			e.log.Warn("rule evaluation canceled", observability.Error("error", err))
			return
		}
		if err := e.evaluate(ctx, rule, rec, out); err != nil {
			e.log.Warn("rule evaluation failed",
				observability.String("rule", rule.Name),
				observability.Error("error", err))
			out.addWarning(fmt.Sprintf("rule %s could not be evaluated", rule.Name))
		}
	}
}

func (e *RuleEngine) evaluate(ctx context.Context, rule Rule, rec document.FieldRecord, out *Outcome) error {
	vm := goja.New()

	fieldsObj := vm.NewObject()
	for k, v := range rec {
		if err := fieldsObj.Set(k, v); err != nil {
			return err
		}
	}
	if err := vm.Set("fields", fieldsObj); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	defer vm.ClearInterrupt()
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := vm.RunString(rule.Script)
	if err != nil {
		if interrupted, ok := err.(*goja.InterruptedError); ok {
			if cause := interrupted.Unwrap(); cause != nil {
				return cause
			}
			return context.Canceled
		}
		return err
	}
	merge(rule, val.Export(), out)
	return nil
}

func merge(rule Rule, result interface{}, out *Outcome) {
	switch v := result.(type) {
	case bool:
		if !v {
			msg := rule.Message
			if msg == "" {
				msg = fmt.Sprintf("rule %s failed", rule.Name)
			}
			out.addError(msg)
		}
	case map[string]interface{}:
		for _, s := range stringSlice(v["errors"]) {
			out.addError(s)
		}
		for _, s := range stringSlice(v["warnings"]) {
			out.addWarning(s)
		}
		if valid, ok := v["valid"].(bool); ok && !valid && out.Valid {
			// An invalid outcome always carries at least one error.
			out.addError(fmt.Sprintf("rule %s failed", rule.Name))
		}
	}
}

func stringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var ss []string
	for _, it := range items {
		if s, ok := it.(string); ok {
			ss = append(ss, s)
		}
	}
	return ss
}
