package exrun

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
)

type Verdict int

const (
	ALLOW Verdict = iota
	DENY
)

// Executable is anything WithRule accepts as an executable reference.
type Executable any

var ErrDenied = errors.New("exrun: execution denied by policy")

type PolicyError struct {
	Verdict    Verdict
	Executable string
}

func (e *PolicyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("exrun: %s executable %s", e.Verdict.String(), e.Executable)
}

func (e *PolicyError) Is(target error) bool {
	return target == ErrDenied
}

func (v Verdict) String() string {
	switch v {
	case ALLOW:
		return "allow"
	case DENY:
		return "deny"
	default:
		return fmt.Sprintf("verdict(%d)", v)
	}
}

// ParseVerdict parses "allow" or "deny" (case insensitive).
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow":
		return ALLOW, nil
	case "deny":
		return DENY, nil
	default:
		return ALLOW, fmt.Errorf("unknown verdict %q", s)
	}
}

type policyKey struct{}

type executionPolicy struct {
	defaultVerdict Verdict
	allow          map[string]struct{}
	deny           map[string]struct{}
}

func newExecutionPolicy() *executionPolicy {
	return &executionPolicy{
		defaultVerdict: ALLOW,
		allow:          make(map[string]struct{}),
		deny:           make(map[string]struct{}),
	}
}

func (p *executionPolicy) clone() *executionPolicy {
	if p == nil {
		return newExecutionPolicy()
	}
	clone := &executionPolicy{
		defaultVerdict: p.defaultVerdict,
		allow:          make(map[string]struct{}, len(p.allow)),
		deny:           make(map[string]struct{}, len(p.deny)),
	}
	for k := range p.allow {
		clone.allow[k] = struct{}{}
	}
	for k := range p.deny {
		clone.deny[k] = struct{}{}
	}
	return clone
}

func policyFromContext(ctx context.Context) *executionPolicy {
	if ctx == nil {
		return nil
	}
	if existing, ok := ctx.Value(policyKey{}).(*executionPolicy); ok {
		return existing
	}
	return nil
}

// WithPolicy returns a derived context that sets the default verdict consulted
// when no explicit allow/deny rule matches an executable.
//
//	ctx := exrun.WithPolicy(context.Background(), exrun.DENY)
//	ctx = exrun.WithRule(ctx, exrun.ALLOW, "git", "/usr/bin/make")
//	out, err := exrun.ExecuteContext(ctx, "git", "status")
func WithPolicy(ctx context.Context, verdict Verdict) context.Context {
	policy := policyFromContext(ctx)
	if policy == nil {
		policy = newExecutionPolicy()
	} else {
		policy = policy.clone()
	}
	policy.defaultVerdict = verdict
	return context.WithValue(ctx, policyKey{}, policy)
}

// WithRule returns a derived context containing explicit allow/deny entries
// for executables. Each argument may be a string, []string, fmt.Stringer or
// an io.Reader with one executable per line (blank lines and # comments are
// skipped). WithRule must succeed - invalid input causes a panic.
func WithRule(ctx context.Context, rule Verdict, executables ...Executable) context.Context {
	ctx, err := WithRuleCatchError(ctx, rule, executables...)
	if err != nil {
		panic(err)
	}
	return ctx
}

// WithRuleCatchError mirrors WithRule but returns an error instead of panicking
// when an entry cannot be parsed or an unsupported verdict is supplied.
func WithRuleCatchError(ctx context.Context, rule Verdict, executables ...Executable) (context.Context, error) {
	if len(executables) == 0 {
		return ctx, nil
	}
	names, err := collectExecutables(executables...)
	if err != nil {
		return ctx, err
	}
	policy := policyFromContext(ctx)
	if policy == nil {
		policy = newExecutionPolicy()
	} else {
		policy = policy.clone()
	}
	for _, name := range names {
		switch rule {
		case ALLOW:
			policy.allow[name] = struct{}{}
			delete(policy.deny, name)
		case DENY:
			policy.deny[name] = struct{}{}
			delete(policy.allow, name)
		default:
			return ctx, fmt.Errorf("unsupported verdict %d", rule)
		}
	}
	return context.WithValue(ctx, policyKey{}, policy), nil
}

func collectExecutables(values ...Executable) ([]string, error) {
	var result []string
	for _, v := range values {
		if v == nil {
			continue
		}
		switch e := v.(type) {
		case string:
			name, err := cleanExecutable(e)
			if err != nil {
				return nil, err
			}
			result = append(result, name)
		case []string:
			for _, entry := range e {
				name, err := cleanExecutable(entry)
				if err != nil {
					return nil, err
				}
				result = append(result, name)
			}
		case fmt.Stringer:
			name, err := cleanExecutable(e.String())
			if err != nil {
				return nil, err
			}
			result = append(result, name)
		case io.Reader:
			names, err := executablesFromReader(e)
			if err != nil {
				return nil, err
			}
			result = append(result, names...)
		default:
			return nil, fmt.Errorf("unsupported executable type %T", v)
		}
	}
	return result, nil
}

func cleanExecutable(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("empty executable name")
	}
	if strings.ContainsAny(trimmed, "\n\r\x00") {
		return "", fmt.Errorf("invalid executable name: %q", value)
	}
	return trimmed, nil
}

func executablesFromReader(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var names []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// CheckPolicy inspects the context policy and returns an error matching
// ErrDenied if executable violates the configured rules.
//
//	ctx := exrun.WithRule(context.Background(), exrun.DENY, "rm")
//	if err := exrun.CheckPolicy(ctx, "rm"); err != nil {
//		return err
//	}
func CheckPolicy(ctx context.Context, executable string) error {
	return enforcePolicy(ctx, executable)
}

func enforcePolicy(ctx context.Context, executable string) error {
	policy := policyFromContext(ctx)
	if policy == nil {
		return nil
	}
	switch policy.evaluate(executable) {
	case DENY:
		return &PolicyError{Verdict: DENY, Executable: executable}
	default:
		return nil
	}
}

// candidates lists the names an allow rule may be written against: the
// executable as given and its PATH resolution.
func candidates(executable string) []string {
	names := []string{executable}
	if resolved, err := exec.LookPath(executable); err == nil && resolved != executable {
		names = append(names, resolved)
		if abs, err := filepath.Abs(resolved); err == nil && abs != resolved {
			names = append(names, abs)
		}
	}
	return names
}

// evaluate checks deny rules first. Deny rules also match the base name, so
// denying "rm" covers /bin/rm and ./rm; allow rules never do.
func (p *executionPolicy) evaluate(executable string) Verdict {
	if p == nil {
		return ALLOW
	}
	names := candidates(executable)
	denyNames := names
	if base := filepath.Base(executable); base != executable {
		denyNames = append([]string{base}, names...)
	}
	for _, name := range denyNames {
		if _, denied := p.deny[name]; denied {
			return DENY
		}
	}
	for _, name := range names {
		if _, allowed := p.allow[name]; allowed {
			return ALLOW
		}
	}
	return p.defaultVerdict
}
