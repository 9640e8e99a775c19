// Package engine provides the Lisp evaluation engine for kerf.
// It wraps zygomys in a sandboxed environment and produces a scene graph
// from user source code.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/kerf/pkg/config"
	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/logging"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	NodeID  graph.NodeID
}

// EvalResult bundles the full output of an evaluation for use by UI bindings.
type EvalResult struct {
	Graph    *graph.Graph
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter for kerf evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	tickets tickets
	timeout time.Duration

	// run performs one sandboxed evaluation; tests substitute it to hold an
	// evaluation open.
	run func(source string) (*graph.Graph, []EvalError, error)
}

// NewEngine creates a new Engine with the default evaluation timeout.
func NewEngine() *Engine {
	e := &Engine{timeout: config.DefaultEvalTimeout}
	e.run = e.evaluate
	return e
}

// NewEngineWithConfig creates an Engine using cfg.EvalTimeout.
func NewEngineWithConfig(cfg config.Config) *Engine {
	e := NewEngine()
	if cfg.EvalTimeout > 0 {
		e.timeout = time.Duration(cfg.EvalTimeout)
	}
	return e
}

// Timeout returns the hard limit for one evaluation.
func (e *Engine) Timeout() time.Duration { return e.timeout }

// Evaluate takes Lisp source code and produces a new Graph.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns graph + nil errors + nil error
//   - On parse/eval failure: returns nil graph + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
//
// A timeout wraps ErrEvalTimeout. A run overtaken by a later call to
// Evaluate wraps ErrSuperseded.
func (e *Engine) Evaluate(source string) (*graph.Graph, []EvalError, error) {
	gen := e.tickets.issue()
	ch := make(chan outcome, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		g, evalErrs, err := e.run(source)
		ch <- outcome{graph: g, errs: evalErrs, err: err}
	}()

	g, evalErrs, err := e.tickets.await(gen, ch, e.timeout)

	log := logging.Logger()
	switch {
	case err != nil:
		log.Warn("evaluation failed", "generation", gen, "err", err)
	case len(evalErrs) > 0:
		log.Debug("evaluation reported errors", "generation", gen, "errors", len(evalErrs))
	case log.Enabled(context.Background(), slog.LevelDebug):
		log.Debug("evaluated source", "generation", gen,
			"nodes", g.NodeCount(), "roots", len(g.Roots), "elapsed", time.Since(start))
	}
	return g, evalErrs, err
}

// EvaluateAll evaluates source and runs every validation tier over the
// resulting graph. Validation errors are reported as EvalErrors without
// line information; the graph is still returned so callers can inspect it.
func (e *Engine) EvaluateAll(source string) EvalResult {
	g, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return EvalResult{Errors: []EvalError{{Message: err.Error()}}}
	}
	if len(evalErrs) > 0 {
		return EvalResult{Errors: evalErrs}
	}

	res := EvalResult{Graph: g}
	vr := graph.ValidateAll(g)
	for _, ve := range vr.Errors {
		res.Errors = append(res.Errors, EvalError{Message: ve.Error()})
	}
	for _, w := range vr.Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{Message: w.Message, NodeID: w.NodeID})
	}
	return res
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*graph.Graph, []EvalError, error) {
	// Empty source is a valid program that produces an empty graph.
	if strings.TrimSpace(source) == "" {
		return graph.New(), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := newBuilder()
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}

	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	return b.finish(), nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
