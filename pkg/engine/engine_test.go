package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/kerf/pkg/config"
	"github.com/chazu/kerf/pkg/graph"
)

// hold replaces eng's sandbox run with one that blocks sources named in
// slow until release is closed. started receives once per blocked run.
func hold(eng *Engine, slow string) (started <-chan struct{}, release chan struct{}) {
	st := make(chan struct{}, 4)
	release = make(chan struct{})
	eng.run = func(source string) (*graph.Graph, []EvalError, error) {
		if source == slow {
			st <- struct{}{}
			<-release
		}
		return graph.New(), nil, nil
	}
	return st, release
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	g, evalErrs, err := eng.Evaluate(`(defsolid "shelf" (box 600 300`)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil graph on syntax error")
	}
	if len(evalErrs) == 0 || evalErrs[0].Message == "" {
		t.Fatalf("expected a populated eval error, got %v", evalErrs)
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine()

	// shelf-width is rewritten to shelf_width and never defined.
	g, evalErrs, err := eng.Evaluate(`(defsolid "shelf" (box shelf-width 300 18))`)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil graph on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

// The unterminated form always sits on the last line, so the reported line
// only matches when rewriting kept every newline in place.
func TestEvalErrorLineSurvivesPreprocessing(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantLine int
	}{
		{
			name:     "semicolon comments",
			source:   "; cabinet\n;; carcass parts\n(defsolid \"side\" (box 18 300",
			wantLine: 3,
		},
		{
			name:     "keywords",
			source:   "(def base (box :x 100 :y 60 :z 5))\n(defsolid \"base\" base)\n(defsolid \"lid\" (translate base :z",
			wantLine: 3,
		},
		{
			name:     "kebab names",
			source:   "(def panel-width 600)\n(def panel-depth 300)\n\n(defsolid \"panel\" (box panel-width panel-depth",
			wantLine: 4,
		},
		{
			name: "all rewrites",
			source: "; shelf unit\n(def shelf-width 600) ; outer\n" +
				"(def label \"a;b :c d-e\")\n(defsolid \"shelf\" (translate (box shelf-width 300 18) :z",
			wantLine: 4,
		},
	}

	eng := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := preprocessSource(tt.source)
			if got, want := strings.Count(out, "\n"), strings.Count(tt.source, "\n"); got != want {
				t.Fatalf("preprocessSource changed line count: %d, want %d\n%s", got, want, out)
			}

			_, evalErrs, err := eng.Evaluate(tt.source)
			if err != nil {
				t.Fatalf("unexpected fatal error: %v", err)
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected an eval error")
			}
			e := evalErrs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d (message %q)", e.Line, tt.wantLine, e.Message)
			}
			// zygomys reports no column.
			if e.Col != 0 {
				t.Errorf("col = %d, want 0", e.Col)
			}
			if want := fmt.Sprintf("line %d:", tt.wantLine); !strings.Contains(e.Error(), want) {
				t.Errorf("Error() = %q, want it to contain %q", e.Error(), want)
			}
		})
	}
}

func TestEvaluateAllValidationErrors(t *testing.T) {
	eng := NewEngine()

	res := eng.EvaluateAll(`
(defsolid "flat" (box 100 0 0))
(defsolid "ok" (box 1 1 1))
`)
	if res.Graph == nil {
		t.Fatal("expected graph despite validation errors")
	}
	if len(res.Errors) != 2 {
		t.Fatalf("errors = %v, want two box dimension errors", res.Errors)
	}

	flat := res.Graph.MustLookup("flat")
	for i, axis := range []string{"Y", "Z"} {
		e := res.Errors[i]
		if e.Line != 0 || e.Col != 0 {
			t.Errorf("validation error %d has position %d:%d, want none", i, e.Line, e.Col)
		}
		if !strings.Contains(e.Message, "box dimension "+axis) || !strings.Contains(e.Message, "must be positive") {
			t.Errorf("error %d = %q, want box dimension %s to be positive", i, e.Message, axis)
		}
		if !strings.Contains(e.Message, flat.ID.Short()) {
			t.Errorf("error %d = %q, want the box node id", i, e.Message)
		}
		if strings.Contains(e.Error(), "line") {
			t.Errorf("Error() = %q, want no line prefix", e.Error())
		}
	}
}

func TestEvaluateAllTimeoutIsAnError(t *testing.T) {
	cfg := config.Default()
	cfg.EvalTimeout = config.Duration(20 * time.Millisecond)
	eng := NewEngineWithConfig(cfg)
	_, release := hold(eng, "slow")
	defer close(release)

	res := eng.EvaluateAll("slow")
	if res.Graph != nil {
		t.Error("expected no graph after a timeout")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0].Message, "timed out") {
		t.Errorf("errors = %v, want one timeout error", res.Errors)
	}
}

func TestEvaluateCutOffAtConfiguredTimeout(t *testing.T) {
	const limit = 40 * time.Millisecond
	cfg := config.Default()
	cfg.EvalTimeout = config.Duration(limit)
	eng := NewEngineWithConfig(cfg)
	_, release := hold(eng, "slow")
	defer close(release)

	start := time.Now()
	g, evalErrs, err := eng.Evaluate("slow")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrEvalTimeout) {
		t.Fatalf("Evaluate() error = %v, want ErrEvalTimeout", err)
	}
	if !strings.Contains(err.Error(), limit.String()) {
		t.Errorf("error %q should name the %s limit", err, limit)
	}
	if g != nil || evalErrs != nil {
		t.Errorf("expected no graph or eval errors, got %v, %v", g, evalErrs)
	}
	if elapsed < limit {
		t.Errorf("returned after %s, before the %s limit", elapsed, limit)
	}
	if elapsed > limit+2*time.Second {
		t.Errorf("returned after %s, long past the %s limit", elapsed, limit)
	}

	// The engine stays usable after abandoning a run.
	if _, _, err := eng.Evaluate("fast"); err != nil {
		t.Errorf("Evaluate() after timeout error = %v", err)
	}
}

func TestEvaluateSupersededByNewerCall(t *testing.T) {
	eng := NewEngine()
	started, release := hold(eng, "slow")

	var wg sync.WaitGroup
	var staleErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, staleErr = eng.Evaluate("slow")
	}()
	<-started

	g, _, err := eng.Evaluate("fast")
	if err != nil || g == nil {
		t.Fatalf("newer Evaluate() = %v, %v, want a graph", g, err)
	}

	close(release)
	wg.Wait()
	if !errors.Is(staleErr, ErrSuperseded) {
		t.Errorf("older Evaluate() error = %v, want ErrSuperseded", staleErr)
	}
}

func TestEvaluatePanicIsFatal(t *testing.T) {
	eng := NewEngine()
	eng.run = func(string) (*graph.Graph, []EvalError, error) {
		panic("kernel exploded")
	}

	_, evalErrs, err := eng.Evaluate(`(defsolid "a" (box 1 1 1))`)
	if err == nil || !strings.Contains(err.Error(), "kernel exploded") {
		t.Fatalf("Evaluate() error = %v, want the panic value", err)
	}
	if evalErrs != nil {
		t.Errorf("expected no eval errors, got %v", evalErrs)
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "no solid named \"lid\""}
	if s := e.Error(); !strings.Contains(s, "line 5") || !strings.Contains(s, `"lid"`) {
		t.Errorf("Error() = %q, want line and message", s)
	}

	e = EvalError{Message: "no location"}
	if s := e.Error(); strings.Contains(s, "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", s)
	}
}

func TestEngineTimeoutFromConfig(t *testing.T) {
	if got := NewEngine().Timeout(); got != config.DefaultEvalTimeout {
		t.Errorf("NewEngine().Timeout() = %s, want %s", got, config.DefaultEvalTimeout)
	}

	cfg := config.Default()
	cfg.EvalTimeout = config.Duration(750 * time.Millisecond)
	if got := NewEngineWithConfig(cfg).Timeout(); got != 750*time.Millisecond {
		t.Errorf("NewEngineWithConfig().Timeout() = %s, want 750ms", got)
	}

	cfg.EvalTimeout = 0
	if got := NewEngineWithConfig(cfg).Timeout(); got != config.DefaultEvalTimeout {
		t.Errorf("zero EvalTimeout: Timeout() = %s, want default", got)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"unterminated form", "Error on line 3: parser needs more input\n", 3, "parser needs more input"},
		{"lowercase", "error on line 12: missing paren", 12, "missing paren"},
		{"short form", "line 7: bad token", 7, "bad token"},
		{"no line info", `no solid named "lid"`, 0, `no solid named "lid"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errors.New(tt.msg))
			if len(errs) != 1 {
				t.Fatalf("expected one error, got %v", errs)
			}
			if errs[0].Line != tt.wantLine {
				t.Errorf("line = %d, want %d", errs[0].Line, tt.wantLine)
			}
			if errs[0].Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", errs[0].Message, tt.wantMsg)
			}
		})
	}
}
