// Package functional drives the built rua binary as a subprocess and
// asserts on its exit code and output, using a godog + cucumber
// feature-file harness with a context-carried test state, built
// around rua's CLI surface (info/search/install/shellcheck/tarcheck/
// upgrade).
package functional

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"
)

type stateKeyType struct{}

var stateKey = stateKeyType{}

type fakePackage struct {
	Name         string   `json:"Name"`
	PackageBase  string   `json:"PackageBase"`
	Version      string   `json:"Version"`
	Description  string   `json:"Description"`
	Depends      []string `json:"Depends"`
	MakeDepends  []string `json:"MakeDepends"`
	CheckDepends []string `json:"CheckDepends"`
}

type testState struct {
	homeDir  string
	binPath  string
	stdout   string
	stderr   string
	exitCode int

	indexServer *httptest.Server
	indexPkgs   map[string]fakePackage
}

func getState(ctx context.Context) *testState {
	if s, ok := ctx.Value(stateKey).(*testState); ok {
		return s
	}
	return nil
}

func setState(ctx context.Context, s *testState) context.Context {
	return context.WithValue(ctx, stateKey, s)
}

func TestFeatures(t *testing.T) {
	binPath := os.Getenv("RUA_TEST_BINARY")
	if binPath == "" {
		t.Skip("RUA_TEST_BINARY not set; build cmd/rua and point this at the binary to run the suite")
	}

	absBin, err := filepath.Abs(binPath)
	if err != nil {
		t.Fatalf("resolving binary path: %v", err)
	}
	binPath = absBin

	opts := &godog.Options{
		Format:   "pretty",
		Paths:    []string{"features"},
		TestingT: t,
	}
	if tags := os.Getenv("RUA_TEST_TAGS"); tags != "" {
		opts.Tags = tags
	}

	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			initializeScenario(ctx, binPath)
		},
		Options: opts,
	}
	if suite.Run() != 0 {
		t.Fatal("functional tests failed")
	}
}

func initializeScenario(ctx *godog.ScenarioContext, binPath string) {
	// Reset the home directory and spin up a fake remote index before
	// each scenario for isolation.
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		homeDir := filepath.Join(os.TempDir(), "rua-functional-"+sc.Id)
		os.RemoveAll(homeDir)
		if err := os.MkdirAll(homeDir, 0o755); err != nil {
			return ctx, err
		}

		state := &testState{
			homeDir:   homeDir,
			binPath:   binPath,
			indexPkgs: make(map[string]fakePackage),
		}
		state.indexServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			serveFakeIndex(w, r, state)
		}))

		return setState(ctx, state), nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		state := getState(ctx)
		if state != nil {
			if state.indexServer != nil {
				state.indexServer.Close()
			}
			os.RemoveAll(state.homeDir)
		}
		return ctx, nil
	})

	ctx.Step(`^a clean rua environment$`, aCleanRuaEnvironment)
	ctx.Step(`^the remote index has "([^"]*)" with no dependencies$`, theRemoteIndexHasPackage)
	ctx.Step(`^I run "([^"]*)"$`, iRun)
	ctx.Step(`^the exit code is (\d+)$`, theExitCodeIs)
	ctx.Step(`^the exit code is not (\d+)$`, theExitCodeIsNot)
	ctx.Step(`^the output contains "([^"]*)"$`, theOutputContains)
	ctx.Step(`^the output does not contain "([^"]*)"$`, theOutputDoesNotContain)
	ctx.Step(`^the error output contains "([^"]*)"$`, theErrorOutputContains)
}

// serveFakeIndex implements just enough of the v=5 RPC protocol (§6)
// for info/search scenarios: type=info looks packages up by arg[]=
// name, type=search substring-matches by name.
func serveFakeIndex(w http.ResponseWriter, r *http.Request, state *testState) {
	q := r.URL.Query()
	var results []fakePackage

	switch q.Get("type") {
	case "info":
		for _, name := range q["arg[]"] {
			if pkg, ok := state.indexPkgs[name]; ok {
				results = append(results, pkg)
			}
		}
	case "search":
		needle := strings.ToLower(q.Get("arg"))
		for _, pkg := range state.indexPkgs {
			if strings.Contains(strings.ToLower(pkg.Name), needle) {
				results = append(results, pkg)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
}
