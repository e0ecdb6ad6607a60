package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tbranagh/storyloom/internal/handlers"
	"github.com/tbranagh/storyloom/pkg/session"
	"github.com/tbranagh/storyloom/pkg/world"
)

// Error handling modes for a suite run.
const (
	ErrorHandlingContinue = "continue"
	ErrorHandlingExit     = "exit"
)

// Runner executes test suites against a live API.
type Runner struct {
	BaseURL           string
	Timeout           time.Duration
	ErrorHandlingMode string
	Logger            func(format string, args ...interface{})

	client *http.Client
}

func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimRight(baseURL, "/"),
		Timeout:           30 * time.Second,
		ErrorHandlingMode: ErrorHandlingContinue,
		Logger:            func(string, ...interface{}) {},
		client:            &http.Client{},
	}
}

// LoadTestSuite reads one case file into a runnable job.
func LoadTestSuite(path string) (TestJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TestJob{}, fmt.Errorf("reading case file %s: %w", path, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(data, &suite); err != nil {
		return TestJob{}, fmt.Errorf("parsing case file %s: %w", path, err)
	}
	if suite.Name == "" {
		suite.Name = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if suite.World == "" {
		return TestJob{}, fmt.Errorf("case file %s names no world", path)
	}
	if len(suite.Steps) == 0 {
		return TestJob{}, fmt.Errorf("case file %s has no steps", path)
	}

	return TestJob{Name: suite.Name, Suite: suite, CaseFile: path}, nil
}

// RunSuite creates a session, plays every step through it, and deletes
// the session afterwards. In "exit" mode the first failed step aborts
// the suite; in "continue" mode all steps run and failures accumulate.
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	result := TestRunResult{}
	start := time.Now()

	rec, err := r.createSession(ctx, suite.World, suite.Sheet)
	if err != nil {
		result.Error = fmt.Errorf("creating session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.SessionID = rec.ID
	defer r.deleteSession(rec.ID)

	failures := 0
	for i, step := range suite.Steps {
		stepName := step.Name
		if stepName == "" {
			stepName = fmt.Sprintf("step %d: %s %s", i+1, step.Verb, step.Object)
		}

		stepStart := time.Now()
		stepResult := TestResult{TestName: suite.Name, StepName: stepName}

		resp, err := r.sendCommand(ctx, rec.ID, step.Verb, step.Object)
		if err != nil {
			stepResult.Error = err
		} else {
			stepResult.ResponseText = resp.Message
			stepResult.Error = r.checkStep(ctx, rec.ID, step, resp)
		}
		stepResult.Success = stepResult.Error == nil
		stepResult.Duration = time.Since(stepStart)
		result.Results = append(result.Results, stepResult)

		if !stepResult.Success {
			failures++
			r.Logger("  step %q failed: %v", stepName, stepResult.Error)
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
		}
	}

	result.Duration = time.Since(start)
	if failures > 0 {
		result.Error = fmt.Errorf("%d of %d steps failed", failures, len(suite.Steps))
	}
	return result, result.Error
}

// checkStep verifies a step's expectations. Message checks use the
// command response; state checks fetch the persisted record so they see
// exactly what survived the save.
func (r *Runner) checkStep(ctx context.Context, id uuid.UUID, step TestStep, resp *handlers.CommandResponse) error {
	var problems []string
	expect := step.Expectations

	if expect.Success != nil && resp.Success != *expect.Success {
		problems = append(problems, fmt.Sprintf("success = %v, want %v", resp.Success, *expect.Success))
	}
	if expect.Turn != nil && resp.Turn != *expect.Turn {
		problems = append(problems, fmt.Sprintf("turn = %d, want %d", resp.Turn, *expect.Turn))
	}

	allText := resp.Message + "\n" + strings.Join(resp.PhaseMessages, "\n")
	for _, want := range expect.MessageContains {
		if !strings.Contains(resp.Message, want) {
			problems = append(problems, fmt.Sprintf("message %q does not contain %q", resp.Message, want))
		}
	}
	for _, bad := range expect.MessageNotContains {
		if strings.Contains(allText, bad) {
			problems = append(problems, fmt.Sprintf("response contains forbidden text %q", bad))
		}
	}
	for _, want := range expect.PhaseContains {
		if !strings.Contains(strings.Join(resp.PhaseMessages, "\n"), want) {
			problems = append(problems, fmt.Sprintf("phase messages %v do not contain %q", resp.PhaseMessages, want))
		}
	}

	if needsRecord(expect) {
		rec, err := r.getSession(ctx, id)
		if err != nil {
			return fmt.Errorf("fetching session for state checks: %w", err)
		}
		problems = append(problems, checkState(expect, rec)...)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

func needsRecord(e Expectations) bool {
	return e.PlayerLocation != nil || e.PlayerHealth != nil ||
		len(e.Inventory) > 0 || len(e.ActorLocations) > 0
}

func checkState(expect Expectations, rec *session.Record) []string {
	var problems []string

	player := rec.Snapshot.Actors[world.PlayerID]
	if player == nil {
		return []string{"snapshot has no player actor"}
	}

	if expect.PlayerLocation != nil && player.Location != *expect.PlayerLocation {
		problems = append(problems, fmt.Sprintf("player location = %q, want %q", player.Location, *expect.PlayerLocation))
	}
	if expect.PlayerHealth != nil && player.Health != *expect.PlayerHealth {
		problems = append(problems, fmt.Sprintf("player health = %d, want %d", player.Health, *expect.PlayerHealth))
	}

	if len(expect.Inventory) > 0 {
		var held []string
		for id, item := range rec.Snapshot.Items {
			if item.Location == world.PlayerID {
				held = append(held, id)
			}
		}
		sort.Strings(held)
		want := append([]string(nil), expect.Inventory...)
		sort.Strings(want)
		if !equalStrings(held, want) {
			problems = append(problems, fmt.Sprintf("inventory = %v, want %v", held, want))
		}
	}

	for actorID, wantLoc := range expect.ActorLocations {
		actor := rec.Snapshot.Actors[actorID]
		if actor == nil {
			problems = append(problems, fmt.Sprintf("snapshot has no actor %q", actorID))
			continue
		}
		if actor.Location != wantLoc {
			problems = append(problems, fmt.Sprintf("actor %q location = %q, want %q", actorID, actor.Location, wantLoc))
		}
	}

	return problems
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// HTTP plumbing

func (r *Runner) createSession(ctx context.Context, worldFile, sheet string) (*session.Record, error) {
	body, err := json.Marshal(handlers.CreateSessionRequest{World: worldFile, Sheet: sheet})
	if err != nil {
		return nil, err
	}

	var rec session.Record
	if err := r.do(ctx, http.MethodPost, "/v1/sessions", body, http.StatusCreated, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Runner) getSession(ctx context.Context, id uuid.UUID) (*session.Record, error) {
	var rec session.Record
	if err := r.do(ctx, http.MethodGet, "/v1/sessions/"+id.String(), nil, http.StatusOK, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Runner) deleteSession(id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
	defer cancel()
	if err := r.do(ctx, http.MethodDelete, "/v1/sessions/"+id.String(), nil, http.StatusNoContent, nil); err != nil {
		r.Logger("  cleanup: failed to delete session %s: %v", id, err)
	}
}

func (r *Runner) sendCommand(ctx context.Context, id uuid.UUID, verb, object string) (*handlers.CommandResponse, error) {
	body, err := json.Marshal(handlers.CommandRequest{Verb: verb, Object: object})
	if err != nil {
		return nil, err
	}

	var resp handlers.CommandResponse
	if err := r.do(ctx, http.MethodPost, "/v1/sessions/"+id.String()+"/command", body, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Runner) do(ctx context.Context, method, path string, body []byte, wantStatus int, out any) error {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != wantStatus {
		var apiErr handlers.ErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
		}
	}
	return nil
}
