package runner

import (
	"time"

	"github.com/google/uuid"
)

// TestSuite defines a complete integration test scenario: one session
// against a live API, played through a fixed sequence of commands.
type TestSuite struct {
	Name  string     `json:"name"`
	World string     `json:"world"`
	Sheet string     `json:"sheet,omitempty"`
	Steps []TestStep `json:"steps"`
}

// TestStep defines a single command and its expected outcomes.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Verb         string       `json:"verb"`
	Object       string       `json:"object,omitempty"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes. Message
// checks inspect the command response; state checks fetch the session
// record and inspect the world snapshot.
type Expectations struct {
	Success            *bool    `json:"success,omitempty"`
	Turn               *int     `json:"turn,omitempty"`
	MessageContains    []string `json:"message_contains,omitempty"`
	MessageNotContains []string `json:"message_not_contains,omitempty"`
	PhaseContains      []string `json:"phase_contains,omitempty"`

	PlayerLocation *string           `json:"player_location,omitempty"`
	PlayerHealth   *int              `json:"player_health,omitempty"`
	Inventory      []string          `json:"inventory,omitempty"`
	ActorLocations map[string]string `json:"actor_locations,omitempty"`
}

// TestResult contains the outcome of running a test step.
type TestResult struct {
	TestName     string
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
}

// TestJob represents a test suite to be executed.
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite.
type TestRunResult struct {
	Job       TestJob
	SessionID uuid.UUID
	Results   []TestResult
	Duration  time.Duration
	Error     error
}
