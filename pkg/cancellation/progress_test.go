package cancellation

import (
	"testing"

	"subtrackr-be/internal/entity"
)

func TestProgressForBounds(t *testing.T) {
	tests := []struct {
		name        string
		status      entity.RequestStatus
		attempts    int
		maxAttempts int
		want        int
	}{
		{"pending starts at zero", entity.RequestStatusPending, 0, 3, 0},
		{"first processing attempt", entity.RequestStatusProcessing, 1, 3, 10},
		{"requires manual parks below terminal", entity.RequestStatusRequiresManual, 3, 3, 90},
		{"completed is full", entity.RequestStatusCompleted, 1, 3, 100},
		{"cancelled is full", entity.RequestStatusCancelled, 0, 3, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProgressFor(tt.status, tt.attempts, tt.maxAttempts); got != tt.want {
				t.Errorf("ProgressFor(%s, %d, %d) = %d, want %d", tt.status, tt.attempts, tt.maxAttempts, got, tt.want)
			}
		})
	}
}

// Walks every path the state machine allows and checks the bar never moves
// backwards along any of them.
func TestProgressForMonotoneAlongLifecycle(t *testing.T) {
	maxAttempts := 3

	paths := [][]struct {
		status   entity.RequestStatus
		attempts int
	}{
		{ // success on first attempt
			{entity.RequestStatusPending, 0},
			{entity.RequestStatusProcessing, 1},
			{entity.RequestStatusCompleted, 1},
		},
		{ // fail, fail, fail, escalate, confirm
			{entity.RequestStatusPending, 0},
			{entity.RequestStatusProcessing, 1},
			{entity.RequestStatusFailed, 1},
			{entity.RequestStatusProcessing, 2},
			{entity.RequestStatusFailed, 2},
			{entity.RequestStatusProcessing, 3},
			{entity.RequestStatusRequiresManual, 3},
			{entity.RequestStatusCompleted, 3},
		},
		{ // manual-only provider
			{entity.RequestStatusPending, 0},
			{entity.RequestStatusProcessing, 1},
			{entity.RequestStatusRequiresManual, 1},
			{entity.RequestStatusCancelled, 1},
		},
	}

	for i, path := range paths {
		prev := -1
		for _, step := range path {
			got := ProgressFor(step.status, step.attempts, maxAttempts)
			if got < prev {
				t.Errorf("path %d: progress decreased at %s/%d: %d -> %d", i, step.status, step.attempts, prev, got)
			}
			if got < 0 || got > 100 {
				t.Errorf("path %d: progress %d out of range at %s", i, got, step.status)
			}
			prev = got
		}
	}
}

func TestProgressMessageNeverEmpty(t *testing.T) {
	statuses := []entity.RequestStatus{
		entity.RequestStatusPending,
		entity.RequestStatusProcessing,
		entity.RequestStatusFailed,
		entity.RequestStatusRequiresManual,
		entity.RequestStatusCompleted,
		entity.RequestStatusCancelled,
	}
	methods := []entity.CancellationMethod{entity.MethodAPI, entity.MethodWebAutomation, entity.MethodManual}

	for _, status := range statuses {
		for _, method := range methods {
			if msg := ProgressMessage(status, method, 1, 3); msg == "" {
				t.Errorf("empty message for status %s method %s", status, method)
			}
		}
	}
}

func TestBuildManualInstructionsAlwaysHasSteps(t *testing.T) {
	tests := []struct {
		name     string
		provider *entity.Provider
	}{
		{"unknown provider", nil},
		{"provider without curated steps", &entity.Provider{Slug: "acme", Name: "Acme"}},
		{"provider with curated steps", &entity.Provider{
			Slug:        "netflix",
			Name:        "Netflix",
			ManualSteps: []string{"Go to Account", "Click Cancel Membership"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mi := BuildManualInstructions(tt.provider, "Acme Corp")
			if mi == nil || len(mi.Steps) == 0 {
				t.Fatal("instructions must carry at least one step")
			}
		})
	}
}

func TestBuildManualInstructionsKeepsCuratedSteps(t *testing.T) {
	p := &entity.Provider{
		Name:         "Spotify",
		ManualSteps:  []string{"Open spotify.com/account", "Choose Change plan", "Pick Cancel Premium"},
		ContactEmail: "support@spotify.com",
	}
	mi := BuildManualInstructions(p, "SPOTIFY AB")
	if len(mi.Steps) != 3 {
		t.Fatalf("curated steps replaced, got %d steps", len(mi.Steps))
	}
	if mi.ContactEmail != "support@spotify.com" {
		t.Errorf("contact email not carried over")
	}
}
