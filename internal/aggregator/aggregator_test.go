package aggregator

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/proctrack/proctrack/pkg/snapshot"
)

func TestAggregateDuplicates(t *testing.T) {
	observations := []snapshot.Observation{
		{Identity: "chrome.exe", Path: `C:\Chrome\chrome.exe`, IsRunning: true, RunTimeSeconds: 100},
		{Identity: "Code.exe", Path: `C:\VSCode\Code.exe`, IsRunning: true, RunTimeSeconds: 40},
		{Identity: "chrome.exe", Path: `C:\Chrome\chrome.exe`, IsRunning: true, RunTimeSeconds: 150},
	}

	got := Aggregate(observations, nil)
	if len(got) != 2 {
		t.Fatalf("Aggregate() returned %d processes, want 2", len(got))
	}

	chrome := got[0]
	if chrome.Identity != "chrome.exe" || chrome.DisplayName != "Chrome" {
		t.Errorf("first process = %+v, want chrome.exe/Chrome", chrome)
	}
	if chrome.InstanceCount != 2 {
		t.Errorf("InstanceCount = %d, want 2", chrome.InstanceCount)
	}
	if chrome.MaxObservedRunTime != 150 {
		t.Errorf("MaxObservedRunTime = %d, want 150", chrome.MaxObservedRunTime)
	}

	if got[1].Identity != "Code.exe" || got[1].InstanceCount != 1 || got[1].MaxObservedRunTime != 40 {
		t.Errorf("second process = %+v", got[1])
	}
}

func TestAggregateCaseSensitiveIdentity(t *testing.T) {
	observations := []snapshot.Observation{
		{Identity: "Chrome.exe", Path: `C:\a\Chrome.exe`, IsRunning: true},
		{Identity: "chrome.exe", Path: `C:\a\chrome.exe`, IsRunning: true},
	}

	if got := Aggregate(observations, nil); len(got) != 2 {
		t.Errorf("Aggregate() merged identities differing in case: %+v", got)
	}
}

func TestAggregateFirstSeenPathWins(t *testing.T) {
	observations := []snapshot.Observation{
		{Identity: "python", Path: "/usr/bin/python3.12", IsRunning: true, RunTimeSeconds: 5},
		{Identity: "python", Path: "/opt/venv/bin/python", IsRunning: true, RunTimeSeconds: 9},
	}

	got := Aggregate(observations, nil)
	if len(got) != 1 {
		t.Fatalf("Aggregate() returned %d processes, want 1", len(got))
	}
	if got[0].Path != "/usr/bin/python3.12" {
		t.Errorf("Path = %q, want first-seen path", got[0].Path)
	}
	if got[0].MaxObservedRunTime != 9 {
		t.Errorf("MaxObservedRunTime = %d, want 9", got[0].MaxObservedRunTime)
	}
}

func TestAggregateUsesNameFunc(t *testing.T) {
	calls := 0
	name := func(identity, path string) string {
		calls++
		return "label:" + identity
	}

	observations := []snapshot.Observation{
		{Identity: "a", Path: "/a", IsRunning: true},
		{Identity: "a", Path: "/a", IsRunning: true},
		{Identity: "b", Path: "/b", IsRunning: true},
	}

	got := Aggregate(observations, name)
	if got[0].DisplayName != "label:a" || got[1].DisplayName != "label:b" {
		t.Errorf("display names = %q, %q", got[0].DisplayName, got[1].DisplayName)
	}
	if calls != 2 {
		t.Errorf("name func called %d times, want once per identity", calls)
	}
}

func TestAggregateInstanceSum(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		n := rng.Intn(40)
		observations := make([]snapshot.Observation, n)
		for i := range observations {
			observations[i] = snapshot.Observation{
				Identity:       fmt.Sprintf("proc%d", rng.Intn(6)),
				Path:           "/bin/x",
				IsRunning:      true,
				RunTimeSeconds: uint64(rng.Intn(1000)),
			}
		}

		got := Aggregate(observations, nil)
		if total := TotalInstances(got); total != n {
			t.Fatalf("round %d: sum(InstanceCount) = %d, want %d", round, total, n)
		}

		for _, p := range got {
			if p.InstanceCount < 1 {
				t.Errorf("round %d: %s has InstanceCount %d", round, p.Identity, p.InstanceCount)
			}
			var max uint64
			for _, obs := range observations {
				if obs.Identity == p.Identity && obs.RunTimeSeconds > max {
					max = obs.RunTimeSeconds
				}
			}
			if p.MaxObservedRunTime != max {
				t.Errorf("round %d: %s MaxObservedRunTime = %d, want %d", round, p.Identity, p.MaxObservedRunTime, max)
			}
		}
	}
}

func TestSortByDisplayName(t *testing.T) {
	processes := []Process{
		{Identity: "zoom", DisplayName: "Zoom"},
		{Identity: "code", DisplayName: "code"},
		{Identity: "brave", DisplayName: "Brave"},
		{Identity: "Code.exe", DisplayName: "Code"},
	}

	SortByDisplayName(processes)

	want := []string{"brave", "Code.exe", "code", "zoom"}
	for i, p := range processes {
		if p.Identity != want[i] {
			t.Errorf("position %d = %s, want %s", i, p.Identity, want[i])
		}
	}
}
