package model

import "testing"

func TestTaskStatus_IsActive(t *testing.T) {
	tests := []struct {
		status   TaskStatus
		expected bool
	}{
		{TaskStatusPending, false},
		{TaskStatusStarting, true},
		{TaskStatusDownloading, true},
		{TaskStatusStopping, true},
		{TaskStatusStopped, false},
		{TaskStatusCompleted, false},
		{TaskStatusError, false},
	}

	for _, test := range tests {
		if result := test.status.IsActive(); result != test.expected {
			t.Errorf("TaskStatus(%s).IsActive() = %v, expected %v", test.status, result, test.expected)
		}
	}
}

func TestTaskStatus_IsFinished(t *testing.T) {
	tests := []struct {
		status   TaskStatus
		expected bool
	}{
		{TaskStatusPending, false},
		{TaskStatusStarting, false},
		{TaskStatusDownloading, false},
		{TaskStatusStopping, false},
		{TaskStatusStopped, true},
		{TaskStatusCompleted, true},
		{TaskStatusError, true},
	}

	for _, test := range tests {
		if result := test.status.IsFinished(); result != test.expected {
			t.Errorf("TaskStatus(%s).IsFinished() = %v, expected %v", test.status, result, test.expected)
		}
	}
}

func TestTaskStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to TaskStatus
		expected bool
	}{
		{TaskStatusPending, TaskStatusStarting, true},
		{TaskStatusPending, TaskStatusStopped, true},
		{TaskStatusPending, TaskStatusCompleted, false},
		{TaskStatusStarting, TaskStatusDownloading, true},
		{TaskStatusStarting, TaskStatusError, true},
		{TaskStatusDownloading, TaskStatusCompleted, true},
		{TaskStatusDownloading, TaskStatusStopping, true},
		{TaskStatusDownloading, TaskStatusPending, false},
		{TaskStatusStopping, TaskStatusStopped, true},
		{TaskStatusStopping, TaskStatusDownloading, false},
		{TaskStatusCompleted, TaskStatusError, false},
		{TaskStatusError, TaskStatusStarting, false},
		{TaskStatusDownloading, TaskStatusDownloading, false},
	}

	for _, test := range tests {
		if result := test.from.CanTransition(test.to); result != test.expected {
			t.Errorf("%s -> %s = %v, expected %v", test.from, test.to, result, test.expected)
		}
	}
}

func TestTaskStatus_String(t *testing.T) {
	if result := TaskStatusDownloading.String(); result != "Downloading" {
		t.Errorf("TaskStatus.String() = %s, expected Downloading", result)
	}
}
