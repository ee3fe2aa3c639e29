package scheduler

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
	runs int
	err  error
}

func (j *stubJob) Name() string { return j.name }
func (j *stubJob) Run() error {
	j.runs++
	return j.err
}

func TestAddJob(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("0 30 8 * * *", &stubJob{name: "daily"}))
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	assert.Error(t, s.AddJob("not a schedule", &stubJob{name: "broken"}))
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop())

	job := &stubJob{name: "immediate"}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)
	assert.Equal(t, 1, s.RunCount("immediate"))

	failing := &stubJob{name: "failing", err: errors.New("boom")}
	assert.Error(t, s.RunNow(failing))
	// A failed run still counts as an execution
	assert.Equal(t, 1, s.RunCount("failing"))
}

func TestRunCount_UnknownJob(t *testing.T) {
	s := New(zerolog.Nop())
	assert.Equal(t, 0, s.RunCount("never-registered"))
}
