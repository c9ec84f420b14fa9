package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etalasekita/etalase/jobs"
)

func TestTaskForRecountCoversEverySME(t *testing.T) {
	task, err := TaskFor(jobs.TaskSMERecount)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskSMERecount, task.Type())

	var payload jobs.SMERecountPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Empty(t, payload.SMEIDs)
}

func TestTaskForRejectsUnknownJobs(t *testing.T) {
	_, err := TaskFor(jobs.TaskStoragePurge)
	assert.EqualError(t, err, "jobs cli: unsupported job storage:purge")
}

func TestNilCLIIsNotConfigured(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(t.Context(), jobs.TaskSMERecount)
	assert.Error(t, err)
	_, err = c.InspectQueue(t.Context())
	assert.Error(t, err)
}
