package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCount(t *testing.T, workflow, outcome string) uint64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "wppanel_workflow_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["workflow"] == workflow && labels["outcome"] == outcome {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func TestObserveWorkflow(t *testing.T) {
	var ok error
	ObserveWorkflow("test", time.Now(), &ok)
	failed := errors.New("boom")
	ObserveWorkflow("test", time.Now(), &failed)
	ObserveWorkflow("test", time.Now(), &failed)

	assert.Equal(t, uint64(1), sampleCount(t, "test", OutcomeSuccess))
	assert.Equal(t, uint64(2), sampleCount(t, "test", OutcomeFailure))
}
