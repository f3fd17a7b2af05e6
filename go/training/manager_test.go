package training

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muchq/moonbase/go/neuro/utils"
)

type fakeProvider struct {
	spec DatasetSpec
}

func (f fakeProvider) Spec() DatasetSpec { return f.spec }

func (f fakeProvider) Load(maxSamples int) (*Dataset, error) {
	x := utils.NewTensorFromData([]float64{0, 0, 0, 1, 1, 0, 1, 1}, 4, 2)
	y := utils.NewTensorFromData([]float64{1, 0, 0, 1, 0, 1, 1, 0}, 4, 2)
	return &Dataset{Spec: f.spec, XTrain: x, YTrain: y, XTest: x, YTest: y}, nil
}

func newTestManager() *Manager {
	spec := DatasetSpec{
		ID: "tiny", TaskKind: TaskClassification, InputShape: []int{2}, OutputArity: 2,
		Recommended: Hyperparameters{Epochs: 3, LearningRate: 0.05, BatchSize: 4, Optimizer: "adam"},
	}
	return NewManager(2, 64, map[string]DatasetProvider{"tiny": fakeProvider{spec: spec}}, nil)
}

func tinyArchitecture() []LayerSpec {
	return []LayerSpec{
		{Kind: LayerInput, Position: 0, Neurons: 2},
		{Kind: LayerHidden, Position: 1, Neurons: 4, Activation: "relu"},
		{Kind: LayerOutput, Position: 2, Neurons: 2, Activation: "softmax"},
	}
}

func waitForTerminal(t *testing.T, m *Manager, sessionID string) *TrainingSession {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		session, err := m.GetSession(sessionID, 0)
		require.NoError(t, err)
		if session.Status.Terminal() {
			return session
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("session did not reach a terminal state in time")
	return nil
}

func TestManager_StartTraining_RunsToCompletion(t *testing.T) {
	m := newTestManager()
	session, err := m.StartTraining(StartRequest{ModelID: "model-a", DatasetID: "tiny", Layers: tinyArchitecture()})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, session.Status)

	final := waitForTerminal(t, m, session.SessionID)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Len(t, final.Metrics, 3)
}

func TestManager_DatasetNotFound(t *testing.T) {
	m := newTestManager()
	_, err := m.StartTraining(StartRequest{ModelID: "model-a", DatasetID: "nope", Layers: tinyArchitecture()})
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestManager_ActiveSessionExists(t *testing.T) {
	m := newTestManager()
	_, err := m.StartTraining(StartRequest{ModelID: "model-b", DatasetID: "tiny", Layers: tinyArchitecture()})
	require.NoError(t, err)

	_, err = m.StartTraining(StartRequest{ModelID: "model-b", DatasetID: "tiny", Layers: tinyArchitecture()})
	assert.ErrorIs(t, err, ErrActiveSessionExists)
}

func TestManager_StopIsIdempotentOnTerminalSession(t *testing.T) {
	m := newTestManager()
	session, err := m.StartTraining(StartRequest{ModelID: "model-c", DatasetID: "tiny", Layers: tinyArchitecture()})
	require.NoError(t, err)
	waitForTerminal(t, m, session.SessionID)

	_, err = m.Stop(session.SessionID)
	assert.NoError(t, err)
}

func TestManager_PredictBeforeCompletionFails(t *testing.T) {
	m := newTestManager()
	session, err := m.StartTraining(StartRequest{ModelID: "model-d", DatasetID: "tiny", Layers: tinyArchitecture()})
	require.NoError(t, err)

	_, err = m.Predict(session.SessionID, []float64{0, 1})
	if err != nil {
		assert.ErrorIs(t, err, ErrSessionNotReady)
	}
	waitForTerminal(t, m, session.SessionID)
}

func TestManager_GetSession_NotFound(t *testing.T) {
	m := newTestManager()
	_, err := m.GetSession("does-not-exist", 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_SinceEpochFiltersMetrics(t *testing.T) {
	m := newTestManager()
	session, err := m.StartTraining(StartRequest{ModelID: "model-e", DatasetID: "tiny", Layers: tinyArchitecture()})
	require.NoError(t, err)
	waitForTerminal(t, m, session.SessionID)

	filtered, err := m.GetSession(session.SessionID, 2)
	require.NoError(t, err)
	for _, metric := range filtered.Metrics {
		assert.Greater(t, metric.Epoch, 2)
	}
}
