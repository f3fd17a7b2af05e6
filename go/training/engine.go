package training

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"github.com/muchq/moonbase/go/clock"
	"github.com/muchq/moonbase/go/neuro/utils"
)

// Dataset is a fully materialized, in-memory train/test split plus the
// DatasetSpec that describes it. Providers in go/datasets build these;
// the Engine only ever reads from one.
type Dataset struct {
	Spec   DatasetSpec
	XTrain *utils.Tensor
	YTrain *utils.Tensor
	XTest  *utils.Tensor
	YTest  *utils.Tensor
}

// Engine owns one compiled model, one dataset, and the single
// TrainingSession it is driving. Run executes the full epoch loop;
// Predict is only safe to call once Run has returned.
type Engine struct {
	compiled *CompiledModel
	data     *Dataset
	hp       Hyperparameters
	log      *slog.Logger
	clock    clock.Clock

	mu      sync.RWMutex
	session TrainingSession

	metricsMu sync.Mutex
}

func NewEngine(compiled *CompiledModel, data *Dataset, hp Hyperparameters, sessionID, modelID string) *Engine {
	return &Engine{
		compiled: compiled,
		data:     data,
		hp:       hp,
		log:      slog.Default().With("sessionId", sessionID, "modelId", modelID),
		clock:    clock.NewSystemUtcClock(),
		session: TrainingSession{
			SessionID:               sessionID,
			ModelID:                 modelID,
			DatasetID:               data.Spec.ID,
			Status:                  StatusPending,
			TotalEpochs:             hp.Epochs,
			PollIntervalHintSeconds: pollIntervalHint(StatusPending),
		},
	}
}

// SetClock overrides the engine's time source; intended for tests only.
func (e *Engine) SetClock(c clock.Clock) {
	e.clock = c
}

// Snapshot returns a deep copy of the engine's current session state,
// safe to hand to a poller without risking a partial read.
func (e *Engine) Snapshot() TrainingSession {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := e.session
	s.Metrics = append([]TrainingMetric(nil), e.session.Metrics...)
	return s
}

func (e *Engine) setStatus(status SessionStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Status = status
	e.session.PollIntervalHintSeconds = pollIntervalHint(status)
	if status.Terminal() {
		now := e.clock.Now()
		e.session.EndTime = &now
	}
}

func (e *Engine) setError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.ErrorMessage = err.Error()
}

func (e *Engine) appendMetric(m TrainingMetric) {
	e.metricsMu.Lock()
	defer e.metricsMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Metrics = append(e.session.Metrics, m)
	e.session.CurrentEpoch = m.Epoch
}

func seedFromSessionID(sessionID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sessionID))
	return int64(h.Sum64())
}

// Run executes up to TotalEpochs epochs, honoring handle's pause/stop
// signals at each epoch boundary, and returns the final session snapshot.
// It must be called exactly once per Engine.
func (e *Engine) Run(handle *ControlHandle) TrainingSession {
	e.mu.Lock()
	e.session.StartTime = e.clock.Now()
	e.mu.Unlock()
	e.setStatus(StatusRunning)
	e.log.Info("training started", "epochs", e.hp.Epochs, "optimizer", e.hp.Optimizer)

	optimizer, err := NewOptimizer(e.hp.Optimizer, e.hp.LearningRate)
	if err != nil {
		e.setError(err)
		e.setStatus(StatusFailed)
		return e.Snapshot()
	}
	e.compiled.Model.SetOptimizer(optimizer)

	rng := rand.New(rand.NewSource(seedFromSessionID(e.session.SessionID)))
	numSamples := e.data.XTrain.Shape[0]
	batchSize := e.hp.BatchSize
	if batchSize <= 0 || batchSize > numSamples {
		batchSize = numSamples
	}

	for epoch := 1; epoch <= e.hp.Epochs; epoch++ {
		handle.mu.Lock()
		paused := handle.paused && !handle.stopped
		handle.mu.Unlock()
		if paused {
			e.setStatus(StatusPaused)
			handle.waitIfPaused()
			if !handle.stopRequested() {
				e.setStatus(StatusRunning)
			}
		}
		if handle.stopRequested() {
			e.setStatus(StatusStopped)
			e.log.Info("training stopped", "epoch", epoch-1)
			return e.Snapshot()
		}

		avgLoss := e.runEpoch(rng, batchSize)

		if math.IsNaN(avgLoss) || math.IsInf(avgLoss, 0) {
			e.setError(fmt.Errorf("%w: avg loss %v at epoch %d", ErrNumericNaN, avgLoss, epoch))
			e.appendMetric(TrainingMetric{Epoch: epoch, Loss: avgLoss, Timestamp: e.clock.Now()})
			e.setStatus(StatusFailed)
			e.log.Error("training failed", "reason", "NumericNaN", "epoch", epoch)
			return e.Snapshot()
		}
		if avgLoss > DivergenceThreshold {
			e.setError(fmt.Errorf("%w: avg loss %v at epoch %d", ErrDiverged, avgLoss, epoch))
			e.appendMetric(TrainingMetric{Epoch: epoch, Loss: avgLoss, Timestamp: e.clock.Now()})
			e.setStatus(StatusFailed)
			e.log.Error("training failed", "reason", "Diverged", "epoch", epoch)
			return e.Snapshot()
		}

		metric := TrainingMetric{Epoch: epoch, Loss: avgLoss, Timestamp: e.clock.Now()}
		if e.compiled.TaskKind == TaskClassification {
			_, accuracy := e.compiled.Model.Evaluate(e.data.XTest, e.data.YTest)
			metric.Accuracy = &accuracy
		}
		e.appendMetric(metric)

		if handle.stopRequested() {
			e.setStatus(StatusStopped)
			e.log.Info("training stopped", "epoch", epoch)
			return e.Snapshot()
		}
	}

	e.setStatus(StatusCompleted)
	e.log.Info("training completed", "epochs", e.hp.Epochs)
	return e.Snapshot()
}

func (e *Engine) runEpoch(rng *rand.Rand, batchSize int) float64 {
	numSamples := e.data.XTrain.Shape[0]
	indices := rng.Perm(numSamples)

	totalLoss := 0.0
	numBatches := 0
	for start := 0; start < numSamples; start += batchSize {
		end := start + batchSize
		if end > numSamples {
			end = numSamples
		}
		xBatch, yBatch := gatherBatch(e.data.XTrain, e.data.YTrain, indices[start:end])
		loss := e.compiled.Model.Train(xBatch, yBatch)
		totalLoss += loss
		numBatches++
	}
	if numBatches == 0 {
		return 0
	}
	return totalLoss / float64(numBatches)
}

// gatherBatch copies the rows named by indices out of x/y into new
// contiguous tensors sized (len(indices), features).
func gatherBatch(x, y *utils.Tensor, indices []int) (*utils.Tensor, *utils.Tensor) {
	xFeatures := x.Shape[1]
	yFeatures := y.Shape[1]

	xBatch := utils.NewTensor(len(indices), xFeatures)
	yBatch := utils.NewTensor(len(indices), yFeatures)

	for bi, idx := range indices {
		copy(xBatch.Data[bi*xFeatures:(bi+1)*xFeatures], x.Data[idx*xFeatures:(idx+1)*xFeatures])
		copy(yBatch.Data[bi*yFeatures:(bi+1)*yFeatures], y.Data[idx*yFeatures:(idx+1)*yFeatures])
	}
	return xBatch, yBatch
}

// Predict runs a single inference pass. Only safe to call once Run has
// returned with a completed status; the model's parameters are frozen
// at that point so concurrent predicts are safe.
func (e *Engine) Predict(features []float64) (*PredictionResult, error) {
	if e.Snapshot().Status != StatusCompleted {
		return nil, ErrSessionNotReady
	}

	input := utils.NewTensorFromData(features, 1, len(features))
	output := e.compiled.Model.Predict(input)

	if e.compiled.TaskKind == TaskRegression {
		return &PredictionResult{Prediction: output.Data[0]}, nil
	}

	probs := softmaxRow(output.Data)
	maxIdx, maxVal := 0, probs[0]
	for i, p := range probs {
		if p > maxVal {
			maxVal, maxIdx = p, i
		}
	}
	idx := maxIdx
	conf := maxVal
	return &PredictionResult{
		Prediction:    float64(maxIdx),
		ClassIndex:    &idx,
		Probabilities: probs,
		Confidence:    &conf,
	}, nil
}

func softmaxRow(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(logits))
	sum := 0.0
	for i, v := range logits {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
