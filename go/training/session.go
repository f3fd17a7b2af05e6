package training

import "time"

// TaskKind distinguishes classification sessions (which track accuracy
// and produce class probabilities) from regression sessions.
type TaskKind string

const (
	TaskClassification TaskKind = "classification"
	TaskRegression     TaskKind = "regression"
)

// DatasetSpec describes a registered dataset without exposing its
// underlying samples. It is immutable once registered.
type DatasetSpec struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	TaskKind    TaskKind        `json:"task_kind"`
	InputShape  []int           `json:"input_shape"` // len==1 for tabular, len==3 (channels,h,w) for image
	OutputArity int             `json:"output_arity"`
	NumSamples  int             `json:"num_samples"`
	Recommended Hyperparameters `json:"recommended"`
}

// Hyperparameters is the set of knobs a training request may override;
// zero values mean "use the dataset's recommendation".
type Hyperparameters struct {
	Epochs       int     `json:"epochs"`
	LearningRate float64 `json:"learning_rate"`
	BatchSize    int     `json:"batch_size"`
	Optimizer    string  `json:"optimizer"`
}

// WithOverrides returns a copy of rec with any non-zero field of override
// substituted in.
func (rec Hyperparameters) WithOverrides(override Hyperparameters) Hyperparameters {
	out := rec
	if override.Epochs != 0 {
		out.Epochs = override.Epochs
	}
	if override.LearningRate != 0 {
		out.LearningRate = override.LearningRate
	}
	if override.BatchSize != 0 {
		out.BatchSize = override.BatchSize
	}
	if override.Optimizer != "" {
		out.Optimizer = override.Optimizer
	}
	return out
}

// SessionStatus is the set of states a TrainingSession passes through.
// completed, stopped, and failed are absorbing.
type SessionStatus string

const (
	StatusPending   SessionStatus = "pending"
	StatusRunning   SessionStatus = "running"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
	StatusStopped   SessionStatus = "stopped"
	StatusFailed    SessionStatus = "failed"
)

func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusStopped || s == StatusFailed
}

// TrainingMetric is one epoch's recorded outcome. Accuracy is nil for
// regression tasks and for any epoch accuracy was not computed on.
type TrainingMetric struct {
	Epoch     int       `json:"epoch"`
	Loss      float64   `json:"loss"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TrainingSession is the live progress record for one training run. The
// owning Engine is the only writer of Status/CurrentEpoch/EndTime/
// ErrorMessage/Metrics; everyone else reads a snapshot via Manager.
type TrainingSession struct {
	SessionID               string           `json:"session_id"`
	ModelID                 string           `json:"model_id"`
	DatasetID               string           `json:"dataset_id"`
	Status                  SessionStatus    `json:"status"`
	TotalEpochs             int              `json:"total_epochs"`
	CurrentEpoch            int              `json:"current_epoch"`
	StartTime               time.Time        `json:"start_time"`
	EndTime                 *time.Time       `json:"end_time,omitempty"`
	Metrics                 []TrainingMetric `json:"metrics"`
	ErrorMessage            string           `json:"error_message,omitempty"`
	PollIntervalHintSeconds float64          `json:"poll_interval_hint_seconds"`
}

// pollIntervalHint returns 1.5s while the session is still progressing
// and 5.0s once it has reached a terminal state.
func pollIntervalHint(status SessionStatus) float64 {
	if status.Terminal() {
		return 5.0
	}
	return 1.5
}

// PredictionResult is the response shape for a predict call. Probabilities
// and Confidence are populated only for classification sessions.
type PredictionResult struct {
	Prediction    float64   `json:"prediction"`
	ClassIndex    *int      `json:"class_index,omitempty"`
	Probabilities []float64 `json:"probabilities,omitempty"`
	Confidence    *float64  `json:"confidence,omitempty"`
}
