package training

import "errors"

// Validation errors. Each corresponds to one shape of malformed LayerSpec
// list; HandlerFunc callers map these to 400 with the error text as detail.
var (
	ErrEmptyArchitecture               = errors.New("architecture must contain at least an input and output layer")
	ErrMissingInputOrOutput            = errors.New("architecture must have exactly one input layer at position 0 and one output layer last")
	ErrPositionGap                     = errors.New("layer positions must be contiguous starting at 0")
	ErrActivationOnInput               = errors.New("input layer must not declare an activation")
	ErrSpatialOnNonImageDataset        = errors.New("conv2d and maxpool2d layers require an image-shaped dataset")
	ErrDenseAfterSpatialWithoutFlatten = errors.New("a dense layer may not directly follow a spatial layer without an intervening flatten")
	ErrOutputArityMismatch             = errors.New("output layer neuron count must match the dataset's output arity")
	ErrUnknownActivation               = errors.New("unrecognized activation name")
	ErrUnknownLayerKind                = errors.New("unrecognized layer kind")
	ErrInvalidHyperparameter           = errors.New("invalid hyperparameter value")
)

// Lookup errors, surfaced as 404.
var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrModelNotFound   = errors.New("model not found")
	ErrSessionNotFound = errors.New("session not found")
)

// State errors, surfaced as 409.
var (
	ErrActiveSessionExists = errors.New("an active training session already exists for this model")
	ErrIllegalTransition   = errors.New("illegal session state transition")
	ErrSessionNotReady     = errors.New("session is not in a completed state")
)

// Compilation error, surfaced as 400 (defence in depth against anything
// the validator did not catch).
var ErrCompilationFailed = errors.New("model compilation failed")

// Runtime training failures. These never reach the HTTP layer directly;
// the engine records them into the owning session's ErrorMessage.
var (
	ErrNumericNaN = errors.New("NumericNaN: loss became NaN or infinite")
	ErrDiverged   = errors.New("Diverged: loss exceeded the divergence threshold")
)

// DivergenceThreshold is the loss value above which training is considered
// diverged rather than merely slow to converge.
const DivergenceThreshold = 1e6
