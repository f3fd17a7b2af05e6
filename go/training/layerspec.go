package training

import "fmt"

// LayerKind is the closed set of architecture building blocks the
// compiler understands. An unrecognized kind is a validation error,
// never a silent no-op.
type LayerKind string

const (
	LayerInput     LayerKind = "input"
	LayerHidden    LayerKind = "hidden"
	LayerOutput    LayerKind = "output"
	LayerDropout   LayerKind = "dropout"
	LayerConv2D    LayerKind = "conv2d"
	LayerMaxPool2D LayerKind = "maxpool2d"
	LayerFlatten   LayerKind = "flatten"
)

var validActivations = map[string]bool{
	"relu": true, "sigmoid": true, "tanh": true, "softmax": true,
	"linear": true, "elu": true, "selu": true, "softplus": true,
	"gelu": true, "leaky_relu": true,
}

// LayerSpec is one entry of a declared architecture, as received over
// HTTP. Which fields are meaningful depends on Kind; Validate enforces
// that combination.
type LayerSpec struct {
	Kind       LayerKind `json:"type"`
	Position   int       `json:"position"`
	Neurons    int       `json:"neurons,omitempty"`
	Activation string    `json:"activation,omitempty"`
	Rate       float64   `json:"rate,omitempty"`
	Filters    int       `json:"filters,omitempty"`
	Kernel     int       `json:"kernel,omitempty"`
	Pool       int       `json:"pool,omitempty"`
}

// Validate checks layers against spec and returns a canonical,
// position-renumbered copy. Canonicalization lower-cases activation
// names, fills the output layer's Neurons from spec.OutputArity when
// the caller left it unset, and never mutates the input slice.
func Validate(layerSpecs []LayerSpec, spec DatasetSpec) ([]LayerSpec, error) {
	if len(layerSpecs) < 2 {
		return nil, ErrEmptyArchitecture
	}

	ordered := make([]LayerSpec, len(layerSpecs))
	copy(ordered, layerSpecs)
	sortByPosition(ordered)

	for i, l := range ordered {
		if l.Position != i {
			return nil, fmt.Errorf("%w: expected position %d, got %d", ErrPositionGap, i, l.Position)
		}
		ordered[i].Position = i
	}

	if ordered[0].Kind != LayerInput {
		return nil, fmt.Errorf("%w: first layer must be kind=input", ErrMissingInputOrOutput)
	}
	if ordered[len(ordered)-1].Kind != LayerOutput {
		return nil, fmt.Errorf("%w: last layer must be kind=output", ErrMissingInputOrOutput)
	}
	if ordered[0].Activation != "" {
		return nil, ErrActivationOnInput
	}

	isImageDataset := len(spec.InputShape) == 3

	sawSpatialSinceFlatten := false
	for i := 1; i < len(ordered); i++ {
		l := &ordered[i]
		switch l.Kind {
		case LayerHidden, LayerOutput:
			if l.Activation == "" {
				return nil, fmt.Errorf("%w: layer %d (%s) requires an activation", ErrInvalidHyperparameter, i, l.Kind)
			}
			l.Activation = lower(l.Activation)
			if !validActivations[l.Activation] {
				return nil, fmt.Errorf("%w: %q", ErrUnknownActivation, l.Activation)
			}
			if sawSpatialSinceFlatten {
				return nil, ErrDenseAfterSpatialWithoutFlatten
			}
			if l.Kind == LayerOutput {
				if l.Neurons == 0 {
					l.Neurons = spec.OutputArity
				}
				if l.Neurons != spec.OutputArity {
					return nil, fmt.Errorf("%w: got %d, want %d", ErrOutputArityMismatch, l.Neurons, spec.OutputArity)
				}
			} else if l.Neurons <= 0 {
				return nil, fmt.Errorf("%w: hidden layer %d must have neurons>0", ErrInvalidHyperparameter, i)
			}
		case LayerDropout:
			if l.Rate < 0 || l.Rate >= 1 {
				return nil, fmt.Errorf("%w: dropout rate must be in [0,1)", ErrInvalidHyperparameter)
			}
		case LayerConv2D:
			if !isImageDataset {
				return nil, ErrSpatialOnNonImageDataset
			}
			if l.Filters <= 0 || l.Kernel <= 0 {
				return nil, fmt.Errorf("%w: conv2d requires filters>0 and kernel>0", ErrInvalidHyperparameter)
			}
			sawSpatialSinceFlatten = true
		case LayerMaxPool2D:
			if !isImageDataset {
				return nil, ErrSpatialOnNonImageDataset
			}
			if l.Pool <= 0 {
				return nil, fmt.Errorf("%w: maxpool2d requires pool>0", ErrInvalidHyperparameter)
			}
			sawSpatialSinceFlatten = true
		case LayerFlatten:
			sawSpatialSinceFlatten = false
		case LayerInput:
			return nil, fmt.Errorf("%w: input layer must be first", ErrMissingInputOrOutput)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownLayerKind, l.Kind)
		}
	}

	return ordered, nil
}

func sortByPosition(layers []LayerSpec) {
	for i := 1; i < len(layers); i++ {
		for j := i; j > 0 && layers[j].Position < layers[j-1].Position; j-- {
			layers[j], layers[j-1] = layers[j-1], layers[j]
		}
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
