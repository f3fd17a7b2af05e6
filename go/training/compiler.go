package training

import (
	"fmt"
	"math/rand"

	"github.com/muchq/moonbase/go/neuro/activations"
	"github.com/muchq/moonbase/go/neuro/layers"
	"github.com/muchq/moonbase/go/neuro/loss"
	"github.com/muchq/moonbase/go/neuro/network"
)

// CompiledModel pairs an executable go/neuro model with the loss it was
// compiled against and the RNG seed that produced its initial parameters,
// so a given architecture+seed is reproducible.
type CompiledModel struct {
	Model    *network.Model
	Loss     loss.Loss
	TaskKind TaskKind
	Seed     int64
}

func buildActivation(name string) (activations.Activation, error) {
	switch name {
	case "relu":
		return activations.NewReLU(), nil
	case "leaky_relu":
		return activations.NewLeakyReLU(0.01), nil
	case "elu":
		return activations.NewELU(1.0), nil
	case "selu":
		return activations.NewSELU(), nil
	case "softplus":
		return activations.NewSoftplus(), nil
	case "gelu":
		return activations.NewGELU(), nil
	case "linear":
		return activations.NewLinear(), nil
	case "sigmoid":
		return activations.NewSigmoid(), nil
	case "tanh":
		return activations.NewTanh(), nil
	case "softmax":
		return activations.NewSoftmax(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
	}
}

// Compile turns a canonical (already-Validated) layer list into an
// executable model paired with the loss appropriate for spec.TaskKind.
//
// For classification with a softmax output, the output Dense layer is
// built with a nil activation and paired with SoftmaxCrossEntropy, which
// applies softmax internally: stacking a Softmax activation in front of
// that loss would apply softmax twice. A classification output declared
// linear is built with the Linear activation and its logits are paired
// with the same loss.
func Compile(canonical []LayerSpec, spec DatasetSpec, seed int64) (*CompiledModel, error) {
	rng := rand.New(rand.NewSource(seed))
	model := network.NewModel()

	channels, height, width := 0, 0, 0
	features := 0
	if len(spec.InputShape) == 3 {
		channels, height, width = spec.InputShape[0], spec.InputShape[1], spec.InputShape[2]
	} else if len(spec.InputShape) == 1 {
		features = spec.InputShape[0]
	} else {
		return nil, fmt.Errorf("%w: unsupported input shape %v", ErrCompilationFailed, spec.InputShape)
	}

	outputIsSoftmax := false
	outputActivation := ""

	for i, l := range canonical {
		switch l.Kind {
		case LayerInput:
			continue
		case LayerConv2D:
			conv := layers.NewConv2D(rng, channels, l.Filters, []int{l.Kernel, l.Kernel}, 1, "same", true)
			model.Add(conv)
			channels = l.Filters
		case LayerMaxPool2D:
			model.Add(layers.NewMaxPool2D([]int{l.Pool, l.Pool}, l.Pool, "valid"))
			height, width = height/l.Pool, width/l.Pool
		case LayerFlatten:
			model.Add(layers.NewFlatten())
			features = channels * height * width
		case LayerDropout:
			model.Add(layers.NewDropout(rng, l.Rate))
		case LayerHidden:
			act, err := buildActivation(l.Activation)
			if err != nil {
				return nil, err
			}
			model.Add(layers.NewDense(rng, features, l.Neurons, act))
			features = l.Neurons
		case LayerOutput:
			isLast := i == len(canonical)-1
			if !isLast {
				return nil, fmt.Errorf("%w: output layer must be last", ErrCompilationFailed)
			}
			outputActivation = l.Activation
			if l.Activation == "softmax" {
				outputIsSoftmax = true
				model.Add(layers.NewDense(rng, features, l.Neurons, nil))
			} else {
				act, err := buildActivation(l.Activation)
				if err != nil {
					return nil, err
				}
				model.Add(layers.NewDense(rng, features, l.Neurons, act))
			}
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownLayerKind, l.Kind)
		}
	}

	var lossFn loss.Loss
	switch spec.TaskKind {
	case TaskClassification:
		if !outputIsSoftmax && outputActivation != "linear" {
			return nil, fmt.Errorf("%w: classification output layer must use softmax or linear logits", ErrCompilationFailed)
		}
		lossFn = loss.NewSoftmaxCrossEntropy()
	case TaskRegression:
		lossFn = loss.NewMSE()
	default:
		return nil, fmt.Errorf("%w: unknown task kind %q", ErrCompilationFailed, spec.TaskKind)
	}
	model.SetLoss(lossFn)

	return &CompiledModel{Model: model, Loss: lossFn, TaskKind: spec.TaskKind, Seed: seed}, nil
}

// NewOptimizer constructs the named optimizer. name must be one of
// {adam, sgd, rmsprop, adagrad}.
func NewOptimizer(name string, lr float64) (network.Optimizer, error) {
	switch name {
	case "adam":
		return network.NewAdam(lr), nil
	case "sgd":
		return network.NewSGD(lr, 0.9), nil
	case "rmsprop":
		return network.NewRMSprop(lr), nil
	case "adagrad":
		return network.NewAdagrad(lr), nil
	default:
		return nil, fmt.Errorf("%w: unknown optimizer %q", ErrInvalidHyperparameter, name)
	}
}
