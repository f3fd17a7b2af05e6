package layers

import (
	"fmt"
	"math/rand"

	"github.com/muchq/moonbase/go/neuro/activations"
	"github.com/muchq/moonbase/go/neuro/utils"
)

// Dense is a fully connected layer: z = x*W + b, output = activation(z).
type Dense struct {
	InputSize  int
	OutputSize int
	Weights    *utils.Tensor
	Bias       *utils.Tensor
	Activation activations.Activation

	Input *utils.Tensor
	Z     *utils.Tensor
	GradW *utils.Tensor
	GradB *utils.Tensor
}

// NewDense builds a layer sized (inputSize, outputSize). Weights are
// initialized from rng using He-uniform scale for relu-family activations
// and Xavier-uniform scale otherwise; biases start at zero.
func NewDense(rng *rand.Rand, inputSize, outputSize int, activation activations.Activation) *Dense {
	var weights *utils.Tensor
	if activations.NeedsHeInit(activation) {
		weights = utils.HeInit(rng, inputSize, outputSize)
	} else {
		weights = utils.XavierInit(rng, inputSize, outputSize)
	}

	return &Dense{
		InputSize:  inputSize,
		OutputSize: outputSize,
		Weights:    weights,
		Bias:       utils.NewTensor(outputSize),
		Activation: activation,
	}
}

func (d *Dense) Forward(input *utils.Tensor, training bool) *utils.Tensor {
	d.Input = input.Copy()

	batchSize := 1
	if len(input.Shape) == 2 {
		batchSize = input.Shape[0]
	} else if len(input.Shape) == 1 {
		input = input.Reshape(1, input.Shape[0])
	}

	z := input.MatMul(d.Weights)

	for b := 0; b < batchSize; b++ {
		for j := 0; j < d.OutputSize; j++ {
			idx := b*d.OutputSize + j
			z.Data[idx] += d.Bias.Data[j]
		}
	}

	d.Z = z
	output := z
	if d.Activation != nil {
		output = d.Activation.Forward(z)
	}

	return output
}

func (d *Dense) Backward(gradOutput *utils.Tensor) *utils.Tensor {
	grad := gradOutput

	if d.Activation != nil {
		grad = d.Activation.Backward(gradOutput, d.Z)
	}

	batchSize := 1
	input := d.Input
	if len(d.Input.Shape) == 1 {
		input = d.Input.Reshape(1, d.Input.Shape[0])
		batchSize = 1
	} else {
		batchSize = d.Input.Shape[0]
	}

	d.GradW = input.Transpose().MatMul(grad)

	d.GradB = utils.NewTensor(d.OutputSize)
	for b := 0; b < batchSize; b++ {
		for j := 0; j < d.OutputSize; j++ {
			idx := b*d.OutputSize + j
			d.GradB.Data[j] += grad.Data[idx]
		}
	}

	gradInput := grad.MatMul(d.Weights.Transpose())

	if len(d.Input.Shape) == 1 {
		gradInput = gradInput.Reshape(d.InputSize)
	}

	return gradInput
}

func (d *Dense) UpdateWeights(lr float64) {
	if d.GradW == nil || d.GradB == nil {
		return
	}
	for i := range d.Weights.Data {
		d.Weights.Data[i] -= lr * d.GradW.Data[i]
	}
	for i := range d.Bias.Data {
		d.Bias.Data[i] -= lr * d.GradB.Data[i]
	}
}

func (d *Dense) GetParams() []*utils.Tensor {
	return []*utils.Tensor{d.Weights, d.Bias}
}

func (d *Dense) GetGradients() []*utils.Tensor {
	return []*utils.Tensor{d.GradW, d.GradB}
}

func (d *Dense) SetParams(params []*utils.Tensor) {
	if len(params) != 2 {
		panic("Dense layer expects 2 parameter tensors")
	}
	d.Weights = params[0]
	d.Bias = params[1]
}

func (d *Dense) Name() string {
	activationName := "None"
	if d.Activation != nil {
		activationName = d.Activation.Name()
	}
	return fmt.Sprintf("Dense(%d, %d, %s)", d.InputSize, d.OutputSize, activationName)
}
