package layers

import (
	"fmt"
	"math/rand"

	"github.com/muchq/moonbase/go/neuro/utils"
)

// Dropout zeroes a random fraction of its input during training and scales
// the remainder so the expected activation is unchanged; it is the identity
// at inference time.
type Dropout struct {
	rate  float64
	rng   *rand.Rand
	mask  *utils.Tensor
	scale float64
}

func NewDropout(rng *rand.Rand, rate float64) *Dropout {
	return &Dropout{
		rate:  rate,
		rng:   rng,
		scale: 1.0 / (1.0 - rate),
	}
}

func (d *Dropout) Forward(input *utils.Tensor, training bool) *utils.Tensor {
	if !training || d.rate == 0 {
		return input.Copy()
	}

	d.mask = utils.NewTensor(input.Shape...)
	output := utils.NewTensor(input.Shape...)
	for i := range d.mask.Data {
		if d.rng.Float64() > d.rate {
			d.mask.Data[i] = 1.0
			output.Data[i] = input.Data[i] * d.scale
		} else {
			d.mask.Data[i] = 0.0
			output.Data[i] = 0.0
		}
	}

	return output
}

func (d *Dropout) Backward(gradOutput *utils.Tensor) *utils.Tensor {
	if d.mask == nil {
		return gradOutput.Copy()
	}
	gradInput := utils.NewTensor(gradOutput.Shape...)
	for i := range gradInput.Data {
		if d.mask.Data[i] > 0 {
			gradInput.Data[i] = gradOutput.Data[i] * d.scale
		}
	}
	return gradInput
}

func (d *Dropout) UpdateWeights(lr float64) {}

func (d *Dropout) GetParams() []*utils.Tensor {
	return []*utils.Tensor{}
}

func (d *Dropout) GetGradients() []*utils.Tensor {
	return []*utils.Tensor{}
}

func (d *Dropout) SetParams(params []*utils.Tensor) {}

func (d *Dropout) Name() string {
	return fmt.Sprintf("Dropout(%.2f)", d.rate)
}
