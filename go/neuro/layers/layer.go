package layers

import "github.com/muchq/moonbase/go/neuro/utils"

// Layer is one stage of a compiled model. Forward/Backward form the
// training pass; GetParams/GetGradients/SetParams expose a layer's
// learnable state so an Optimizer can update it without knowing the
// layer's concrete type.
type Layer interface {
	Forward(input *utils.Tensor, training bool) *utils.Tensor
	Backward(gradOutput *utils.Tensor) *utils.Tensor
	UpdateWeights(lr float64)
	GetParams() []*utils.Tensor
	GetGradients() []*utils.Tensor
	SetParams(params []*utils.Tensor)
	Name() string
}
