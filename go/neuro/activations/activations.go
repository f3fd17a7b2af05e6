package activations

import (
	"math"

	"github.com/muchq/moonbase/go/neuro/utils"
)

// Activation is a pointwise nonlinearity applied to a Dense layer's
// pre-activations. Backward receives the upstream gradient together with
// the pre-activation input (z) that was passed to Forward, so every
// derivative can be expressed in terms of the raw input rather than
// relying on an invertible output.
type Activation interface {
	Forward(x *utils.Tensor) *utils.Tensor
	Backward(grad *utils.Tensor, z *utils.Tensor) *utils.Tensor
	Name() string
}

type ReLU struct{}

func NewReLU() *ReLU {
	return &ReLU{}
}

func (r *ReLU) Forward(x *utils.Tensor) *utils.Tensor {
	return x.Apply(func(v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	})
}

func (r *ReLU) Backward(grad *utils.Tensor, z *utils.Tensor) *utils.Tensor {
	result := grad.Copy()
	for i := range result.Data {
		if z.Data[i] <= 0 {
			result.Data[i] = 0
		}
	}
	return result
}

func (r *ReLU) Name() string {
	return "ReLU"
}

// LeakyReLU lets a small negative slope through instead of clamping to zero.
type LeakyReLU struct {
	Alpha float64
}

func NewLeakyReLU(alpha float64) *LeakyReLU {
	return &LeakyReLU{Alpha: alpha}
}

func (l *LeakyReLU) Forward(x *utils.Tensor) *utils.Tensor {
	return x.Apply(func(v float64) float64 {
		if v > 0 {
			return v
		}
		return l.Alpha * v
	})
}

func (l *LeakyReLU) Backward(grad *utils.Tensor, z *utils.Tensor) *utils.Tensor {
	result := grad.Copy()
	for i := range result.Data {
		if z.Data[i] <= 0 {
			result.Data[i] *= l.Alpha
		}
	}
	return result
}

func (l *LeakyReLU) Name() string {
	return "LeakyReLU"
}

// ELU is smooth around zero and saturates to -alpha for large negative inputs.
type ELU struct {
	Alpha float64
}

func NewELU(alpha float64) *ELU {
	return &ELU{Alpha: alpha}
}

func (e *ELU) Forward(x *utils.Tensor) *utils.Tensor {
	return x.Apply(func(v float64) float64 {
		if v > 0 {
			return v
		}
		return e.Alpha * (math.Exp(v) - 1)
	})
}

func (e *ELU) Backward(grad *utils.Tensor, z *utils.Tensor) *utils.Tensor {
	result := grad.Copy()
	for i := range result.Data {
		v := z.Data[i]
		if v > 0 {
			continue
		}
		result.Data[i] *= e.Alpha * math.Exp(v)
	}
	return result
}

func (e *ELU) Name() string {
	return "ELU"
}

// SELU is ELU's self-normalizing variant with fixed scale/alpha constants.
type SELU struct{}

const (
	seluScale = 1.0507009873554804934193349852946
	seluAlpha = 1.6732632423543772848170429916717
)

func NewSELU() *SELU {
	return &SELU{}
}

func (s *SELU) Forward(x *utils.Tensor) *utils.Tensor {
	return x.Apply(func(v float64) float64 {
		if v > 0 {
			return seluScale * v
		}
		return seluScale * seluAlpha * (math.Exp(v) - 1)
	})
}

func (s *SELU) Backward(grad *utils.Tensor, z *utils.Tensor) *utils.Tensor {
	result := grad.Copy()
	for i := range result.Data {
		v := z.Data[i]
		if v > 0 {
			result.Data[i] *= seluScale
		} else {
			result.Data[i] *= seluScale * seluAlpha * math.Exp(v)
		}
	}
	return result
}

func (s *SELU) Name() string {
	return "SELU"
}

// Softplus is a smooth approximation of ReLU.
type Softplus struct{}

func NewSoftplus() *Softplus {
	return &Softplus{}
}

func (s *Softplus) Forward(x *utils.Tensor) *utils.Tensor {
	return x.Apply(func(v float64) float64 {
		if v > 20 {
			return v
		}
		return math.Log1p(math.Exp(v))
	})
}

func (s *Softplus) Backward(grad *utils.Tensor, z *utils.Tensor) *utils.Tensor {
	result := grad.Copy()
	for i := range result.Data {
		sig := 1.0 / (1.0 + math.Exp(-z.Data[i]))
		result.Data[i] *= sig
	}
	return result
}

func (s *Softplus) Name() string {
	return "Softplus"
}

// GELU uses the tanh-based approximation popularized by GPT/BERT-style models.
type GELU struct{}

func NewGELU() *GELU {
	return &GELU{}
}

func geluTanhArg(v float64) float64 {
	return math.Sqrt(2.0/math.Pi) * (v + 0.044715*v*v*v)
}

func (g *GELU) Forward(x *utils.Tensor) *utils.Tensor {
	return x.Apply(func(v float64) float64 {
		return 0.5 * v * (1 + math.Tanh(geluTanhArg(v)))
	})
}

func (g *GELU) Backward(grad *utils.Tensor, z *utils.Tensor) *utils.Tensor {
	result := grad.Copy()
	for i := range result.Data {
		v := z.Data[i]
		inner := geluTanhArg(v)
		t := math.Tanh(inner)
		dInner := math.Sqrt(2.0/math.Pi) * (1 + 3*0.044715*v*v)
		dt := (1 - t*t) * dInner
		deriv := 0.5*(1+t) + 0.5*v*dt
		result.Data[i] *= deriv
	}
	return result
}

func (g *GELU) Name() string {
	return "GELU"
}

// Linear is the identity activation, used for regression outputs.
type Linear struct{}

func NewLinear() *Linear {
	return &Linear{}
}

func (l *Linear) Forward(x *utils.Tensor) *utils.Tensor {
	return x.Copy()
}

func (l *Linear) Backward(grad *utils.Tensor, z *utils.Tensor) *utils.Tensor {
	return grad.Copy()
}

func (l *Linear) Name() string {
	return "Linear"
}

type Sigmoid struct{}

func NewSigmoid() *Sigmoid {
	return &Sigmoid{}
}

func (s *Sigmoid) Forward(x *utils.Tensor) *utils.Tensor {
	return x.Apply(func(v float64) float64 {
		return 1.0 / (1.0 + math.Exp(-v))
	})
}

func (s *Sigmoid) Backward(grad *utils.Tensor, z *utils.Tensor) *utils.Tensor {
	result := grad.Copy()
	for i := range result.Data {
		sig := 1.0 / (1.0 + math.Exp(-z.Data[i]))
		result.Data[i] *= sig * (1 - sig)
	}
	return result
}

func (s *Sigmoid) Name() string {
	return "Sigmoid"
}

type Tanh struct{}

func NewTanh() *Tanh {
	return &Tanh{}
}

func (t *Tanh) Forward(x *utils.Tensor) *utils.Tensor {
	return x.Apply(math.Tanh)
}

func (t *Tanh) Backward(grad *utils.Tensor, z *utils.Tensor) *utils.Tensor {
	result := grad.Copy()
	for i := range result.Data {
		th := math.Tanh(z.Data[i])
		result.Data[i] *= (1 - th*th)
	}
	return result
}

func (t *Tanh) Name() string {
	return "Tanh"
}

type Softmax struct{}

func NewSoftmax() *Softmax {
	return &Softmax{}
}

func (s *Softmax) Forward(x *utils.Tensor) *utils.Tensor {
	result := x.Copy()

	if len(x.Shape) == 1 {
		s.softmax1D(result)
	} else if len(x.Shape) == 2 {
		for i := 0; i < x.Shape[0]; i++ {
			s.softmaxRow(result, i)
		}
	} else {
		panic("Softmax only supports 1D and 2D tensors")
	}

	return result
}

func (s *Softmax) softmax1D(t *utils.Tensor) {
	max := t.Data[0]
	for _, v := range t.Data {
		if v > max {
			max = v
		}
	}

	sum := 0.0
	for i := range t.Data {
		t.Data[i] = math.Exp(t.Data[i] - max)
		sum += t.Data[i]
	}

	for i := range t.Data {
		t.Data[i] /= sum
	}
}

func (s *Softmax) softmaxRow(t *utils.Tensor, row int) {
	start := row * t.Shape[1]
	end := start + t.Shape[1]

	max := t.Data[start]
	for i := start; i < end; i++ {
		if t.Data[i] > max {
			max = t.Data[i]
		}
	}

	sum := 0.0
	for i := start; i < end; i++ {
		t.Data[i] = math.Exp(t.Data[i] - max)
		sum += t.Data[i]
	}

	for i := start; i < end; i++ {
		t.Data[i] /= sum
	}
}

// Backward applies the full softmax Jacobian. z is the pre-softmax input;
// most callers pair Softmax with a combined cross-entropy-over-logits loss
// instead, which differentiates the combination directly and never reaches
// this path.
func (s *Softmax) Backward(grad *utils.Tensor, z *utils.Tensor) *utils.Tensor {
	softmax := s.Forward(z)
	result := utils.NewTensor(grad.Shape...)

	if len(grad.Shape) == 1 {
		for i := range result.Data {
			for j := range result.Data {
				if i == j {
					result.Data[i] += grad.Data[j] * softmax.Data[i] * (1 - softmax.Data[i])
				} else {
					result.Data[i] -= grad.Data[j] * softmax.Data[i] * softmax.Data[j]
				}
			}
		}
	} else if len(grad.Shape) == 2 {
		for b := 0; b < grad.Shape[0]; b++ {
			for i := 0; i < grad.Shape[1]; i++ {
				for j := 0; j < grad.Shape[1]; j++ {
					idxI := b*grad.Shape[1] + i
					idxJ := b*grad.Shape[1] + j
					if i == j {
						result.Data[idxI] += grad.Data[idxJ] * softmax.Data[idxI] * (1 - softmax.Data[idxI])
					} else {
						result.Data[idxI] -= grad.Data[idxJ] * softmax.Data[idxI] * softmax.Data[idxJ]
					}
				}
			}
		}
	}

	return result
}

func (s *Softmax) Name() string {
	return "Softmax"
}

// NeedsHeInit reports whether an activation belongs to the relu family, for
// which He-uniform weight initialization keeps forward variance stable.
func NeedsHeInit(a Activation) bool {
	if a == nil {
		return false
	}
	switch a.Name() {
	case "ReLU", "LeakyReLU", "ELU", "SELU", "GELU", "Softplus":
		return true
	default:
		return false
	}
}
