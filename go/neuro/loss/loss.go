package loss

import (
	"math"

	"github.com/muchq/moonbase/go/neuro/utils"
)

type Loss interface {
	Forward(predictions, targets *utils.Tensor) float64
	Backward(predictions, targets *utils.Tensor) *utils.Tensor
	Name() string
}

type MeanSquaredError struct{}

func NewMSE() *MeanSquaredError {
	return &MeanSquaredError{}
}

func (m *MeanSquaredError) Forward(predictions, targets *utils.Tensor) float64 {
	diff := predictions.Sub(targets)
	squared := diff.Mul(diff)
	return squared.Mean()
}

func (m *MeanSquaredError) Backward(predictions, targets *utils.Tensor) *utils.Tensor {
	n := float64(len(predictions.Data))
	diff := predictions.Sub(targets)
	return diff.Scale(2.0 / n)
}

func (m *MeanSquaredError) Name() string {
	return "MSE"
}

type CrossEntropy struct{}

func NewCrossEntropy() *CrossEntropy {
	return &CrossEntropy{}
}

func (c *CrossEntropy) Forward(predictions, targets *utils.Tensor) float64 {
	epsilon := 1e-7
	loss := 0.0
	
	for i := range predictions.Data {
		pred := math.Max(epsilon, math.Min(1-epsilon, predictions.Data[i]))
		if targets.Data[i] == 1.0 {
			loss -= math.Log(pred)
		} else {
			loss -= math.Log(1 - pred)
		}
	}
	
	return loss / float64(predictions.Shape[0])
}

func (c *CrossEntropy) Backward(predictions, targets *utils.Tensor) *utils.Tensor {
	epsilon := 1e-7
	n := float64(predictions.Shape[0])
	grad := utils.NewTensor(predictions.Shape...)
	
	for i := range grad.Data {
		pred := math.Max(epsilon, math.Min(1-epsilon, predictions.Data[i]))
		if targets.Data[i] == 1.0 {
			grad.Data[i] = -1.0 / pred / n
		} else {
			grad.Data[i] = 1.0 / (1 - pred) / n
		}
	}
	
	return grad
}

func (c *CrossEntropy) Name() string {
	return "CrossEntropy"
}

type CategoricalCrossEntropy struct{}

func NewCategoricalCrossEntropy() *CategoricalCrossEntropy {
	return &CategoricalCrossEntropy{}
}

func (c *CategoricalCrossEntropy) Forward(predictions, targets *utils.Tensor) float64 {
	epsilon := 1e-7
	loss := 0.0
	
	for i := range predictions.Data {
		if targets.Data[i] > 0 {
			pred := math.Max(epsilon, predictions.Data[i])
			loss -= targets.Data[i] * math.Log(pred)
		}
	}
	
	if len(predictions.Shape) == 2 {
		return loss / float64(predictions.Shape[0])
	}
	return loss
}

func (c *CategoricalCrossEntropy) Backward(predictions, targets *utils.Tensor) *utils.Tensor {
	epsilon := 1e-7
	grad := utils.NewTensor(predictions.Shape...)
	
	n := 1.0
	if len(predictions.Shape) == 2 {
		n = float64(predictions.Shape[0])
	}
	
	for i := range grad.Data {
		if targets.Data[i] > 0 {
			pred := math.Max(epsilon, predictions.Data[i])
			grad.Data[i] = -targets.Data[i] / pred / n
		}
	}
	
	return grad
}

func (c *CategoricalCrossEntropy) Name() string {
	return "CategoricalCrossEntropy"
}

// SoftmaxCrossEntropy combines a softmax over the final Dense layer's
// pre-activation with cross-entropy in a single numerically stable loss.
// Pair it with a Dense layer whose Activation is nil (or Linear); applying
// a separate Softmax activation before this loss would apply softmax twice.
type SoftmaxCrossEntropy struct{}

func NewSoftmaxCrossEntropy() *SoftmaxCrossEntropy {
	return &SoftmaxCrossEntropy{}
}

func (c *SoftmaxCrossEntropy) softmaxRows(logits *utils.Tensor) *utils.Tensor {
	out := utils.NewTensor(logits.Shape...)

	rows, cols := 1, len(logits.Data)
	if len(logits.Shape) == 2 {
		rows, cols = logits.Shape[0], logits.Shape[1]
	}

	for r := 0; r < rows; r++ {
		start := r * cols
		end := start + cols

		max := logits.Data[start]
		for i := start; i < end; i++ {
			if logits.Data[i] > max {
				max = logits.Data[i]
			}
		}

		sum := 0.0
		for i := start; i < end; i++ {
			out.Data[i] = math.Exp(logits.Data[i] - max)
			sum += out.Data[i]
		}
		for i := start; i < end; i++ {
			out.Data[i] /= sum
		}
	}

	return out
}

func (c *SoftmaxCrossEntropy) Forward(logits, targets *utils.Tensor) float64 {
	epsilon := 1e-7
	probs := c.softmaxRows(logits)

	loss := 0.0
	for i := range probs.Data {
		if targets.Data[i] > 0 {
			loss -= targets.Data[i] * math.Log(math.Max(epsilon, probs.Data[i]))
		}
	}

	n := 1.0
	if len(logits.Shape) == 2 {
		n = float64(logits.Shape[0])
	}
	return loss / n
}

// Backward returns (softmax(logits) - targets) / n, the gradient of softmax
// composed with cross-entropy with respect to the pre-softmax logits.
func (c *SoftmaxCrossEntropy) Backward(logits, targets *utils.Tensor) *utils.Tensor {
	probs := c.softmaxRows(logits)

	n := 1.0
	if len(logits.Shape) == 2 {
		n = float64(logits.Shape[0])
	}

	grad := utils.NewTensor(logits.Shape...)
	for i := range grad.Data {
		grad.Data[i] = (probs.Data[i] - targets.Data[i]) / n
	}
	return grad
}

func (c *SoftmaxCrossEntropy) Name() string {
	return "SoftmaxCrossEntropy"
}