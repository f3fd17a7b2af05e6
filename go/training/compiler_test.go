package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muchq/moonbase/go/neuro/utils"
)

func TestCompile_ClassificationPairsSoftmaxCrossEntropy(t *testing.T) {
	layers := []LayerSpec{
		{Kind: LayerInput, Position: 0, Neurons: 4},
		{Kind: LayerHidden, Position: 1, Neurons: 8, Activation: "relu"},
		{Kind: LayerOutput, Position: 2, Neurons: 3, Activation: "softmax"},
	}
	canonical, err := Validate(layers, irisSpec())
	require.NoError(t, err)

	compiled, err := Compile(canonical, irisSpec(), 42)
	require.NoError(t, err)
	assert.Equal(t, "SoftmaxCrossEntropy", compiled.Loss.Name())
	assert.Len(t, compiled.Model.GetLayers(), 2)
}

func TestCompile_Reproducible(t *testing.T) {
	layers := []LayerSpec{
		{Kind: LayerInput, Position: 0, Neurons: 4},
		{Kind: LayerHidden, Position: 1, Neurons: 8, Activation: "relu"},
		{Kind: LayerOutput, Position: 2, Neurons: 3, Activation: "softmax"},
	}
	canonical, err := Validate(layers, irisSpec())
	require.NoError(t, err)

	a, err := Compile(canonical, irisSpec(), 7)
	require.NoError(t, err)
	b, err := Compile(canonical, irisSpec(), 7)
	require.NoError(t, err)

	paramsA := a.Model.GetParams()
	paramsB := b.Model.GetParams()
	assert.Equal(t, paramsA, paramsB)
}

func TestCompile_RegressionUsesMSEAndLinearOutput(t *testing.T) {
	regSpec := DatasetSpec{
		ID: "xor", TaskKind: TaskRegression, InputShape: []int{2}, OutputArity: 1,
		Recommended: Hyperparameters{Epochs: 10, LearningRate: 0.1, BatchSize: 4, Optimizer: "sgd"},
	}
	layers := []LayerSpec{
		{Kind: LayerInput, Position: 0, Neurons: 2},
		{Kind: LayerHidden, Position: 1, Neurons: 4, Activation: "tanh"},
		{Kind: LayerOutput, Position: 2, Neurons: 1, Activation: "linear"},
	}
	canonical, err := Validate(layers, regSpec)
	require.NoError(t, err)

	compiled, err := Compile(canonical, regSpec, 1)
	require.NoError(t, err)
	assert.Equal(t, "MSE", compiled.Loss.Name())

	x := utils.NewTensorFromData([]float64{0, 1}, 1, 2)
	out := compiled.Model.Predict(x)
	assert.Equal(t, []int{1, 1}, out.Shape)
}

func TestCompile_ConvMaxPoolFlattenDense(t *testing.T) {
	layers := []LayerSpec{
		{Kind: LayerInput, Position: 0},
		{Kind: LayerConv2D, Position: 1, Filters: 2, Kernel: 3},
		{Kind: LayerMaxPool2D, Position: 2, Pool: 2},
		{Kind: LayerFlatten, Position: 3},
		{Kind: LayerHidden, Position: 4, Neurons: 8, Activation: "relu"},
		{Kind: LayerOutput, Position: 5, Neurons: 3, Activation: "softmax"},
	}
	spec := imageSpec()
	canonical, err := Validate(layers, spec)
	require.NoError(t, err)

	compiled, err := Compile(canonical, spec, 3)
	require.NoError(t, err)

	x := utils.NewTensor(1, 1, 8, 8)
	out := compiled.Model.Predict(x)
	assert.Equal(t, []int{1, 3}, out.Shape)
}

func TestNewOptimizer_UnknownName(t *testing.T) {
	_, err := NewOptimizer("made_up", 0.01)
	assert.ErrorIs(t, err, ErrInvalidHyperparameter)
}
