package datasets

import (
	"math/rand"

	"github.com/muchq/moonbase/go/neuro/utils"
	"github.com/muchq/moonbase/go/training"
)

// xorProvider is a tiny noisy-XOR regression dataset: 2 real-valued
// features, 1 real-valued target (the 0/1 XOR label plus small Gaussian
// noise, so it can fall slightly outside [0,1]). It exists to exercise the
// regression (MSE, linear-output) path with a non-linearly-separable
// toy problem.
type xorProvider struct {
	spec training.DatasetSpec
}

func newXORProvider() *xorProvider {
	return &xorProvider{
		spec: training.DatasetSpec{
			ID:          "xor",
			Name:        "Noisy XOR (regression)",
			TaskKind:    training.TaskRegression,
			InputShape:  []int{2},
			OutputArity: 1,
			NumSamples:  200,
			Recommended: training.Hyperparameters{
				Epochs: 50, LearningRate: 0.05, BatchSize: 8, Optimizer: "rmsprop",
			},
		},
	}
}

func (p *xorProvider) Spec() training.DatasetSpec { return p.spec }

func (p *xorProvider) Load(maxSamples int) (*training.Dataset, error) {
	trainN := p.spec.NumSamples
	if maxSamples > 0 && maxSamples < trainN {
		trainN = maxSamples
	}
	rng := rand.New(rand.NewSource(5678))

	testN := p.spec.NumSamples / 4
	if testN == 0 {
		testN = 1
	}

	xTrain, yTrain := generateXORSamples(rng, trainN)
	xTest, yTest := generateXORSamples(rng, testN)

	return &training.Dataset{
		Spec:   p.spec,
		XTrain: xTrain,
		YTrain: yTrain,
		XTest:  xTest,
		YTest:  yTest,
	}, nil
}

func generateXORSamples(rng *rand.Rand, n int) (*utils.Tensor, *utils.Tensor) {
	x := utils.NewTensor(n, 2)
	y := utils.NewTensor(n, 1)
	for i := 0; i < n; i++ {
		a := rng.Float64()
		b := rng.Float64()
		x.Data[i*2] = a
		x.Data[i*2+1] = b
		label := 0.0
		if (a > 0.5) != (b > 0.5) {
			label = 1.0
		}
		y.Data[i] = label + rng.NormFloat64()*0.05
	}
	return x, y
}
