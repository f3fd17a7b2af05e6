package datasets

import (
	"math/rand"

	"github.com/muchq/moonbase/go/neuro/utils"
	"github.com/muchq/moonbase/go/training"
)

// irisProvider generates a synthetic 3-class, 4-feature tabular dataset
// shaped like the classic Iris problem (three separable Gaussian blobs)
// rather than shipping or downloading the real flower measurements, which
// this system never fetches from outside the process.
type irisProvider struct {
	spec training.DatasetSpec
}

func newIrisProvider() *irisProvider {
	return &irisProvider{
		spec: training.DatasetSpec{
			ID:          "iris",
			Name:        "Iris (synthetic)",
			TaskKind:    training.TaskClassification,
			InputShape:  []int{4},
			OutputArity: 3,
			NumSamples:  150,
			Recommended: training.Hyperparameters{
				Epochs: 30, LearningRate: 0.01, BatchSize: 16, Optimizer: "adam",
			},
		},
	}
}

func (p *irisProvider) Spec() training.DatasetSpec { return p.spec }

var irisClassCenters = [3][4]float64{
	{5.0, 3.4, 1.5, 0.2},
	{5.9, 2.8, 4.3, 1.3},
	{6.6, 3.0, 5.6, 2.1},
}

func (p *irisProvider) Load(maxSamples int) (*training.Dataset, error) {
	trainN := p.spec.NumSamples
	if maxSamples > 0 && maxSamples < trainN {
		trainN = maxSamples
	}
	rng := rand.New(rand.NewSource(1234))

	testN := p.spec.NumSamples / 4
	if testN == 0 {
		testN = 1
	}

	xTrain, yTrain := generateIrisSamples(rng, trainN)
	xTest, yTest := generateIrisSamples(rng, testN)

	return &training.Dataset{
		Spec:   p.spec,
		XTrain: xTrain,
		YTrain: yTrain,
		XTest:  xTest,
		YTest:  yTest,
	}, nil
}

func generateIrisSamples(rng *rand.Rand, n int) (*utils.Tensor, *utils.Tensor) {
	x := utils.NewTensor(n, 4)
	y := utils.NewTensor(n, 3)
	for i := 0; i < n; i++ {
		class := i % 3
		center := irisClassCenters[class]
		for f := 0; f < 4; f++ {
			x.Data[i*4+f] = center[f] + rng.NormFloat64()*0.3
		}
		y.Data[i*3+class] = 1.0
	}
	return x, y
}
