package datasets

import (
	"math/rand"

	"github.com/muchq/moonbase/go/neuro/utils"
	"github.com/muchq/moonbase/go/training"
)

// shapesProvider is a tiny synthetic 8x8 single-channel image dataset with
// 3 classes (filled square, diagonal stripe, empty), generated procedurally.
// It exists solely to exercise the conv2d/maxpool2d/flatten architecture
// path; it is not meant to be a realistic vision benchmark.
type shapesProvider struct {
	spec training.DatasetSpec
}

const shapesSide = 8

func newShapesProvider() *shapesProvider {
	return &shapesProvider{
		spec: training.DatasetSpec{
			ID:          "shapes",
			Name:        "Synthetic Shapes (8x8)",
			TaskKind:    training.TaskClassification,
			InputShape:  []int{1, shapesSide, shapesSide},
			OutputArity: 3,
			NumSamples:  120,
			Recommended: training.Hyperparameters{
				Epochs: 10, LearningRate: 0.01, BatchSize: 8, Optimizer: "adam",
			},
		},
	}
}

func (p *shapesProvider) Spec() training.DatasetSpec { return p.spec }

func (p *shapesProvider) Load(maxSamples int) (*training.Dataset, error) {
	trainN := p.spec.NumSamples
	if maxSamples > 0 && maxSamples < trainN {
		trainN = maxSamples
	}
	rng := rand.New(rand.NewSource(91011))

	testN := p.spec.NumSamples / 4
	if testN == 0 {
		testN = 1
	}

	xTrain, yTrain := generateShapeSamples(rng, trainN)
	xTest, yTest := generateShapeSamples(rng, testN)

	return &training.Dataset{
		Spec:   p.spec,
		XTrain: xTrain,
		YTrain: yTrain,
		XTest:  xTest,
		YTest:  yTest,
	}, nil
}

func generateShapeSamples(rng *rand.Rand, n int) (*utils.Tensor, *utils.Tensor) {
	x := utils.NewTensor(n, 1, shapesSide, shapesSide)
	y := utils.NewTensor(n, 3)
	pixelsPerImage := shapesSide * shapesSide

	for i := 0; i < n; i++ {
		class := i % 3
		base := i * pixelsPerImage
		switch class {
		case 0: // filled square in the center
			for r := 2; r < 6; r++ {
				for c := 2; c < 6; c++ {
					x.Data[base+r*shapesSide+c] = 1.0
				}
			}
		case 1: // diagonal stripe
			for d := 0; d < shapesSide; d++ {
				x.Data[base+d*shapesSide+d] = 1.0
			}
		case 2: // empty, noise only
		}
		for px := 0; px < pixelsPerImage; px++ {
			x.Data[base+px] += rng.NormFloat64() * 0.05
		}
		y.Data[i*3+class] = 1.0
	}
	return x, y
}
