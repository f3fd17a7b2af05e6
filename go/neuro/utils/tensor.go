package utils

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Tensor is a dense, row-major n-dimensional array of float64s.
type Tensor struct {
	Data    []float64
	Shape   []int
	Strides []int
}

func NewTensor(shape ...int) *Tensor {
	size := 1
	for _, s := range shape {
		size *= s
	}

	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}

	return &Tensor{
		Data:    make([]float64, size),
		Shape:   shape,
		Strides: strides,
	}
}

func NewTensorFromData(data []float64, shape ...int) *Tensor {
	t := NewTensor(shape...)
	copy(t.Data, data)
	return t
}

func (t *Tensor) Size() int {
	return len(t.Data)
}

func (t *Tensor) Get(indices ...int) float64 {
	idx := t.getIndex(indices...)
	return t.Data[idx]
}

func (t *Tensor) Set(value float64, indices ...int) {
	idx := t.getIndex(indices...)
	t.Data[idx] = value
}

func (t *Tensor) getIndex(indices ...int) int {
	if len(indices) != len(t.Shape) {
		panic(fmt.Sprintf("invalid indices: expected %d, got %d", len(t.Shape), len(indices)))
	}

	idx := 0
	for i, index := range indices {
		if index < 0 || index >= t.Shape[i] {
			panic(fmt.Sprintf("index out of bounds: %d not in [0, %d)", index, t.Shape[i]))
		}
		idx += index * t.Strides[i]
	}
	return idx
}

func (t *Tensor) Reshape(shape ...int) *Tensor {
	size := 1
	for _, s := range shape {
		size *= s
	}
	if size != len(t.Data) {
		panic(fmt.Sprintf("cannot reshape tensor of size %d to shape %v", len(t.Data), shape))
	}

	return NewTensorFromData(t.Data, shape...)
}

func (t *Tensor) Copy() *Tensor {
	newData := make([]float64, len(t.Data))
	copy(newData, t.Data)
	return &Tensor{
		Data:    newData,
		Shape:   append([]int{}, t.Shape...),
		Strides: append([]int{}, t.Strides...),
	}
}

func (t *Tensor) Add(other *Tensor) *Tensor {
	if shapeEqual(t.Shape, other.Shape) {
		result := t.Copy()
		floats.Add(result.Data, other.Data)
		return result
	}

	if len(other.Shape) == 1 && other.Shape[0] == 1 {
		result := t.Copy()
		floats.AddConst(other.Data[0], result.Data)
		return result
	}

	if len(other.Shape) == 1 && other.Shape[0] == t.Shape[len(t.Shape)-1] {
		result := t.Copy()

		if len(t.Shape) == 2 {
			for i := 0; i < t.Shape[0]; i++ {
				for j := 0; j < t.Shape[1]; j++ {
					idx := i*t.Shape[1] + j
					result.Data[idx] += other.Data[j]
				}
			}
		} else if len(t.Shape) == 3 {
			for i := 0; i < t.Shape[0]; i++ {
				for j := 0; j < t.Shape[1]; j++ {
					for k := 0; k < t.Shape[2]; k++ {
						idx := i*t.Shape[1]*t.Shape[2] + j*t.Shape[2] + k
						result.Data[idx] += other.Data[k]
					}
				}
			}
		}
		return result
	}

	if len(t.Shape) == len(other.Shape) {
		canBroadcast := true
		for i := range other.Shape {
			if other.Shape[i] != 1 && other.Shape[i] != t.Shape[i] {
				canBroadcast = false
				break
			}
		}

		if canBroadcast {
			result := t.Copy()

			if len(t.Shape) == 2 {
				for i := 0; i < t.Shape[0]; i++ {
					for j := 0; j < t.Shape[1]; j++ {
						otherI, otherJ := i, j
						if other.Shape[0] == 1 {
							otherI = 0
						}
						if other.Shape[1] == 1 {
							otherJ = 0
						}
						idx := i*t.Shape[1] + j
						result.Data[idx] += other.Get(otherI, otherJ)
					}
				}
			} else if len(t.Shape) == 3 {
				for i := 0; i < t.Shape[0]; i++ {
					for j := 0; j < t.Shape[1]; j++ {
						for k := 0; k < t.Shape[2]; k++ {
							otherI, otherJ, otherK := i, j, k
							if other.Shape[0] == 1 {
								otherI = 0
							}
							if other.Shape[1] == 1 {
								otherJ = 0
							}
							if other.Shape[2] == 1 {
								otherK = 0
							}
							idx := i*t.Shape[1]*t.Shape[2] + j*t.Shape[2] + k
							result.Data[idx] += other.Get(otherI, otherJ, otherK)
						}
					}
				}
			} else {
				panic("broadcasting for Add only supports 2D and 3D tensors")
			}

			return result
		}
	}

	panic(fmt.Sprintf("shapes must match or be broadcastable for addition: %v and %v", t.Shape, other.Shape))
}

func (t *Tensor) Sub(other *Tensor) *Tensor {
	if shapeEqual(t.Shape, other.Shape) {
		result := t.Copy()
		floats.Sub(result.Data, other.Data)
		return result
	}

	if len(t.Shape) == len(other.Shape) {
		canBroadcast := true
		for i := range other.Shape {
			if other.Shape[i] != 1 && other.Shape[i] != t.Shape[i] {
				canBroadcast = false
				break
			}
		}

		if canBroadcast {
			result := t.Copy()

			if len(t.Shape) == 2 {
				for i := 0; i < t.Shape[0]; i++ {
					for j := 0; j < t.Shape[1]; j++ {
						otherI, otherJ := i, j
						if other.Shape[0] == 1 {
							otherI = 0
						}
						if other.Shape[1] == 1 {
							otherJ = 0
						}
						idx := i*t.Shape[1] + j
						result.Data[idx] -= other.Get(otherI, otherJ)
					}
				}
			} else if len(t.Shape) == 3 {
				for i := 0; i < t.Shape[0]; i++ {
					for j := 0; j < t.Shape[1]; j++ {
						for k := 0; k < t.Shape[2]; k++ {
							otherI, otherJ, otherK := i, j, k
							if other.Shape[0] == 1 {
								otherI = 0
							}
							if other.Shape[1] == 1 {
								otherJ = 0
							}
							if other.Shape[2] == 1 {
								otherK = 0
							}
							idx := i*t.Shape[1]*t.Shape[2] + j*t.Shape[2] + k
							result.Data[idx] -= other.Get(otherI, otherJ, otherK)
						}
					}
				}
			} else {
				panic("broadcasting for Sub only supports 2D and 3D tensors")
			}

			return result
		}
	}

	panic(fmt.Sprintf("shapes must match or be broadcastable for subtraction: %v and %v", t.Shape, other.Shape))
}

func (t *Tensor) Mul(other *Tensor) *Tensor {
	if shapeEqual(t.Shape, other.Shape) {
		result := t.Copy()
		floats.Mul(result.Data, other.Data)
		return result
	}

	if len(other.Shape) == 1 && other.Shape[0] == 1 {
		result := t.Copy()
		floats.Scale(other.Data[0], result.Data)
		return result
	}

	if len(other.Shape) == 1 && other.Shape[0] == t.Shape[len(t.Shape)-1] {
		result := t.Copy()

		if len(t.Shape) == 2 {
			for i := 0; i < t.Shape[0]; i++ {
				for j := 0; j < t.Shape[1]; j++ {
					idx := i*t.Shape[1] + j
					result.Data[idx] *= other.Data[j]
				}
			}
		} else if len(t.Shape) == 3 {
			for i := 0; i < t.Shape[0]; i++ {
				for j := 0; j < t.Shape[1]; j++ {
					for k := 0; k < t.Shape[2]; k++ {
						idx := i*t.Shape[1]*t.Shape[2] + j*t.Shape[2] + k
						result.Data[idx] *= other.Data[k]
					}
				}
			}
		}
		return result
	}

	if len(t.Shape) == len(other.Shape) {
		canBroadcast := true
		for i := range other.Shape {
			if other.Shape[i] != 1 && other.Shape[i] != t.Shape[i] {
				canBroadcast = false
				break
			}
		}

		if canBroadcast {
			result := t.Copy()

			if len(t.Shape) == 2 {
				for i := 0; i < t.Shape[0]; i++ {
					for j := 0; j < t.Shape[1]; j++ {
						otherI, otherJ := i, j
						if other.Shape[0] == 1 {
							otherI = 0
						}
						if other.Shape[1] == 1 {
							otherJ = 0
						}
						idx := i*t.Shape[1] + j
						result.Data[idx] *= other.Get(otherI, otherJ)
					}
				}
			} else if len(t.Shape) == 3 {
				for i := 0; i < t.Shape[0]; i++ {
					for j := 0; j < t.Shape[1]; j++ {
						for k := 0; k < t.Shape[2]; k++ {
							otherI, otherJ, otherK := i, j, k
							if other.Shape[0] == 1 {
								otherI = 0
							}
							if other.Shape[1] == 1 {
								otherJ = 0
							}
							if other.Shape[2] == 1 {
								otherK = 0
							}
							idx := i*t.Shape[1]*t.Shape[2] + j*t.Shape[2] + k
							result.Data[idx] *= other.Get(otherI, otherJ, otherK)
						}
					}
				}
			} else {
				panic("broadcasting for Mul only supports 2D and 3D tensors")
			}

			return result
		}
	}

	panic(fmt.Sprintf("shapes must match or be broadcastable for multiplication: %v and %v", t.Shape, other.Shape))
}

func (t *Tensor) Scale(scalar float64) *Tensor {
	result := t.Copy()
	floats.Scale(scalar, result.Data)
	return result
}

func (t *Tensor) MatMul(other *Tensor) *Tensor {
	if len(t.Shape) == 2 && len(other.Shape) == 2 {
		if t.Shape[1] != other.Shape[0] {
			panic(fmt.Sprintf("incompatible shapes for matmul: (%d,%d) and (%d,%d)",
				t.Shape[0], t.Shape[1], other.Shape[0], other.Shape[1]))
		}

		m, k, n := t.Shape[0], t.Shape[1], other.Shape[1]

		a := mat.NewDense(m, k, t.Data)
		b := mat.NewDense(k, n, other.Data)
		c := mat.NewDense(m, n, nil)
		c.Mul(a, b)

		result := NewTensor(m, n)
		copy(result.Data, c.RawMatrix().Data)

		return result
	} else if len(t.Shape) == 3 && len(other.Shape) == 2 {
		if t.Shape[2] != other.Shape[0] {
			panic(fmt.Sprintf("incompatible shapes for batch matmul: (%v) and (%v)", t.Shape, other.Shape))
		}

		batchSize := t.Shape[0]
		m := t.Shape[1]
		n := t.Shape[2]
		p := other.Shape[1]

		result := NewTensor(batchSize, m, p)
		bMat := mat.NewDense(n, p, other.Data)

		for b := 0; b < batchSize; b++ {
			batchStart := b * m * n
			aMat := mat.NewDense(m, n, t.Data[batchStart:batchStart+m*n])
			cMat := mat.NewDense(m, p, nil)
			cMat.Mul(aMat, bMat)

			resultStart := b * m * p
			copy(result.Data[resultStart:resultStart+m*p], cMat.RawMatrix().Data)
		}
		return result
	} else if len(t.Shape) == 3 && len(other.Shape) == 3 {
		if t.Shape[0] != other.Shape[0] || t.Shape[2] != other.Shape[1] {
			panic(fmt.Sprintf("incompatible shapes for batch matmul: (%v) and (%v)", t.Shape, other.Shape))
		}

		batchSize := t.Shape[0]
		m := t.Shape[1]
		n := t.Shape[2]
		p := other.Shape[2]

		result := NewTensor(batchSize, m, p)

		for b := 0; b < batchSize; b++ {
			aStart := b * m * n
			bStart := b * n * p
			aMat := mat.NewDense(m, n, t.Data[aStart:aStart+m*n])
			bMat := mat.NewDense(n, p, other.Data[bStart:bStart+n*p])
			cMat := mat.NewDense(m, p, nil)
			cMat.Mul(aMat, bMat)

			resultStart := b * m * p
			copy(result.Data[resultStart:resultStart+m*p], cMat.RawMatrix().Data)
		}
		return result
	}

	panic(fmt.Sprintf("matmul requires 2D or 3D tensors, got shapes %v and %v", t.Shape, other.Shape))
}

func (t *Tensor) Transpose() *Tensor {
	if len(t.Shape) != 2 {
		panic("transpose only supported for 2D tensors")
	}

	m := mat.NewDense(t.Shape[0], t.Shape[1], t.Data)
	transposed := mat.DenseCopyOf(m.T())

	result := NewTensor(t.Shape[1], t.Shape[0])
	copy(result.Data, transposed.RawMatrix().Data)

	return result
}

func (t *Tensor) Sum() float64 {
	return floats.Sum(t.Data)
}

func (t *Tensor) Mean() float64 {
	return t.Sum() / float64(len(t.Data))
}

func (t *Tensor) Apply(fn func(float64) float64) *Tensor {
	result := t.Copy()
	for i := range result.Data {
		result.Data[i] = fn(result.Data[i])
	}
	return result
}

// RandomTensor fills a tensor with standard-normal samples drawn from rng.
// Compilation always passes a seeded rng so a given architecture+seed
// reproduces identical initial parameters.
func RandomTensor(rng *rand.Rand, shape ...int) *Tensor {
	t := NewTensor(shape...)
	for i := range t.Data {
		t.Data[i] = rng.NormFloat64()
	}
	return t
}

// HeInit initializes a (fanIn, fanOut) weight matrix with He-uniform scale,
// appropriate for relu-family activations.
func HeInit(rng *rand.Rand, fanIn, fanOut int) *Tensor {
	t := NewTensor(fanIn, fanOut)
	limit := math.Sqrt(6.0 / float64(fanIn))
	for i := range t.Data {
		t.Data[i] = (rng.Float64()*2 - 1) * limit
	}
	return t
}

// XavierInit initializes a (fanIn, fanOut) weight matrix with scaled-uniform
// Xavier/Glorot scale, appropriate for tanh/sigmoid activations.
func XavierInit(rng *rand.Rand, fanIn, fanOut int) *Tensor {
	t := NewTensor(fanIn, fanOut)
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	for i := range t.Data {
		t.Data[i] = (rng.Float64()*2 - 1) * limit
	}
	return t
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func Zeros(shape []int) *Tensor {
	return NewTensor(shape...)
}

func Ones(shape []int) *Tensor {
	t := NewTensor(shape...)
	for i := range t.Data {
		t.Data[i] = 1.0
	}
	return t
}

func AddBias(t *Tensor, bias *Tensor) *Tensor {
	result := t.Copy()

	if len(t.Shape) == 2 {
		for i := 0; i < t.Shape[0]; i++ {
			for j := 0; j < t.Shape[1]; j++ {
				result.Data[i*t.Shape[1]+j] += bias.Data[j]
			}
		}
	} else if len(t.Shape) == 3 {
		batchSize, m, n := t.Shape[0], t.Shape[1], t.Shape[2]
		for b := 0; b < batchSize; b++ {
			for i := 0; i < m; i++ {
				for j := 0; j < n; j++ {
					idx := b*m*n + i*n + j
					result.Data[idx] += bias.Data[j]
				}
			}
		}
	} else {
		panic("AddBias only supports 2D and 3D tensors")
	}

	return result
}

func RandomBernoulli(rng *rand.Rand, shape []int, p float64) *Tensor {
	t := NewTensor(shape...)
	for i := range t.Data {
		if rng.Float64() < p {
			t.Data[i] = 1.0
		} else {
			t.Data[i] = 0.0
		}
	}
	return t
}

func SqrtTensor(t *Tensor) *Tensor {
	result := t.Copy()
	for i := range result.Data {
		result.Data[i] = math.Sqrt(result.Data[i])
	}
	return result
}

func Sqrt(v float64) float64 {
	return math.Sqrt(v)
}
