package network

import (
	"math"

	"github.com/muchq/moonbase/go/neuro/layers"
	"github.com/muchq/moonbase/go/neuro/utils"
)

type Optimizer interface {
	Step()
	SetLayers([]layers.Layer)
	Name() string
}

type SGD struct {
	lr       float64
	momentum float64
	layers   []layers.Layer
	velocity map[layers.Layer][]*utils.Tensor
}

func NewSGD(lr, momentum float64) *SGD {
	return &SGD{
		lr:       lr,
		momentum: momentum,
		velocity: make(map[layers.Layer][]*utils.Tensor),
	}
}

func (s *SGD) SetLayers(layers []layers.Layer) {
	s.layers = layers
	for _, layer := range layers {
		params := layer.GetParams()
		velocities := make([]*utils.Tensor, len(params))
		for i, param := range params {
			velocities[i] = utils.NewTensor(param.Shape...)
		}
		s.velocity[layer] = velocities
	}
}

func (s *SGD) Step() {
	if s.momentum == 0 {
		for _, layer := range s.layers {
			layer.UpdateWeights(s.lr)
		}
		return
	}

	for _, layer := range s.layers {
		params := layer.GetParams()
		grads := layer.GetGradients()
		velocities := s.velocity[layer]

		for i, param := range params {
			if i >= len(grads) || grads[i] == nil {
				continue
			}
			grad := grads[i]
			v := velocities[i]
			for j := range param.Data {
				v.Data[j] = s.momentum*v.Data[j] - s.lr*grad.Data[j]
				param.Data[j] += v.Data[j]
			}
		}
	}
}

func (s *SGD) Name() string {
	return "SGD"
}

// Adam, like RMSprop and Adagrad below, maintains per-parameter
// accumulator tensors keyed by layer and mutates GetParams() in place
// using GetGradients().
type Adam struct {
	lr      float64
	beta1   float64
	beta2   float64
	epsilon float64
	t       int
	layers  []layers.Layer
	m       map[layers.Layer][]*utils.Tensor
	v       map[layers.Layer][]*utils.Tensor
}

func NewAdam(lr float64) *Adam {
	return &Adam{
		lr:      lr,
		beta1:   0.9,
		beta2:   0.999,
		epsilon: 1e-8,
		t:       0,
		m:       make(map[layers.Layer][]*utils.Tensor),
		v:       make(map[layers.Layer][]*utils.Tensor),
	}
}

func (a *Adam) SetLayers(layers []layers.Layer) {
	a.layers = layers
	for _, layer := range layers {
		params := layer.GetParams()
		ms := make([]*utils.Tensor, len(params))
		vs := make([]*utils.Tensor, len(params))
		for i, param := range params {
			ms[i] = utils.NewTensor(param.Shape...)
			vs[i] = utils.NewTensor(param.Shape...)
		}
		a.m[layer] = ms
		a.v[layer] = vs
	}
}

func (a *Adam) Step() {
	a.t++

	biasCorr1 := 1 - math.Pow(a.beta1, float64(a.t))
	biasCorr2 := 1 - math.Pow(a.beta2, float64(a.t))

	for _, layer := range a.layers {
		params := layer.GetParams()
		grads := layer.GetGradients()
		ms := a.m[layer]
		vs := a.v[layer]

		for i, param := range params {
			if i >= len(grads) || grads[i] == nil {
				continue
			}
			grad := grads[i]
			mParam := ms[i]
			vParam := vs[i]

			for j := range param.Data {
				g := grad.Data[j]
				mParam.Data[j] = a.beta1*mParam.Data[j] + (1-a.beta1)*g
				vParam.Data[j] = a.beta2*vParam.Data[j] + (1-a.beta2)*g*g

				mHat := mParam.Data[j] / biasCorr1
				vHat := vParam.Data[j] / biasCorr2

				param.Data[j] -= a.lr * mHat / (math.Sqrt(vHat) + a.epsilon)
			}
		}
	}
}

func (a *Adam) Name() string {
	return "Adam"
}

type RMSprop struct {
	lr      float64
	decay   float64
	epsilon float64
	layers  []layers.Layer
	cache   map[layers.Layer][]*utils.Tensor
}

func NewRMSprop(lr float64) *RMSprop {
	return &RMSprop{
		lr:      lr,
		decay:   0.9,
		epsilon: 1e-8,
		cache:   make(map[layers.Layer][]*utils.Tensor),
	}
}

func (r *RMSprop) SetLayers(layers []layers.Layer) {
	r.layers = layers
	for _, layer := range layers {
		params := layer.GetParams()
		caches := make([]*utils.Tensor, len(params))
		for i, param := range params {
			caches[i] = utils.NewTensor(param.Shape...)
		}
		r.cache[layer] = caches
	}
}

func (r *RMSprop) Step() {
	for _, layer := range r.layers {
		params := layer.GetParams()
		grads := layer.GetGradients()
		caches := r.cache[layer]

		for i, param := range params {
			if i >= len(grads) || grads[i] == nil {
				continue
			}
			grad := grads[i]
			cache := caches[i]

			for j := range param.Data {
				g := grad.Data[j]
				cache.Data[j] = r.decay*cache.Data[j] + (1-r.decay)*g*g
				param.Data[j] -= r.lr * g / (math.Sqrt(cache.Data[j]) + r.epsilon)
			}
		}
	}
}

func (r *RMSprop) Name() string {
	return "RMSprop"
}

// Adagrad accumulates the full history of squared gradients per parameter,
// so effective learning rate monotonically decays over training.
type Adagrad struct {
	lr      float64
	epsilon float64
	layers  []layers.Layer
	cache   map[layers.Layer][]*utils.Tensor
}

func NewAdagrad(lr float64) *Adagrad {
	return &Adagrad{
		lr:      lr,
		epsilon: 1e-8,
		cache:   make(map[layers.Layer][]*utils.Tensor),
	}
}

func (ag *Adagrad) SetLayers(layers []layers.Layer) {
	ag.layers = layers
	for _, layer := range layers {
		params := layer.GetParams()
		caches := make([]*utils.Tensor, len(params))
		for i, param := range params {
			caches[i] = utils.NewTensor(param.Shape...)
		}
		ag.cache[layer] = caches
	}
}

func (ag *Adagrad) Step() {
	for _, layer := range ag.layers {
		params := layer.GetParams()
		grads := layer.GetGradients()
		caches := ag.cache[layer]

		for i, param := range params {
			if i >= len(grads) || grads[i] == nil {
				continue
			}
			grad := grads[i]
			cache := caches[i]

			for j := range param.Data {
				g := grad.Data[j]
				cache.Data[j] += g * g
				param.Data[j] -= ag.lr * g / (math.Sqrt(cache.Data[j]) + ag.epsilon)
			}
		}
	}
}

func (ag *Adagrad) Name() string {
	return "Adagrad"
}
