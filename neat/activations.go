package neat

import (
	"fmt"
	"math"
)

// ActivationType is a node transfer function.
type ActivationType func(x float64) float64

// ActivationFunctions maps activation names accepted by activation_default to their implementation.
var ActivationFunctions = map[string]ActivationType{
	"sigmoid":  Sigmoid,
	"tanh":     math.Tanh,
	"relu":     ReLU,
	"identity": Identity,
	"clamped":  Clamped,
	"gaussian": Gaussian,
	"abs":      math.Abs,
	"sine":     math.Sin,
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationType, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// Sigmoid is the steepened logistic curve from the NEAT paper, 1/(1+e^(-4.9x)).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-4.9*clamp(x, -60, 60)))
}

// ReLU returns max(0, x).
func ReLU(x float64) float64 {
	return math.Max(0, x)
}

// Identity returns x unchanged.
func Identity(x float64) float64 {
	return x
}

// Clamped limits x to [-1, 1].
func Clamped(x float64) float64 {
	return clamp(x, -1.0, 1.0)
}

// Gaussian is the unnormalised bell curve e^(-x^2/2).
func Gaussian(x float64) float64 {
	return math.Exp(-x * x / 2.0)
}
