package roi

import (
	"fmt"
	"math"
)

// RoundPolicy selects the rounding direction for RoundToDivisor.
type RoundPolicy int

const (
	RoundNearest RoundPolicy = iota
	RoundCeil
	RoundFloor
)

func (p RoundPolicy) String() string {
	switch p {
	case RoundNearest:
		return "nearest"
	case RoundCeil:
		return "ceil"
	case RoundFloor:
		return "floor"
	default:
		return fmt.Sprintf("RoundPolicy(%d)", int(p))
	}
}

// RoundToDivisor quantizes value to the nearest multiple of divisor using
// the given policy. Used by UI layers to snap entered values to a display
// grid. divisor must be positive. The nearest policy rounds half-way
// quotients to the even multiple, so 25 snapped to a grid of 10 gives 20.
func RoundToDivisor(value float64, divisor int, policy RoundPolicy) (int, error) {
	if divisor <= 0 {
		return 0, fmt.Errorf("%w: divisor %d must be positive", ErrInvalidArgument, divisor)
	}

	q := value / float64(divisor)
	switch policy {
	case RoundCeil:
		q = math.Ceil(q)
	case RoundFloor:
		q = math.Floor(q)
	case RoundNearest:
		q = math.RoundToEven(q)
	default:
		return 0, fmt.Errorf("%w: unknown round policy %d", ErrInvalidArgument, int(policy))
	}
	return int(q) * divisor, nil
}

// RoundSliceToDivisor applies RoundToDivisor elementwise, returning a slice
// of the same length and order.
func RoundSliceToDivisor(values []float64, divisor int, policy RoundPolicy) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		r, err := RoundToDivisor(v, divisor, policy)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}
