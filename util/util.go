package util

import (
	"golang.org/x/exp/constraints"
)

func Abs[A constraints.Signed](n A) A {
	if n < 0 {
		return -n
	}
	return n
}

// Mod returns n modulo m in [0, m) for positive m, unlike the % operator
// which keeps the sign of n.
func Mod[A constraints.Integer](n, m A) A {
	return ((n % m) + m) % m
}

func Min[A constraints.Ordered](num1 A, num2 A) A {
	if num1 > num2 {
		return num2
	}
	return num1
}

func Max[A constraints.Ordered](num1 A, num2 A) A {
	if num1 < num2 {
		return num2
	}
	return num1
}

func Clamp[A constraints.Ordered](n, lo, hi A) A {
	return Max(lo, Min(n, hi))
}

func Contains[A comparable](items []A, item A) bool {
	for _, v := range items {
		if v == item {
			return true
		}
	}
	return false
}
