package service

import "github.com/pkg/errors"

var errInsufficientData = errors.New("insufficient data")

// Score — результат одного анализатора. Err != nil: вклада нет из-за сбоя,
// а не из-за медвежьих данных.
type Score struct {
	Value      float64
	Confidence float64
	Err        error
}

func failed(err error) Score { return Score{Err: err} }

func boolScore(v bool) Score {
	if v {
		return Score{Value: 1, Confidence: 1}
	}
	return Score{Confidence: 1}
}
