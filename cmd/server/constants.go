package main

import "github.com/muchq/moonbase/go/resilience4g/rate_limit"

// TrainRateLimiterConfig bounds how often a single client can kick off a
// training run; compiling a model and launching an epoch loop is the
// most expensive request this service handles.
var TrainRateLimiterConfig = &rate_limit.DefaultRateLimitConfig{
	MaxTokens:  5,
	RefillRate: 1,
	OpCost:     1,
}

// PredictRateLimiterConfig bounds inference requests, which are cheap
// individually but can be called far more often than training starts.
var PredictRateLimiterConfig = &rate_limit.DefaultRateLimitConfig{
	MaxTokens:  50,
	RefillRate: 10,
	OpCost:     1,
}
