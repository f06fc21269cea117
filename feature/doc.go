// Package feature tracks optional capabilities as active or degraded.
//
// A failed optional feature must never abort application startup: Load
// converts a loader failure into a recorded, queryable degraded state
// instead of propagating the error. Consumers read through Use, which
// returns the stored implementation when the feature is active and the
// caller's fallback otherwise, keeping the degrade-to-default decision in
// one place.
//
//	reg := feature.NewRegistry()
//	reg.Load("recommendations", func() (any, error) {
//	    return connectRecommendationEngine()
//	})
//
//	engine := feature.Use[Recommender](reg, "recommendations", staticRecommender{})
package feature
