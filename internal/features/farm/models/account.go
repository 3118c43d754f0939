package models

import "time"

// Account is a user's global farm balance. Accounts are created lazily on
// the first successful claim and never deleted.
type Account struct {
	Balance    int
	LastFarmAt time.Time
}

// RewardTier is one sub-range of the reward distribution. The tiers
// partition [1,50] and their probabilities sum to 1.
type RewardTier struct {
	Min, Max    int
	Probability float64
}

var RewardTiers = []RewardTier{
	{Min: 1, Max: 10, Probability: 0.40},
	{Min: 11, Max: 20, Probability: 0.25},
	{Min: 21, Max: 30, Probability: 0.15},
	{Min: 31, Max: 40, Probability: 0.10},
	{Min: 41, Max: 45, Probability: 0.07},
	{Min: 46, Max: 50, Probability: 0.03},
}
