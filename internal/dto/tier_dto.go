package dto

import "time"

type TierStatusResponse struct {
	Kind            string     `json:"kind"` // "free" | "pro"
	Effective       string     `json:"effective"`
	FreeTrialExpiry *time.Time `json:"free_trial_expiry,omitempty"`
}

type UsageStatusResponse struct {
	Tier             string `json:"tier"`
	TurnLimit        int    `json:"turn_limit"` // 0 means unlimited
	TurnsUsed        int    `json:"turns_used"`
	SessionLimit     int    `json:"session_limit"`
	SessionsUsed     int    `json:"sessions_used"`
	ShowModalPricing bool   `json:"show_modal_pricing"`
}
