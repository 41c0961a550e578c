package quota

import (
	"errors"
	"testing"
	"time"
)

func TestEffective(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name string
		tier Tier
		want TierKind
	}{
		{
			name: "free stays free",
			tier: Tier{Kind: TierFree},
			want: TierFree,
		},
		{
			name: "paid pro without expiry",
			tier: Tier{Kind: TierPro},
			want: TierPro,
		},
		{
			name: "trial pro before expiry",
			tier: Tier{Kind: TierPro, FreeTrialExpiry: &future},
			want: TierPro,
		},
		{
			name: "trial pro after expiry reverts",
			tier: Tier{Kind: TierPro, FreeTrialExpiry: &past},
			want: TierFree,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tier.Effective(now); got != tt.want {
				t.Errorf("Effective() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanSend(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		tier      Tier
		turnCount int
		want      bool
	}{
		{name: "free under limit", tier: Tier{Kind: TierFree}, turnCount: 4, want: true},
		{name: "free at limit", tier: Tier{Kind: TierFree}, turnCount: 5, want: false},
		{name: "free over limit", tier: Tier{Kind: TierFree}, turnCount: 12, want: false},
		{name: "pro over free limit", tier: Tier{Kind: TierPro}, turnCount: 100, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanSend(tt.tier, now, tt.turnCount)
			if d.Allowed != tt.want {
				t.Errorf("Allowed = %v, want %v", d.Allowed, tt.want)
			}
		})
	}
}

func TestCanSendExpiredTrialEnforcesFreeLimit(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	tier := Tier{Kind: TierPro, FreeTrialExpiry: &past}

	d := CanSend(tier, time.Now(), FreeMaxTurnsPerSession)
	if d.Allowed {
		t.Fatal("expected denial after trial expiry")
	}
	if d.Limit != FreeMaxTurnsPerSession || d.Used != FreeMaxTurnsPerSession {
		t.Errorf("Limit/Used = %d/%d, want %d/%d", d.Limit, d.Used, FreeMaxTurnsPerSession, FreeMaxTurnsPerSession)
	}
}

func TestCanCreateSession(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name         string
		tier         Tier
		sessionCount int
		want         bool
	}{
		{name: "free under limit", tier: Tier{Kind: TierFree}, sessionCount: 4, want: true},
		{name: "free at limit", tier: Tier{Kind: TierFree}, sessionCount: 5, want: false},
		{name: "pro unlimited", tier: Tier{Kind: TierPro}, sessionCount: 500, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanCreateSession(tt.tier, now, tt.sessionCount)
			if d.Allowed != tt.want {
				t.Errorf("Allowed = %v, want %v", d.Allowed, tt.want)
			}
		})
	}
}

func TestDecisionErr(t *testing.T) {
	if err := (Decision{Allowed: true}).Err(); err != nil {
		t.Errorf("allowed decision produced error: %v", err)
	}

	err := CanSend(Tier{Kind: TierFree}, time.Now(), FreeMaxTurnsPerSession).Err()
	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected *DeniedError, got %T", err)
	}
	if denied.Limit != FreeMaxTurnsPerSession {
		t.Errorf("Limit = %d, want %d", denied.Limit, FreeMaxTurnsPerSession)
	}
}
