// Package accounts owns the lifecycle of account safety profiles:
// creation with tier defaults, runtime limit updates, deactivation.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"outreach-engine/internal/domain"
)

// warmupConnectionFloor: accounts below this many existing connections
// get warm-up enabled automatically on enrollment.
const warmupConnectionFloor = 100

// ErrUnknownTier is returned for a tier outside the known set.
var ErrUnknownTier = errors.New("unknown account tier")

// Service manages safety profiles.
type Service struct {
	profiles domain.ProfileRepo
	logger   zerolog.Logger
}

// NewService creates the profile service.
func NewService(profiles domain.ProfileRepo, logger zerolog.Logger) *Service {
	return &Service{profiles: profiles, logger: logger}
}

// Enroll creates a profile with tier defaults. Accounts with fewer than
// 100 existing connections start in warm-up.
func (s *Service) Enroll(ctx context.Context, accountID, workspaceID string, tier domain.AccountTier, existingConnections int, timezone string, now time.Time) (domain.AccountSafetyProfile, error) {
	defaults, err := tierDefaults(tier)
	if err != nil {
		return domain.AccountSafetyProfile{}, err
	}
	profile := defaults
	profile.AccountID = accountID
	profile.WorkspaceID = workspaceID
	profile.Active = true
	profile.Timezone = timezone
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if existingConnections < warmupConnectionFloor {
		profile.WarmUpEnabled = true
		profile.WarmUpStartedAt = now
	}
	if err := s.profiles.Put(ctx, profile); err != nil {
		return domain.AccountSafetyProfile{}, fmt.Errorf("store profile: %w", err)
	}
	s.logger.Info().
		Str("account", accountID).
		Str("tier", string(tier)).
		Bool("warmup", profile.WarmUpEnabled).
		Msg("accounts: profile enrolled")
	return profile, nil
}

// LimitsUpdate carries the runtime-mutable knobs. Nil fields keep their
// current values.
type LimitsUpdate struct {
	Daily                    *domain.DailyCeilings
	Weekly                   *domain.WeeklyCeilings
	Delay                    *domain.DelayConfig
	MinAcceptanceRate        *float64
	PendingInvitationCeiling *int
	Hours                    *domain.WorkingHours
	Timezone                 *string
	WarmUpEnabled            *bool
	HasLiveSession           *bool
}

// UpdateLimits applies a partial configuration update.
func (s *Service) UpdateLimits(ctx context.Context, accountID string, update LimitsUpdate, now time.Time) (domain.AccountSafetyProfile, error) {
	profile, err := s.profiles.Get(ctx, accountID)
	if err != nil {
		return domain.AccountSafetyProfile{}, fmt.Errorf("load profile: %w", err)
	}
	if update.Daily != nil {
		profile.Daily = *update.Daily
	}
	if update.Weekly != nil {
		profile.Weekly = *update.Weekly
	}
	if update.Delay != nil {
		profile.Delay = *update.Delay
	}
	if update.MinAcceptanceRate != nil {
		profile.MinAcceptanceRate = *update.MinAcceptanceRate
	}
	if update.PendingInvitationCeiling != nil {
		profile.PendingInvitationCeiling = *update.PendingInvitationCeiling
	}
	if update.Hours != nil {
		profile.Hours = *update.Hours
	}
	if update.Timezone != nil {
		profile.Timezone = *update.Timezone
	}
	if update.HasLiveSession != nil {
		profile.HasLiveSession = *update.HasLiveSession
	}
	if update.WarmUpEnabled != nil {
		if *update.WarmUpEnabled && !profile.WarmUpEnabled {
			profile.WarmUpStartedAt = now
		}
		profile.WarmUpEnabled = *update.WarmUpEnabled
	}
	profile.UpdatedAt = now
	if err := s.profiles.Put(ctx, profile); err != nil {
		return domain.AccountSafetyProfile{}, fmt.Errorf("store profile: %w", err)
	}
	return profile, nil
}

// Deactivate takes the account out of every future distribution pass.
// Profiles are never deleted.
func (s *Service) Deactivate(ctx context.Context, accountID string) error {
	if err := s.profiles.Deactivate(ctx, accountID); err != nil {
		return fmt.Errorf("deactivate profile: %w", err)
	}
	s.logger.Info().Str("account", accountID).Msg("accounts: profile deactivated")
	return nil
}

// tierDefaults returns the baseline ceilings per subscription tier.
func tierDefaults(tier domain.AccountTier) (domain.AccountSafetyProfile, error) {
	base := domain.AccountSafetyProfile{
		Tier: tier,
		Delay: domain.DelayConfig{
			MinSeconds:         45,
			MaxSeconds:         180,
			Randomize:          true,
			BatchSize:          10,
			BatchBreakSeconds:  900,
			HumanizationChance: 0.15,
		},
		MinAcceptanceRate:        0.25,
		PendingInvitationCeiling: 700,
		Hours: domain.WorkingHours{
			Enabled:   true,
			StartHour: 9,
			EndHour:   18,
		},
	}
	switch tier {
	case domain.TierFree:
		base.Daily = domain.DailyCeilings{
			ConnectionRequests: 25,
			Messages:           50,
			ProfileViews:       100,
			PostLikes:          60,
			Endorsements:       20,
			SearchPulls:        40,
			TotalActions:       250,
		}
		base.Weekly = domain.WeeklyCeilings{ConnectionRequests: 100, Messages: 250}
	case domain.TierPremium:
		base.Daily = domain.DailyCeilings{
			ConnectionRequests: 40,
			Messages:           80,
			ProfileViews:       150,
			PostLikes:          100,
			Endorsements:       30,
			SearchPulls:        80,
			TotalActions:       400,
		}
		base.Weekly = domain.WeeklyCeilings{ConnectionRequests: 200, Messages: 450}
	case domain.TierElite:
		base.Daily = domain.DailyCeilings{
			ConnectionRequests: 60,
			Messages:           120,
			ProfileViews:       250,
			PostLikes:          150,
			Endorsements:       50,
			SearchPulls:        150,
			TotalActions:       600,
		}
		base.Weekly = domain.WeeklyCeilings{ConnectionRequests: 350, Messages: 700}
	default:
		return domain.AccountSafetyProfile{}, ErrUnknownTier
	}
	return base, nil
}
