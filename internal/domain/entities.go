package domain

import "time"

// ActionType names one kind of outreach action an account can perform.
type ActionType string

const (
	ActionConnectionRequest ActionType = "connection_request"
	ActionMessage           ActionType = "message"
	ActionProfileView       ActionType = "profile_view"
	ActionPostLike          ActionType = "post_like"
	ActionEndorsement       ActionType = "endorsement"
	ActionSearchPull        ActionType = "search_pull"
)

// ActionTypes lists every action type in a fixed evaluation order.
func ActionTypes() []ActionType {
	return []ActionType{
		ActionConnectionRequest,
		ActionMessage,
		ActionProfileView,
		ActionPostLike,
		ActionEndorsement,
		ActionSearchPull,
	}
}

// HasWeeklyCeiling reports whether the action type is also capped per ISO week.
func (t ActionType) HasWeeklyCeiling() bool {
	return t == ActionConnectionRequest || t == ActionMessage
}

// AccountTier describes the subscription level of an outreach account.
type AccountTier string

const (
	TierFree    AccountTier = "free"
	TierPremium AccountTier = "premium"
	TierElite   AccountTier = "elite"
)

// DenyReason is the closed set of admission denial reasons.
type DenyReason string

const (
	DenyOutsideWorkingHours DenyReason = "OUTSIDE_WORKING_HOURS"
	DenyDailyTotalLimit     DenyReason = "DAILY_TOTAL_LIMIT"
	DenyLowAcceptanceRate   DenyReason = "LOW_ACCEPTANCE_RATE"
	DenyPendingLimit        DenyReason = "PENDING_LIMIT"
	DenyDailyTypeLimit      DenyReason = "DAILY_TYPE_LIMIT"
	DenyWeeklyTypeLimit     DenyReason = "WEEKLY_TYPE_LIMIT"
	DenyNotConfigured       DenyReason = "NOT_CONFIGURED"
)

// DailyCeilings holds per-day action ceilings for one account.
type DailyCeilings struct {
	ConnectionRequests int
	Messages           int
	ProfileViews       int
	PostLikes          int
	Endorsements       int
	SearchPulls        int
	TotalActions       int
}

// ForAction returns the ceiling for a single action type.
func (c DailyCeilings) ForAction(t ActionType) int {
	switch t {
	case ActionConnectionRequest:
		return c.ConnectionRequests
	case ActionMessage:
		return c.Messages
	case ActionProfileView:
		return c.ProfileViews
	case ActionPostLike:
		return c.PostLikes
	case ActionEndorsement:
		return c.Endorsements
	case ActionSearchPull:
		return c.SearchPulls
	}
	return 0
}

// WeeklyCeilings caps the two action types that platforms meter per week.
type WeeklyCeilings struct {
	ConnectionRequests int
	Messages           int
}

// ForAction returns the weekly ceiling, or 0 for types without one.
func (c WeeklyCeilings) ForAction(t ActionType) int {
	switch t {
	case ActionConnectionRequest:
		return c.ConnectionRequests
	case ActionMessage:
		return c.Messages
	}
	return 0
}

// DelayConfig drives the pacing engine for one account.
type DelayConfig struct {
	MinSeconds         int
	MaxSeconds         int
	Randomize          bool
	BatchSize          int
	BatchBreakSeconds  int
	HumanizationChance float64
}

// WorkingHours gates actions to a local-time window [StartHour, EndHour).
type WorkingHours struct {
	Enabled   bool
	StartHour int
	EndHour   int
}

// AccountSafetyProfile holds every per-account knob of the safety engine.
// Profiles are never deleted, only deactivated.
type AccountSafetyProfile struct {
	AccountID      string
	WorkspaceID    string
	Tier           AccountTier
	Active         bool
	HasLiveSession bool

	Daily  DailyCeilings
	Weekly WeeklyCeilings

	WarmUpEnabled   bool
	WarmUpStartedAt time.Time

	Delay DelayConfig

	MinAcceptanceRate        float64
	PendingInvitationCeiling int

	Hours    WorkingHours
	Timezone string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location resolves the profile timezone, falling back to UTC.
func (p AccountSafetyProfile) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ActionCounts tallies performed actions by type.
type ActionCounts struct {
	ConnectionRequests int
	Messages           int
	ProfileViews       int
	PostLikes          int
	Endorsements       int
	SearchPulls        int
}

// ForAction returns the count for one action type.
func (c ActionCounts) ForAction(t ActionType) int {
	switch t {
	case ActionConnectionRequest:
		return c.ConnectionRequests
	case ActionMessage:
		return c.Messages
	case ActionProfileView:
		return c.ProfileViews
	case ActionPostLike:
		return c.PostLikes
	case ActionEndorsement:
		return c.Endorsements
	case ActionSearchPull:
		return c.SearchPulls
	}
	return 0
}

// Add increments the count for one action type.
func (c *ActionCounts) Add(t ActionType) {
	switch t {
	case ActionConnectionRequest:
		c.ConnectionRequests++
	case ActionMessage:
		c.Messages++
	case ActionProfileView:
		c.ProfileViews++
	case ActionPostLike:
		c.PostLikes++
	case ActionEndorsement:
		c.Endorsements++
	case ActionSearchPull:
		c.SearchPulls++
	}
}

// Total sums all actions regardless of type.
func (c ActionCounts) Total() int {
	return c.ConnectionRequests + c.Messages + c.ProfileViews +
		c.PostLikes + c.Endorsements + c.SearchPulls
}

// DailyUsage is one account's counters for one local calendar day.
// Only today's record is writable; past days are immutable history.
type DailyUsage struct {
	AccountID           string
	Date                string // YYYY-MM-DD in the account's timezone
	Counts              ActionCounts
	ConnectionsAccepted int
	AcceptanceRate      float64
	PendingInvitations  int
}

// WeeklyUsage is one account's coarse counters for one ISO week.
type WeeklyUsage struct {
	AccountID          string
	WeekStart          string // Monday, YYYY-MM-DD in the account's timezone
	ConnectionRequests int
	Messages           int
}

// ForAction returns the weekly count, or 0 for types not tracked weekly.
func (u WeeklyUsage) ForAction(t ActionType) int {
	switch t {
	case ActionConnectionRequest:
		return u.ConnectionRequests
	case ActionMessage:
		return u.Messages
	}
	return 0
}

// TaskStatus tracks an outreach task through one distribution pass.
type TaskStatus string

const (
	TaskPending  TaskStatus = "pending"
	TaskAssigned TaskStatus = "assigned"
	TaskSkipped  TaskStatus = "skipped"
)

// OutreachTask is one unit of pending outreach work.
type OutreachTask struct {
	ID          string
	WorkspaceID string
	CampaignID  string
	TargetID    string
	Action      ActionType
	Priority    int
	Status      TaskStatus
	AccountID   string // set once assigned
	CreatedAt   time.Time
}

// VariantStrategy selects how message variants rotate.
type VariantStrategy string

const (
	StrategySequential VariantStrategy = "sequential"
	StrategyRandom     VariantStrategy = "random"
	StrategyABTest     VariantStrategy = "ab_test"
)

// VariantStats are the per-variant outcome counters. They only increase.
type VariantStats struct {
	Sent    int
	Opened  int
	Replied int
}

// VariantOutcome is a reported outcome for one sent variant.
type VariantOutcome string

const (
	OutcomeSent    VariantOutcome = "sent"
	OutcomeOpened  VariantOutcome = "opened"
	OutcomeReplied VariantOutcome = "replied"
)

// MessageVariantSet groups the alternative texts of one message template.
type MessageVariantSet struct {
	ID        string
	Template  string
	Variants  []string
	Strategy  VariantStrategy
	Stats     []VariantStats
	NextIndex int // cursor for the sequential strategy
	CreatedAt time.Time
}

// ActionLogEntry is one diagnostic record of a dispatched action.
type ActionLogEntry struct {
	AccountID string
	Action    ActionType
	At        time.Time
	Success   bool
	Error     string
}

// Decision is the admission verdict for a single action.
// RemainingWeek is nil for action types without a weekly ceiling.
type Decision struct {
	Allowed        bool       `json:"allowed"`
	Reason         DenyReason `json:"reason,omitempty"`
	RemainingToday int        `json:"remaining_today"`
	RemainingWeek  *int       `json:"remaining_week,omitempty"`
}

// Deny builds a denial decision.
func Deny(reason DenyReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
