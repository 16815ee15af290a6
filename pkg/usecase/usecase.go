package usecase

import (
	"time"

	"github.com/secmon-lab/bailiff/pkg/domain/interfaces"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/domain/model/config"
	"github.com/secmon-lab/bailiff/pkg/service/slack"
	"github.com/secmon-lab/bailiff/pkg/utils/metrics"
)

// DefaultConfirmTimeout is how long an edit or delete prompt stays open
const DefaultConfirmTimeout = 60 * time.Second

// Clock returns the current time
type Clock func() time.Time

type UseCases struct {
	store          interfaces.RecordStore
	slack          slack.Service
	policy         *model.AccessPolicy
	channels       *config.Channels
	announcement   *config.Announcement
	metrics        *metrics.Metrics
	clock          Clock
	confirmTimeout time.Duration

	Record       *RecordUseCase
	Approval     *ApprovalUseCase
	Confirmation *ConfirmationUseCase
	Ballot       *BallotUseCase
	Announcement *AnnouncementUseCase
	Reaction     *ReactionUseCase
	Command      *CommandUseCase
	Interaction  *InteractionUseCase
}

type Option func(*UseCases)

func WithConfirmTimeout(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.confirmTimeout = d
	}
}

func WithClock(clock Clock) Option {
	return func(uc *UseCases) {
		uc.clock = clock
	}
}

func WithAnnouncement(cfg *config.Announcement) Option {
	return func(uc *UseCases) {
		uc.announcement = cfg
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *UseCases) {
		uc.metrics = m
	}
}

func New(store interfaces.RecordStore, slackSvc slack.Service, policy *model.AccessPolicy, channels *config.Channels, opts ...Option) *UseCases {
	uc := &UseCases{
		store:          store,
		slack:          slackSvc,
		policy:         policy,
		channels:       channels,
		announcement:   &config.Announcement{},
		clock:          time.Now,
		confirmTimeout: DefaultConfirmTimeout,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Record = NewRecordUseCase(store, slackSvc, policy, channels)
	uc.Approval = NewApprovalUseCase(store, policy)
	uc.Confirmation = NewConfirmationUseCase(store, slackSvc, policy, channels, uc.clock, uc.confirmTimeout)
	uc.Ballot = NewBallotUseCase(store, policy, channels)
	uc.Announcement = NewAnnouncementUseCase(slackSvc, policy, channels, uc.announcement)
	uc.Reaction = NewReactionUseCase(slackSvc, policy)
	uc.Command = NewCommandUseCase(uc)
	uc.Interaction = NewInteractionUseCase(uc)

	return uc
}
