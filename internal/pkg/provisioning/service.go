package provisioning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/handoff"
)

var (
	ErrBackendNotConfigured = errors.New("API URL not configured")
	ErrAccountExists        = errors.New("account already exists")
	ErrAlreadyProvisioned   = errors.New("subscription already provisioned")
	ErrInFlight             = errors.New("account creation already in progress")
)

const lockTTL = time.Minute

// Backend creates organizations. *Client implements it.
type Backend interface {
	CreateOrganization(ctx context.Context, in OrganizationRequest) (*Organization, error)
}

// Recorder receives provisioning outcomes for metrics.
type Recorder interface {
	ProvisioningResult(result string)
}

// Result is a successful provisioning.
type Result struct {
	Organization json.RawMessage
	AccessToken  string
	RefreshToken string
	User         json.RawMessage
}

// AutoLogin reports whether the backend issued a session for the new user.
func (r *Result) AutoLogin() bool {
	return r.AccessToken != ""
}

// Service runs one provisioning attempt per call, at most once per subscription.
type Service struct {
	backend Backend
	ledger  handoff.Ledger
	locker  Locker
	log     logrus.FieldLogger
	metrics Recorder
}

// NewService takes a nil backend when API_URL is not configured.
func NewService(backend Backend, ledger handoff.Ledger, locker Locker, log logrus.FieldLogger, metrics Recorder) *Service {
	return &Service{backend: backend, ledger: ledger, locker: locker, log: log, metrics: metrics}
}

func (s *Service) CreateAccount(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		s.metrics.ProvisioningResult("invalid")
		return nil, err
	}
	if s.backend == nil {
		s.log.WithField("missing", "API_URL").Error("provisioning backend is not configured")
		s.metrics.ProvisioningResult("not_configured")
		return nil, ErrBackendNotConfigured
	}

	log := s.log.WithFields(logrus.Fields{
		"subscription_id": req.StripeSubscriptionID,
		"customer_id":     req.StripeCustomerID,
		"plan_tier":       req.PlanTier,
	})

	release, ok, err := s.locker.Acquire(ctx, req.StripeSubscriptionID, lockTTL)
	if err != nil {
		s.metrics.ProvisioningResult("error")
		return nil, fmt.Errorf("acquire provisioning lock: %w", err)
	}
	if !ok {
		log.Warn("concurrent provisioning attempt rejected")
		s.metrics.ProvisioningResult("in_flight")
		return nil, ErrInFlight
	}
	defer release()

	state, err := s.ledger.Lookup(ctx, req.StripeSubscriptionID)
	if err != nil {
		s.metrics.ProvisioningResult("error")
		return nil, fmt.Errorf("lookup payment handoff: %w", err)
	}
	if _, err := handoff.Transition(state, handoff.TriggerProvisioned); err != nil {
		log.WithField("state", state).WithError(err).Warn("provisioning refused")
		s.metrics.ProvisioningResult("refused")
		if errors.Is(err, handoff.ErrAlreadyProvisioned) {
			return nil, ErrAlreadyProvisioned
		}
		return nil, err
	}

	org, err := s.backend.CreateOrganization(ctx, OrganizationRequest{
		Email:                req.Email,
		Password:             req.Passwd,
		Firstname:            req.Firstname,
		Lastname:             req.Lastname,
		PlanTier:             req.PlanTier,
		StripeCustomerID:     req.StripeCustomerID,
		StripeSubscriptionID: req.StripeSubscriptionID,
	})
	if err != nil {
		var berr *BackendError
		if errors.As(err, &berr) && berr.AlreadyExists() {
			log.Info("backend reports existing account")
			s.metrics.ProvisioningResult("conflict")
			return nil, fmt.Errorf("%w: %v", ErrAccountExists, err)
		}
		log.WithError(err).Error("organization creation failed")
		s.metrics.ProvisioningResult("error")
		return nil, err
	}

	if err := s.ledger.MarkProvisioned(ctx, handoff.PaymentHandoff{
		Email:            req.Email,
		PlanID:           req.PlanTier,
		StripeCustomerID: req.StripeCustomerID,
		SubscriptionID:   req.StripeSubscriptionID,
		IsTrial:          req.IsTrial,
	}); err != nil {
		log.WithError(err).Error("account created but handoff ledger not updated")
	}

	log.WithField("auto_login", org.AccessToken != "").Info("account provisioned")
	s.metrics.ProvisioningResult("created")
	return &Result{
		Organization: org.Raw,
		AccessToken:  org.AccessToken,
		RefreshToken: org.RefreshToken,
		User:         org.User,
	}, nil
}
