// internal/service/business/business_service.go
package business

import (
	"context"
	"fmt"
	"strconv"
	"time"

	businessdom "tafiti-service/internal/domain/business"
	"tafiti-service/internal/domain/event"
	"tafiti-service/internal/eventbus"
	"tafiti-service/internal/metrics"
	xerrors "tafiti-service/internal/pkg/errors"
	"tafiti-service/internal/repository"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// transTimeLayout is the mobile-money gateway's timestamp format
// (yyyyMMddHHmmss).
const transTimeLayout = "20060102150405"

// BusinessService ingests mobile-money confirmation webhooks.
type BusinessService struct {
	integrations repository.BusinessIntegrations
	transactions repository.BusinessTransactions
	bus          *eventbus.Bus
	logger       *zap.Logger
}

func NewBusinessService(
	integrations repository.BusinessIntegrations,
	transactions repository.BusinessTransactions,
	bus *eventbus.Bus,
	logger *zap.Logger,
) *BusinessService {
	return &BusinessService{
		integrations: integrations,
		transactions: transactions,
		bus:          bus,
		logger:       logger,
	}
}

// CreateIntegration registers an inbound channel. Only the bcrypt hash
// of the path secret is stored.
func (s *BusinessService) CreateIntegration(ctx context.Context, tenantID int64, in *businessdom.CreateIntegrationInput) (*businessdom.Integration, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash integration secret: %w", err)
	}

	integration := &businessdom.Integration{
		TenantID:   tenantID,
		SurveyRef:  in.SurveyRef,
		Name:       in.Name,
		SecretHash: string(hash),
		ShortCodes: pq.StringArray(in.ShortCodes),
		Status:     businessdom.IntegrationStatusActive,
	}
	if err := s.integrations.Create(ctx, integration); err != nil {
		return nil, err
	}

	s.logger.Info("business integration created",
		zap.Int64("integration_id", integration.ID),
		zap.Int64("tenant_id", tenantID),
	)
	return integration, nil
}

// Confirm authenticates and records one mobile-money confirmation.
// Duplicate external txn ids are acknowledged without side effects and
// without re-emitting the downstream event.
func (s *BusinessService) Confirm(ctx context.Context, integrationID int64, secret string, in *businessdom.ConfirmationInput) error {
	integration, err := s.integrations.FindByID(ctx, integrationID)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		metrics.BusinessTransactionsTotal.WithLabelValues("rejected").Inc()
		return xerrors.ErrUnauthorized
	}
	if err != nil {
		return err
	}

	if integration.Status != businessdom.IntegrationStatusActive {
		metrics.BusinessTransactionsTotal.WithLabelValues("rejected").Inc()
		return xerrors.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(integration.SecretHash), []byte(secret)) != nil {
		metrics.BusinessTransactionsTotal.WithLabelValues("rejected").Inc()
		return xerrors.ErrUnauthorized
	}

	amount, err := strconv.ParseFloat(in.TransAmount, 64)
	if err != nil {
		return fmt.Errorf("%w: bad transaction amount %q", xerrors.ErrInvalidInput, in.TransAmount)
	}

	transTime, err := time.Parse(transTimeLayout, in.TransTime)
	if err != nil {
		transTime = time.Now()
	}

	record := &businessdom.TransactionRecord{
		IntegrationID:   integration.ID,
		TenantID:        integration.TenantID,
		ExternalTxnID:   in.TransID,
		MSISDN:          in.MSISDN,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Amount:          amount,
		ShortCode:       in.BusinessShortCode,
		TransactionTime: transTime,
	}

	created, err := s.transactions.CreateIfAbsent(ctx, record)
	if err != nil {
		return err
	}
	if !created {
		metrics.BusinessTransactionsTotal.WithLabelValues("duplicate").Inc()
		s.logger.Info("duplicate business transaction acknowledged",
			zap.String("external_txn_id", in.TransID),
		)
		return nil
	}

	metrics.BusinessTransactionsTotal.WithLabelValues("recorded").Inc()

	fullName := in.FirstName
	if in.LastName != "" {
		if fullName != "" {
			fullName += " "
		}
		fullName += in.LastName
	}

	s.bus.Publish(event.BusinessTransactionReceived{
		TenantID:        integration.TenantID,
		IntegrationID:   integration.ID,
		SurveyRef:       integration.SurveyRef,
		MSISDN:          in.MSISDN,
		FullName:        fullName,
		Amount:          amount,
		TransactionTime: transTime,
	})

	s.logger.Info("business transaction recorded",
		zap.Int64("integration_id", integration.ID),
		zap.String("external_txn_id", in.TransID),
		zap.Float64("amount", amount),
	)
	return nil
}
