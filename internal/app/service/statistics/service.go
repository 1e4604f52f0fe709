package statistics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/faceflowai/ledger/internal/models"
	"github.com/faceflowai/ledger/pkg/types"
)

type StatisticType string

const (
	// Consumption
	StatisticTypeDailyConsumptionCount StatisticType = "daily_consumption_count"

	// Credit flow
	StatisticTypeDailyCreditsGranted  StatisticType = "daily_credits_granted"
	StatisticTypeDailyCreditsConsumed StatisticType = "daily_credits_consumed"
	StatisticTypeTotalCreditsHeld     StatisticType = "total_credits_held"

	// Accounts
	StatisticTypeDailyNewAccountCount StatisticType = "daily_new_account_count"
	StatisticTypeActiveSubscribers    StatisticType = "active_subscribers"
)

// ErrInvalidDataItem rejects a statistic request naming an unknown data item.
var ErrInvalidDataItem = errors.New("invalid data item")

// Filters only apply where the underlying column exists.
var validFilters = map[string][]StatisticType{
	"source": {StatisticTypeDailyConsumptionCount},
	"kind":   {StatisticTypeDailyCreditsGranted, StatisticTypeDailyCreditsConsumed},
}

type StatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type StatisticRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	DataItems []*StatisticDataItem  `json:"data_items"`
}

func (f *StatisticRequest) filtersFor(statisticType StatisticType) clause.Expression {
	exprs := make([]clause.Expression, 0, len(f.Filters))
	for _, filter := range f.Filters {
		if statisticTypes, ok := validFilters[filter.Field]; ok && !lo.Contains(statisticTypes, statisticType) {
			continue
		}
		exprs = append(exprs, filter)
	}
	if len(exprs) == 0 {
		return clause.Expr{SQL: "1=1"}
	}
	return clause.Where{Exprs: exprs}
}

type StatisticResponseDataItem struct {
	Date  string `json:"date"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type StatisticResponse struct {
	DataItems map[StatisticType][]StatisticResponseDataItem `json:"data_items"`
}

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) getDailyConsumptionCount(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.ConsumptionRecord{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, source as label, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.filtersFor(StatisticTypeDailyConsumptionCount)}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Group("source").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyCreditsGranted(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.LedgerTransaction{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, sum(amount) as value").
		Where("kind = ?", types.LedgerEntryKindPurchase).
		Where(clause.Where{Exprs: []clause.Expression{request.filtersFor(StatisticTypeDailyCreditsGranted)}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyCreditsConsumed(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	// Consumption rows carry negative amounts; flip the sign for reporting.
	q := s.db.WithContext(ctx).Table((models.LedgerTransaction{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, -sum(amount) as value").
		Where("kind = ?", types.LedgerEntryKindConsumptionCredit).
		Where(clause.Where{Exprs: []clause.Expression{request.filtersFor(StatisticTypeDailyCreditsConsumed)}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTotalCreditsHeld(ctx context.Context, _ *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Account{}).TableName()).
		Select("COALESCE(sum(credit_balance), 0) as value")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyNewAccountCount(ctx context.Context, _ *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Account{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(*) as value").
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getActiveSubscribers(ctx context.Context, _ *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Account{}).TableName()).
		Select("subscription_tier as label, count(*) as value").
		Where("subscription_status = ?", types.SubscriptionStatusActive).
		Where("subscription_period_end IS NULL OR subscription_period_end >= ?", time.Now()).
		Group("subscription_tier")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getStatistic(ctx context.Context, request *StatisticRequest, dataItem *StatisticDataItem) ([]StatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyConsumptionCount:
		return s.getDailyConsumptionCount(ctx, request)
	case StatisticTypeDailyCreditsGranted:
		return s.getDailyCreditsGranted(ctx, request)
	case StatisticTypeDailyCreditsConsumed:
		return s.getDailyCreditsConsumed(ctx, request)
	case StatisticTypeTotalCreditsHeld:
		return s.getTotalCreditsHeld(ctx, request)
	case StatisticTypeDailyNewAccountCount:
		return s.getDailyNewAccountCount(ctx, request)
	case StatisticTypeActiveSubscribers:
		return s.getActiveSubscribers(ctx, request)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidDataItem, dataItem.ID)
	}
}

// GetStatistics resolves every requested data item concurrently and collects
// the results keyed by statistic type.
func (s *Service) GetStatistics(ctx context.Context, request *StatisticRequest) (*StatisticResponse, error) {
	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []StatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *StatisticDataItem) {
			defer wg.Done()
			res, err := s.getStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []StatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]StatisticResponseDataItem)
	for i := 0; i < len(request.DataItems); i++ {
		select {
		case err := <-errChan:
			if err != nil {
				return nil, err
			}
		case entry := <-resChan:
			results[entry.Key] = entry.Value
		}
	}
	return &StatisticResponse{DataItems: results}, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
