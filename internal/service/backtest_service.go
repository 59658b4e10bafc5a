package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"stock-backtest/config"
	"stock-backtest/internal/dto"
	"stock-backtest/internal/engine"
	"stock-backtest/internal/model"
	"stock-backtest/internal/repository"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/metrics"
	"stock-backtest/pkg/utils"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

type BacktestService interface {
	RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestResponse, error)
	RunBatch(ctx context.Context, req dto.BatchBacktestRequest) (*dto.BatchBacktestResponse, error)
	ListRuns(ctx context.Context, param dto.ListBacktestRunsParam) ([]dto.BacktestRunResponse, error)
}

type backtestService struct {
	cfg       *config.Config
	log       *logger.Logger
	validator *goValidator.Validate
	prices    repository.PriceHistoryRepository
	runRepo   repository.BacktestRunRepository
	metrics   *metrics.Metrics
}

// NewBacktestService wires the backtest use cases. runRepo may be nil, in
// which case runs are not persisted and ListRuns returns an empty history.
func NewBacktestService(
	cfg *config.Config,
	log *logger.Logger,
	validator *goValidator.Validate,
	prices repository.PriceHistoryRepository,
	runRepo repository.BacktestRunRepository,
	m *metrics.Metrics,
) BacktestService {
	return &backtestService{
		cfg:       cfg,
		log:       log,
		validator: validator,
		prices:    prices,
		runRepo:   runRepo,
		metrics:   m,
	}
}

// DefaultParams converts the configured defaults into engine parameters.
func DefaultParams(cfg config.Backtest) engine.Params {
	p := engine.DefaultParams()
	if cfg.ShortWindow > 0 {
		p.ShortWindow = cfg.ShortWindow
	}
	if cfg.LongWindow > 0 {
		p.LongWindow = cfg.LongWindow
	}
	if cfg.CostRate >= 0 {
		p.CostRate = cfg.CostRate
	}
	p.UseRSIFilter = cfg.UseRSIFilter
	if cfg.RSIWindow > 0 {
		p.RSIWindow = cfg.RSIWindow
	}
	if cfg.RSICeiling > 0 {
		p.RSICeiling = cfg.RSICeiling
	}
	if cfg.InitialCapital > 0 {
		p.InitialCapital = cfg.InitialCapital
	}
	return p
}

func (s *backtestService) resolve(exchange, priceRange, preset string, overrides dto.BacktestParams) (string, string, engine.Params, error) {
	if exchange == "" {
		exchange = s.cfg.Backtest.DefaultExchange
	}
	if priceRange == "" {
		priceRange = s.cfg.Backtest.DefaultRange
	}
	params := overrides.Apply(DefaultParams(s.cfg.Backtest), preset)
	if params.RSIWindow == 0 {
		params.RSIWindow = engine.DefaultRSIWindow
	}
	// Checked here as well as in the engine so bad input never costs an upstream request.
	if err := params.Validate(); err != nil {
		return "", "", engine.Params{}, err
	}
	return strings.ToUpper(exchange), priceRange, params, nil
}

func (s *backtestService) RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	exchange, priceRange, params, err := s.resolve(req.Exchange, req.Range, req.Preset, req.Params)
	if err != nil {
		s.metrics.ObserveBacktest(metrics.StatusInvalidParameter, s.prices.Source(), 0, 0)
		return nil, err
	}

	resp, err := s.run(ctx, strings.ToUpper(strings.TrimSpace(req.Symbol)), exchange, priceRange, params)
	if err != nil {
		return nil, err
	}
	if req.IncludeSeries {
		resp.Series = dto.NewSeriesResponse(resp.Result)
	}
	return resp, nil
}

func (s *backtestService) run(ctx context.Context, symbol, exchange, priceRange string, params engine.Params) (*dto.BacktestResponse, error) {
	start := time.Now()
	source := s.prices.Source()
	log := s.log.FromContext(ctx).With(
		logger.StringField("symbol", symbol),
		logger.StringField("exchange", exchange),
		logger.StringField("range", priceRange),
	)

	prices, err := s.prices.GetPrices(ctx, dto.GetStockDataParam{
		StockCode: symbol,
		Exchange:  exchange,
		Range:     priceRange,
	})
	if err != nil {
		s.metrics.ObserveBacktest(statusOf(err), source, time.Since(start), 0)
		log.Warn("Failed to get price history", logger.ErrorField(err))
		return nil, fmt.Errorf("price history for %s: %w", symbol, err)
	}

	result, err := engine.Run(prices, params)
	if err != nil {
		s.metrics.ObserveBacktest(statusOf(err), source, time.Since(start), 0)
		log.Warn("Backtest rejected", logger.ErrorField(err), logger.IntField("bars", len(prices)))
		return nil, fmt.Errorf("backtest %s: %w", symbol, err)
	}

	resp := &dto.BacktestResponse{
		RunID:     uuid.NewString(),
		Symbol:    symbol,
		Exchange:  exchange,
		Range:     priceRange,
		Source:    source,
		Params:    result.Params,
		Bars:      len(prices),
		StartDate: prices[0].Timestamp,
		EndDate:   prices[len(prices)-1].Timestamp,
		Summary:   dto.NewSummaryResponse(result.Summary),
		Result:    result,
	}

	s.persist(ctx, resp)

	elapsed := time.Since(start)
	s.metrics.ObserveBacktest(metrics.StatusSuccess, source, elapsed, result.Summary.TradeCount)
	log.Info("Backtest completed",
		logger.StringField("run_id", resp.RunID),
		logger.IntField("bars", resp.Bars),
		logger.Float64Field("roi", result.Summary.ROI),
		logger.Float64Field("market_roi", result.Summary.MarketROI),
		logger.Float64Field("max_drawdown", result.Summary.MaxDrawdown),
		logger.IntField("trades", result.Summary.TradeCount),
		logger.DurationField("elapsed", elapsed),
	)
	return resp, nil
}

// persist stores the run. Failures are logged and alerted but do not fail the
// backtest, which the caller already has in hand.
func (s *backtestService) persist(ctx context.Context, resp *dto.BacktestResponse) {
	if s.runRepo == nil || !s.cfg.Backtest.PersistRuns {
		return
	}

	run, err := newBacktestRun(resp)
	if err == nil {
		err = s.runRepo.Create(ctx, run)
	}
	if err != nil {
		s.log.ErrorContextWithAlert(ctx, "Failed to persist backtest run",
			logger.ErrorField(err),
			logger.StringField("run_id", resp.RunID),
			logger.StringField("symbol", resp.Symbol))
	}
}

func newBacktestRun(resp *dto.BacktestResponse) (*model.BacktestRun, error) {
	runID, err := uuid.Parse(resp.RunID)
	if err != nil {
		return nil, fmt.Errorf("invalid run id: %w", err)
	}
	params, err := json.Marshal(resp.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	sum := resp.Result.Summary
	run := &model.BacktestRun{
		RunID:            runID,
		Symbol:           resp.Symbol,
		Exchange:         resp.Exchange,
		PriceRange:       resp.Range,
		Source:           resp.Source,
		Params:           datatypes.JSON(params),
		Bars:             resp.Bars,
		StartDate:        resp.StartDate,
		EndDate:          resp.EndDate,
		FinalValue:       sum.FinalValue,
		MarketFinalValue: sum.MarketFinalValue,
		ROI:              sum.ROI,
		MarketROI:        sum.MarketROI,
		ExcessROI:        sum.ExcessROI,
		MaxDrawdown:      sum.MaxDrawdown,
		TradeCount:       sum.TradeCount,
		InPosition:       sum.InPosition,
	}
	if !math.IsNaN(sum.LastRSI) {
		run.LastRSI.Float64, run.LastRSI.Valid = sum.LastRSI, true
	}
	return run, nil
}

// RunBatch backtests every symbol with the same parameters and ranks the
// successful ones by ROI. A failing symbol is reported in its item and never
// aborts the batch; only cancellation of ctx does.
func (s *backtestService) RunBatch(ctx context.Context, req dto.BatchBacktestRequest) (*dto.BatchBacktestResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	symbols := utils.NormalizeSymbols(req.Symbols)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols", ErrInvalidRequest)
	}
	if limit := s.cfg.Backtest.MaxBatchSymbols; limit > 0 && len(symbols) > limit {
		return nil, fmt.Errorf("%w: %d symbols exceeds the limit of %d", ErrInvalidRequest, len(symbols), limit)
	}

	exchange, priceRange, params, err := s.resolve(req.Exchange, req.Range, req.Preset, req.Params)
	if err != nil {
		s.metrics.ObserveBacktest(metrics.StatusInvalidParameter, s.prices.Source(), 0, 0)
		return nil, err
	}

	concurrency := s.cfg.Backtest.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		mu    sync.Mutex
		items = make([]dto.BatchBacktestItem, 0, len(symbols))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, symbol := range symbols {
		if !utils.ShouldContinue(gctx, s.log) {
			break
		}
		symbol := symbol
		g.Go(func() error {
			item := dto.BatchBacktestItem{Symbol: symbol}
			resp, err := s.run(gctx, symbol, exchange, priceRange, params)
			if err != nil {
				item.Error = err.Error()
			} else {
				summary := resp.Summary
				item.Summary = &summary
				item.RunID = resp.RunID
				item.Bars = resp.Bars
			}

			mu.Lock()
			items = append(items, item)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &dto.BatchBacktestResponse{
		Exchange: exchange,
		Range:    priceRange,
		Params:   params,
		Results:  RankBatch(items),
	}
	for _, item := range out.Results {
		if item.Error != "" {
			out.Failed++
		} else {
			out.Succeeded++
		}
	}

	s.log.InfoContext(ctx, "Batch backtest completed",
		logger.IntField("symbols", len(symbols)),
		logger.IntField("succeeded", out.Succeeded),
		logger.IntField("failed", out.Failed))
	return out, nil
}

// RankBatch orders successful items by ROI descending (ties by symbol) and
// numbers them from 1; failed items follow in symbol order without a rank.
func RankBatch(items []dto.BatchBacktestItem) []dto.BatchBacktestItem {
	ranked := make([]dto.BatchBacktestItem, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if (a.Summary == nil) != (b.Summary == nil) {
			return a.Summary != nil
		}
		if a.Summary != nil && a.Summary.ROI != b.Summary.ROI {
			return a.Summary.ROI > b.Summary.ROI
		}
		return a.Symbol < b.Symbol
	})
	for i := range ranked {
		if ranked[i].Summary != nil {
			ranked[i].Rank = i + 1
		}
	}
	return ranked
}

func (s *backtestService) ListRuns(ctx context.Context, param dto.ListBacktestRunsParam) ([]dto.BacktestRunResponse, error) {
	if err := s.validator.Struct(param); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if s.runRepo == nil {
		return []dto.BacktestRunResponse{}, nil
	}

	runs, err := s.runRepo.List(ctx, model.GetBacktestRunParam{
		Symbol: strings.ToUpper(strings.TrimSpace(param.Symbol)),
		Limit:  param.Limit,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list backtest runs", logger.ErrorField(err))
		return nil, err
	}

	out := make([]dto.BacktestRunResponse, 0, len(runs))
	for _, run := range runs {
		item := dto.BacktestRunResponse{
			RunID:            run.RunID.String(),
			Symbol:           run.Symbol,
			Exchange:         run.Exchange,
			Range:            run.PriceRange,
			Source:           run.Source,
			Bars:             run.Bars,
			StartDate:        run.StartDate,
			EndDate:          run.EndDate,
			FinalValue:       run.FinalValue,
			MarketFinalValue: run.MarketFinalValue,
			ROI:              run.ROI,
			MarketROI:        run.MarketROI,
			ExcessROI:        run.ExcessROI,
			MaxDrawdown:      run.MaxDrawdown,
			TradeCount:       run.TradeCount,
			InPosition:       run.InPosition,
			CreatedAt:        run.CreatedAt,
		}
		if err := json.Unmarshal(run.Params, &item.Params); err != nil {
			s.log.WarnContext(ctx, "Stored params are not valid JSON", logger.StringField("run_id", item.RunID), logger.ErrorField(err))
		}
		if run.LastRSI.Valid {
			item.LastRSI = utils.ToPointer(run.LastRSI.Float64)
		}
		out = append(out, item)
	}
	return out, nil
}

func statusOf(err error) string {
	switch {
	case errors.Is(err, engine.ErrInvalidParameter), errors.Is(err, ErrInvalidRequest):
		return metrics.StatusInvalidParameter
	case errors.Is(err, engine.ErrInsufficientData):
		return metrics.StatusInsufficientData
	default:
		return metrics.StatusError
	}
}
