package usecase

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edbennett/daytrader/internal/domain"
)

// Feature names shared with the training job. The training set also carries
// close-of-day target fields; those are never built here, so a model whose
// stored feature order requests one fails vector construction and the
// symbol is dropped instead of predicting on leaked data.
const (
	featDailyOpen      = "daily_open"
	featDailyClose     = "daily_close"
	featMACDHistogram  = "daily_macd_histogram"
	featMACDDerivative = "daily_macd_first_derivative"
	featTargetOpen     = "target_date_daily_open"
)

var weekdayFeatures = map[time.Weekday]string{
	time.Monday:    "weekday_monday",
	time.Tuesday:   "weekday_tuesday",
	time.Wednesday: "weekday_wednesday",
	time.Thursday:  "weekday_thursday",
	time.Friday:    "weekday_friday",
}

// QualityBar is the fixed metric floor a model must clear to trade. Stale
// or low-quality models never trade even if they vote.
type QualityBar struct {
	MinPrecision        float64
	MinBalancedAccuracy float64
	MinTrainingRows     int64
	Freshness           time.Duration
}

func (q QualityBar) clears(record *domain.ModelRecord, sessionStart time.Time) bool {
	if record == nil {
		return false
	}
	if record.Precision <= q.MinPrecision {
		return false
	}
	if record.BalancedAccuracy <= q.MinBalancedAccuracy {
		return false
	}
	if record.TrainingSetRows <= q.MinTrainingRows {
		return false
	}
	return sessionStart.Sub(record.CreatedAt) <= q.Freshness
}

// SignalInputs is everything one decisioning pass consumes. All of it is a
// session-scoped snapshot.
type SignalInputs struct {
	Sets         map[string]*ModelSet
	History      map[string][]domain.Bar
	Opens        map[string]float64
	Shortable    map[string]bool
	SessionStart time.Time
}

// SignalService reduces per-symbol ensemble votes to trade decisions.
type SignalService struct {
	quality QualityBar
	logger  *zap.Logger
}

func NewSignalService(quality QualityBar, logger *zap.Logger) *SignalService {
	return &SignalService{quality: quality, logger: logger}
}

// Decide runs the ensemble reduction for every symbol with a complete model
// set:
//
//	symmetric=1 and positive=1            -> long
//	symmetric=0 and negative=1, shortable -> short
//	otherwise                             -> none
//
// A symbol with no opening print or too little history is dropped from the
// session rather than defaulted.
func (s *SignalService) Decide(in SignalInputs) []domain.Decision {
	decisions := make([]domain.Decision, 0, len(in.Sets))
	for symbol, set := range in.Sets {
		open, ok := in.Opens[symbol]
		if !ok {
			s.logger.Info("no opening print, dropping symbol", zap.String("symbol", symbol))
			continue
		}

		bars := in.History[symbol]
		if len(bars) < minHistoryBars {
			s.logger.Info("insufficient history, dropping symbol",
				zap.String("symbol", symbol), zap.Int("bars", len(bars)))
			continue
		}

		features := inferenceFeatures(bars, open, in.SessionStart)

		decision, err := s.reduce(symbol, set, features, in)
		if err != nil {
			s.logger.Warn("prediction failed, dropping symbol",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		decision.EntryPrice = open
		decisions = append(decisions, decision)
	}
	return decisions
}

func (s *SignalService) reduce(symbol string, set *ModelSet, features map[string]float64, in SignalInputs) (domain.Decision, error) {
	decision := domain.Decision{
		Symbol:    symbol,
		Direction: domain.DirectionNone,
		ModelID:   set.SymmetricRecord.ModelID,
	}

	symVec, err := vectorFor(set.SymmetricRecord, features)
	if err != nil {
		return decision, err
	}
	symmetricPred, err := set.Symmetric.Predict(symVec)
	if err != nil {
		return decision, err
	}

	usedRecords := []*domain.ModelRecord{set.SymmetricRecord}

	switch {
	case symmetricPred == 1 && set.Positive != nil:
		vec, err := vectorFor(set.PositiveRecord, features)
		if err != nil {
			return decision, err
		}
		pred, err := set.Positive.Predict(vec)
		if err != nil {
			return decision, err
		}
		if pred == 1 {
			decision.Direction = domain.DirectionLong
			usedRecords = append(usedRecords, set.PositiveRecord)
		}
	case symmetricPred == 0 && set.Negative != nil:
		vec, err := vectorFor(set.NegativeRecord, features)
		if err != nil {
			return decision, err
		}
		pred, err := set.Negative.Predict(vec)
		if err != nil {
			return decision, err
		}
		if pred == 1 && in.Shortable[symbol] {
			decision.Direction = domain.DirectionShort
			usedRecords = append(usedRecords, set.NegativeRecord)
		}
	}

	if decision.Direction != domain.DirectionNone {
		decision.Eligible = true
		for _, record := range usedRecords {
			if !s.quality.clears(record, in.SessionStart) {
				s.logger.Info("model below quality bar, decision ineligible",
					zap.String("symbol", symbol), zap.String("model_id", record.ModelID))
				decision.Eligible = false
				break
			}
		}
	}
	return decision, nil
}

// inferenceFeatures derives the feature map for "today" from the most
// recent completed session plus today's opening print.
func inferenceFeatures(bars []domain.Bar, open float64, sessionStart time.Time) map[string]float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	_, _, histogram, derivative := MACD(closes)

	last := bars[len(bars)-1]
	features := map[string]float64{
		featDailyOpen:      last.Open,
		featDailyClose:     last.Close,
		featMACDHistogram:  histogram[len(histogram)-1],
		featMACDDerivative: derivative[len(derivative)-1],
		featTargetOpen:     open,
	}
	for _, name := range weekdayFeatures {
		features[name] = 0
	}
	if name, ok := weekdayFeatures[sessionStart.Weekday()]; ok {
		features[name] = 1
	}
	return features
}

// vectorFor arranges features in the order the model was trained against.
// A feature the inference side does not produce is an error, never a
// default.
func vectorFor(record *domain.ModelRecord, features map[string]float64) ([]float64, error) {
	vec := make([]float64, len(record.FeatureOrder))
	for i, name := range record.FeatureOrder {
		v, ok := features[name]
		if !ok {
			return nil, fmt.Errorf("model %s: feature %q unavailable at inference time", record.ModelID, name)
		}
		vec[i] = v
	}
	return vec, nil
}
