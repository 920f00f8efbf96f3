package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BestPrice/internal/domain/models"
	drepo "BestPrice/internal/domain/repository"
	"BestPrice/internal/services/reservation"
	"BestPrice/pkg/logger"
)

// LiveSelector runs the one-shot online selection against a live stream:
// the reservation price is fixed up front and the first trade at or above
// it is taken.
type LiveSelector struct {
	stream  drepo.MarketStream
	metrics drepo.Metrics
	log     *logger.Logger
	now     func() time.Time
}

func NewLiveSelector(stream drepo.MarketStream, metrics drepo.Metrics, log *logger.Logger) *LiveSelector {
	if log == nil {
		log = logger.Nop()
	}
	return &LiveSelector{stream: stream, metrics: metrics, log: log, now: time.Now}
}

// Run subscribes to symbol and watches up to maxTicks trades. The session
// ends at the first acceptable price, or at the last allowed tick which is
// then taken as a forced trade. Cancelling ctx ends it without a trade.
func (s *LiveSelector) Run(ctx context.Context, symbol string, p reservation.Params, maxTicks int) (*models.LiveResult, error) {
	if maxTicks < 1 {
		return nil, fmt.Errorf("max ticks must be at least 1, got %d", maxTicks)
	}
	threshold, err := reservation.Threshold(p)
	if err != nil {
		return nil, err
	}

	if err := s.stream.Connect(ctx); err != nil {
		return nil, err
	}
	defer s.stream.Close()
	if err := s.stream.Subscribe(ctx, symbol); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	trades, errs := s.stream.Read(ctx)

	res := &models.LiveResult{Symbol: symbol, Reservation: threshold}
	s.log.Info("live selection started",
		logger.String("symbol", symbol),
		logger.String("family", p.Family.String()),
		logger.Float64("reservation", threshold),
		logger.Int("max_ticks", maxTicks))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("live selection cancelled", logger.String("symbol", symbol), logger.Int("ticks", res.Ticks))
			return res, nil
		case err, ok := <-errs:
			if ok && err != nil {
				s.recordError("stream")
				return res, err
			}
			errs = nil
		case t, ok := <-trades:
			if !ok {
				if ctx.Err() != nil {
					return res, nil
				}
				return res, errors.New("live stream closed before a trade was selected")
			}
			if t == nil || t.Symbol != symbol {
				continue
			}
			res.Ticks++
			if s.metrics != nil {
				s.metrics.RecordLiveTick(symbol)
			}

			accepted := reservation.Accepts(t.Price, threshold)
			if !accepted && res.Ticks < maxTicks {
				continue
			}
			res.Traded = true
			res.Forced = !accepted
			res.Price = t.Price
			res.At = s.now().UTC()
			if t.Timestamp > 0 {
				res.At = time.Unix(t.Timestamp, 0).UTC()
			}
			if s.metrics != nil {
				s.metrics.RecordLiveTrade(symbol, res.Forced)
				s.metrics.RecordPayoff("live", res.Price)
			}
			s.log.Info("live trade selected",
				logger.String("symbol", symbol),
				logger.Float64("price", res.Price),
				logger.Float64("reservation", threshold),
				logger.Int("ticks", res.Ticks),
				logger.Bool("forced", res.Forced))
			return res, nil
		}
	}
}

func (s *LiveSelector) recordError(kind string) {
	if s.metrics != nil {
		s.metrics.RecordError(kind)
	}
}
