package flights

import (
	"context"
	"strings"
	"time"

	"github.com/Domenick1991/gulfair/internal/domain"
	"github.com/Domenick1991/gulfair/internal/repository"
	"github.com/sirupsen/logrus"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Search(ctx context.Context, departure, arrival string) ([]domain.Flight, error)
	Status(ctx context.Context, flightNumber string) (*domain.FlightStatusInfo, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type FlightService struct {
	repo  repository.FlightRepository
	cache FlightCache
	log   logrus.FieldLogger
}

func NewFlightService(repo repository.FlightRepository, cache FlightCache, log logrus.FieldLogger) *FlightService {
	return &FlightService{repo: repo, cache: cache, log: log}
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx)
		if err != nil {
			s.log.WithError(err).Warn("read flights cache")
		} else if cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.log.WithError(err).Warn("write flights cache")
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

// Search lists scheduled flights on a route. Airport codes are case insensitive.
func (s *FlightService) Search(ctx context.Context, departure, arrival string) ([]domain.Flight, error) {
	return s.repo.Search(ctx, strings.ToUpper(strings.TrimSpace(departure)), strings.ToUpper(strings.TrimSpace(arrival)))
}

func (s *FlightService) Status(ctx context.Context, flightNumber string) (*domain.FlightStatusInfo, error) {
	f, err := s.repo.GetByNumber(ctx, strings.TrimSpace(flightNumber))
	if err != nil {
		return nil, err
	}
	return &domain.FlightStatusInfo{
		FlightNumber:     f.FlightNumber,
		Status:           f.Status,
		DepartureAirport: f.DepartureAirport,
		ArrivalAirport:   f.ArrivalAirport,
		DepartureTime:    f.DepartureTime,
		ArrivalTime:      f.ArrivalTime,
	}, nil
}

// CompleteArrived marks landed flights completed and drops the cached list
// when anything changed.
func (s *FlightService) CompleteArrived(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.CompleteArrived(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 && s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			s.log.WithError(err).Warn("invalidate flights cache")
		}
	}
	return n, nil
}

var _ FlightUseCase = (*FlightService)(nil)
