package service

import (
	"context"
	"fmt"

	"github.com/lessonhub/booking_service/internal/model"
	"go.uber.org/zap"
)

// PolicyService reads and writes the global day policy and the per-teacher
// overrides. Policies are fetched per evaluation, there is no process-wide
// cached copy to go stale.
type PolicyService struct {
	policyStore PolicyStore
	logger      *zap.Logger
}

func NewPolicyService(policyStore PolicyStore, logger *zap.Logger) *PolicyService {
	return &PolicyService{
		policyStore: policyStore,
		logger:      logger,
	}
}

// GetGlobal получает глобальную политику; nil означает "все дни разрешены"
func (s *PolicyService) GetGlobal(ctx context.Context) (*model.DayPolicy, error) {
	return s.policyStore.GetGlobal(ctx)
}

// SetGlobal задаёт глобальную политику
func (s *PolicyService) SetGlobal(ctx context.Context, weekdays model.WeekdaySet) error {
	if weekdays.IsEmpty() {
		return fmt.Errorf("policy must permit at least one weekday")
	}

	err := s.policyStore.SetGlobal(ctx, weekdays)
	if err != nil {
		return fmt.Errorf("set global policy: %w", err)
	}

	s.logger.Info("Global day policy updated",
		zap.Int("weekday_count", len(weekdays.Weekdays())))

	return nil
}

// GetForTeacher получает политику учителя; nil означает отсутствие override
func (s *PolicyService) GetForTeacher(ctx context.Context, teacherID int64) (*model.DayPolicy, error) {
	return s.policyStore.GetForTeacher(ctx, teacherID)
}

// SetForTeacher задаёт override для учителя
func (s *PolicyService) SetForTeacher(ctx context.Context, teacherID int64, weekdays model.WeekdaySet) error {
	if weekdays.IsEmpty() {
		return fmt.Errorf("policy must permit at least one weekday")
	}

	err := s.policyStore.SetForTeacher(ctx, teacherID, weekdays)
	if err != nil {
		return fmt.Errorf("set teacher policy: %w", err)
	}

	s.logger.Info("Teacher day policy updated",
		zap.Int64("teacher_id", teacherID),
		zap.Int("weekday_count", len(weekdays.Weekdays())))

	return nil
}

// ClearForTeacher убирает override, учитель возвращается к глобальной политике
func (s *PolicyService) ClearForTeacher(ctx context.Context, teacherID int64) error {
	err := s.policyStore.DeleteForTeacher(ctx, teacherID)
	if err != nil {
		return fmt.Errorf("clear teacher policy: %w", err)
	}

	s.logger.Info("Teacher day policy cleared",
		zap.Int64("teacher_id", teacherID))

	return nil
}
