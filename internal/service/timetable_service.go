package service

import (
	"context"

	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/repository"
	"github.com/rs/zerolog"
)

// TimetableService manages the weekly schedule of classes owned by the caller.
type TimetableService struct {
	store repository.Store
	log   zerolog.Logger
}

func NewTimetableService(store repository.Store, log zerolog.Logger) *TimetableService {
	return &TimetableService{
		store: store,
		log:   log.With().Str("component", "timetable_service").Logger(),
	}
}

func validateTimetableEntry(e *model.TimetableEntry) error {
	fe := fieldErrors{}
	if e.DayOfWeek < 0 || e.DayOfWeek > 6 {
		fe.add("day_of_week", "must be between 0 and 6")
	}
	if !e.StartTime.Valid() {
		fe.add("start_time", "must be a time of day")
	}
	if !e.EndTime.Valid() {
		fe.add("end_time", "must be a time of day")
	}
	if e.StartTime.Valid() && e.EndTime.Valid() && e.EndTime <= e.StartTime {
		fe.add("end_time", "must be after start_time")
	}
	return fe.err()
}

// Create schedules a slot for a class owned by the calling teacher.
func (s *TimetableService) Create(ctx context.Context, p model.Principal, req model.CreateTimetableEntryRequest) (*model.TimetableEntry, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	fe := fieldErrors{}
	if req.DayOfWeek == nil {
		fe.add("day_of_week", "is required")
	}
	if req.StartTime == nil {
		fe.add("start_time", "is required")
	}
	if req.EndTime == nil {
		fe.add("end_time", "is required")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	e := &model.TimetableEntry{
		ClassID:   req.ClassID,
		DayOfWeek: *req.DayOfWeek,
		StartTime: *req.StartTime,
		EndTime:   *req.EndTime,
	}
	if err := validateTimetableEntry(e); err != nil {
		return nil, err
	}

	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.Classes().GetOwned(ctx, e.ClassID, p.UserID); err != nil {
			return err
		}
		return tx.Timetable().Create(ctx, e)
	})
	if err != nil {
		return nil, notFound("create timetable entry", err)
	}
	return e, nil
}

// List returns timetable entries of the caller's classes, optionally limited
// to classID.
func (s *TimetableService) List(ctx context.Context, p model.Principal, classID *int) ([]model.TimetableEntry, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	var out []model.TimetableEntry
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if classID != nil {
			if _, err := tx.Classes().GetOwned(ctx, *classID, p.UserID); err != nil {
				return err
			}
		}
		var err error
		out, err = tx.Timetable().ListOwned(ctx, p.UserID, classID)
		return err
	})
	if err != nil {
		return nil, notFound("list timetable", err)
	}
	if out == nil {
		out = []model.TimetableEntry{}
	}
	return out, nil
}

func (s *TimetableService) Get(ctx context.Context, p model.Principal, id int) (*model.TimetableEntry, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	var e *model.TimetableEntry
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		e, err = tx.Timetable().GetOwned(ctx, id, p.UserID)
		return err
	})
	if err != nil {
		return nil, notFound("get timetable entry", err)
	}
	return e, nil
}

// Update applies the fields present in req and validates the merged entry,
// so moving only start_time past the stored end_time is rejected.
func (s *TimetableService) Update(ctx context.Context, p model.Principal, id int, req model.UpdateTimetableEntryRequest) (*model.TimetableEntry, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	fe := fieldErrors{}
	if req.DayOfWeek.Set && req.DayOfWeek.Null {
		fe.add("day_of_week", "must not be null")
	}
	if req.StartTime.Set && req.StartTime.Null {
		fe.add("start_time", "must not be null")
	}
	if req.EndTime.Set && req.EndTime.Null {
		fe.add("end_time", "must not be null")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	var e *model.TimetableEntry
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		e, err = tx.Timetable().GetOwned(ctx, id, p.UserID)
		if err != nil {
			return err
		}
		if req.DayOfWeek.Set {
			e.DayOfWeek = req.DayOfWeek.Value
		}
		if req.StartTime.Set {
			e.StartTime = req.StartTime.Value
		}
		if req.EndTime.Set {
			e.EndTime = req.EndTime.Value
		}
		if err := validateTimetableEntry(e); err != nil {
			return err
		}
		return tx.Timetable().UpdateOwned(ctx, e, p.UserID)
	})
	if err != nil {
		return nil, notFound("update timetable entry", err)
	}
	return e, nil
}

func (s *TimetableService) Delete(ctx context.Context, p model.Principal, id int) error {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.Timetable().DeleteOwned(ctx, id, p.UserID)
	})
	if err != nil {
		return notFound("delete timetable entry", err)
	}
	return nil
}
