package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"run-leaderboard-service/logger"
	"run-leaderboard-service/models"
	"run-leaderboard-service/xpsystems"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// XPSystemsService owns the persisted XP parameters and the formulas built
// from them.
type XPSystemsService struct {
	DB  *gorm.DB
	log *logger.Logger

	mu     sync.RWMutex
	system *xpsystems.System
}

func NewXPSystemsService(db *gorm.DB, log *logger.Logger) *XPSystemsService {
	return &XPSystemsService{DB: db, log: log, system: xpsystems.MustDefault()}
}

// Init loads the stored parameters, seeding the defaults on first boot.
func (s *XPSystemsService) Init(ctx context.Context) error {
	var row models.XPSystems
	err := s.DB.WithContext(ctx).First(&row, "id = ?", models.XPSystemsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Info("initialising empty XP parameters with defaults")
		p := xpsystems.DefaultParams()
		row = models.XPSystems{ID: models.XPSystemsID, RankXP: p.RankXP, CosXP: p.CosXP}
		err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	}
	if err != nil {
		return fmt.Errorf("load xp params: %w", err)
	}

	system, err := xpsystems.New(row.Params())
	if err != nil {
		return err
	}
	s.swap(system)
	s.log.Info("initialised XP systems")
	return nil
}

func (s *XPSystemsService) System() *xpsystems.System {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.system
}

// Update validates and stores new parameters, then switches to them.
func (s *XPSystemsService) Update(ctx context.Context, p xpsystems.Params) error {
	system, err := xpsystems.New(p)
	if err != nil {
		return err
	}
	row := models.XPSystems{ID: models.XPSystemsID, RankXP: p.RankXP, CosXP: p.CosXP}
	if err := s.DB.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("save xp params: %w", err)
	}
	s.swap(system)
	return nil
}

func (s *XPSystemsService) swap(system *xpsystems.System) {
	s.mu.Lock()
	s.system = system
	s.mu.Unlock()
}
