package service

import (
	"ride-share/internal/general/logger"
	"ride-share/internal/ports"
)

// adminService encapsulates the admin dashboard logic and dependencies.
type adminService struct {
	logger  *logger.Logger
	uow     ports.UnitOfWork
	metrics ports.MetricsRepository
}

// NewAdminService creates a new instance of the AdminService with the provided dependencies.
func NewAdminService(logger *logger.Logger, uow ports.UnitOfWork, metrics ports.MetricsRepository) ports.AdminService {
	return &adminService{logger: logger, uow: uow, metrics: metrics}
}
