package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/weddingplanner/weddingplanner/internal/logger"
	"github.com/weddingplanner/weddingplanner/internal/model"
	"github.com/weddingplanner/weddingplanner/internal/repository"
)

// CatalogService manages the services vendors offer
type CatalogService struct {
	services ServiceStore
	vendors  VendorStore
	audit    auditor
	log      *logger.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(services ServiceStore, vendors VendorStore, auditStore AuditStore, log *logger.Logger) *CatalogService {
	l := log.WithComponent("catalog_service")
	return &CatalogService{
		services: services,
		vendors:  vendors,
		audit:    auditor{store: auditStore, log: l},
		log:      l,
	}
}

// CreateServiceRequest holds a new catalog entry
type CreateServiceRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
}

// Create adds a service to the calling vendor's catalog
func (s *CatalogService) Create(ctx context.Context, userID string, req CreateServiceRequest) (*model.Service, error) {
	vendor, err := vendorForUser(ctx, s.vendors, userID)
	if err != nil {
		return nil, err
	}
	if !vendor.IsApproved() {
		return nil, ErrVendorNotApproved
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if req.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be greater than zero", ErrInvalidInput)
	}

	now := time.Now()
	svc := &model.Service{
		ID:          generateID("svc"),
		VendorID:    vendor.ID,
		Vendor:      vendor,
		Name:        name,
		Description: req.Description,
		Category:    strings.ToLower(defaultString(strings.TrimSpace(req.Category), "other")),
		Price:       req.Price,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.services.Create(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	s.audit.record(ctx, userID, model.AuditActionServiceCreated, "service", svc.ID, map[string]interface{}{"price": svc.Price})
	return svc, nil
}

// Get returns a service with its vendor, without the vendor's contact details
func (s *CatalogService) Get(ctx context.Context, id string) (*model.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: service %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load service: %w", err)
	}
	return svc.Public(), nil
}

// List returns the public catalog
func (s *CatalogService) List(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, error) {
	filter.Category = strings.ToLower(strings.TrimSpace(filter.Category))
	services, err := s.services.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	public := make([]*model.Service, 0, len(services))
	for _, svc := range services {
		public = append(public, svc.Public())
	}
	return public, nil
}

// ListForVendor returns the calling vendor's catalog
func (s *CatalogService) ListForVendor(ctx context.Context, userID string) ([]*model.Service, error) {
	vendor, err := vendorForUser(ctx, s.vendors, userID)
	if err != nil {
		return nil, err
	}
	return s.List(ctx, model.ServiceFilter{VendorID: vendor.ID, Limit: 100})
}
