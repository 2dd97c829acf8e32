package service

import (
	"context"
	"fmt"
	"log"

	"journeybot/internal/cache"
	"journeybot/internal/model"
	"journeybot/internal/repository"
)

// CatalogService supplies age-range modules and their question content
type CatalogService struct {
	catalogRepo  repository.CatalogRepo
	catalogCache cache.CatalogCache
}

// NewCatalogService creates a new catalog service
func NewCatalogService(catalogRepo repository.CatalogRepo, catalogCache cache.CatalogCache) *CatalogService {
	return &CatalogService{
		catalogRepo:  catalogRepo,
		catalogCache: catalogCache,
	}
}

// GetModulesForAge returns the ordered module list for a child's age in
// months. Cache misses fall through to Mongo; cache errors are logged
// and never block the conversation from starting.
func (s *CatalogService) GetModulesForAge(ctx context.Context, ageInMonths int) ([]*model.Module, error) {
	if s.catalogCache != nil {
		modules, err := s.catalogCache.GetForAge(ctx, ageInMonths)
		if err != nil {
			log.Printf("catalog cache read failed for age %d: %v", ageInMonths, err)
		} else if modules != nil {
			return modules, nil
		}
	}

	modules, err := s.catalogRepo.GetForAge(ctx, ageInMonths)
	if err != nil {
		return nil, fmt.Errorf("failed to get modules for age %d: %w", ageInMonths, err)
	}

	if s.catalogCache != nil {
		if err := s.catalogCache.SetForAge(ctx, ageInMonths, modules); err != nil {
			log.Printf("catalog cache write failed for age %d: %v", ageInMonths, err)
		}
	}
	return modules, nil
}

// GetCurrentModuleMetadata returns the header of the module whose age
// window contains the child's age, or nil when no module matches.
func (s *CatalogService) GetCurrentModuleMetadata(ctx context.Context, ageInMonths int) (*model.ModuleMetadata, error) {
	modules, err := s.GetModulesForAge(ctx, ageInMonths)
	if err != nil {
		return nil, err
	}

	var current *model.Module
	for _, m := range modules {
		if m.MinMonths <= ageInMonths && ageInMonths <= m.MaxMonths {
			current = m
		}
	}
	if current == nil {
		return nil, nil
	}
	return &model.ModuleMetadata{
		Title:       current.Title,
		MinMonths:   current.MinMonths,
		MaxMonths:   current.MaxMonths,
		Description: current.Description,
	}, nil
}

// CreateModule stores a new catalog module and invalidates cached age buckets
func (s *CatalogService) CreateModule(ctx context.Context, module *model.Module) (string, error) {
	id, err := s.catalogRepo.Create(ctx, module)
	if err != nil {
		return "", err
	}
	s.invalidateCache(ctx)
	return id, nil
}

// GetModule fetches one module by ID
func (s *CatalogService) GetModule(ctx context.Context, id string) (*model.Module, error) {
	return s.catalogRepo.GetByID(ctx, id)
}

// ListModules returns the whole catalog in order
func (s *CatalogService) ListModules(ctx context.Context) ([]*model.Module, error) {
	return s.catalogRepo.List(ctx)
}

// UpdateModule replaces a module and invalidates cached age buckets
func (s *CatalogService) UpdateModule(ctx context.Context, module *model.Module) error {
	if err := s.catalogRepo.Update(ctx, module); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// DeleteModule removes a module and invalidates cached age buckets
func (s *CatalogService) DeleteModule(ctx context.Context, id string) error {
	if err := s.catalogRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *CatalogService) invalidateCache(ctx context.Context) {
	if s.catalogCache == nil {
		return
	}
	if err := s.catalogCache.Invalidate(ctx); err != nil {
		log.Printf("catalog cache invalidation failed: %v", err)
	}
}
