package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/logger"
	"github.com/osse101/BrandishRaffle_Go/internal/repository"
)

// TenantEnsurer registers a tenant on first use
type TenantEnsurer interface {
	Ensure(ctx context.Context, tenantID string) (*domain.Tenant, error)
}

// Resolver maps external chat handles to internal account ids
type Resolver interface {
	// Resolve looks up a handle. An unlinked handle returns ok == false and no error.
	Resolve(ctx context.Context, tenantID, platform, handle string) (string, bool, error)

	// Link records the mapping produced by the account linking flow
	Link(ctx context.Context, tenantID, platform, handle, accountID string) error
}

type service struct {
	repo    repository.Identity
	tenants TenantEnsurer
	cache   *handleCache
}

// NewResolver creates a new identity resolver
func NewResolver(repo repository.Identity, tenants TenantEnsurer, cacheSize int, cacheTTL time.Duration) Resolver {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &service{
		repo:    repo,
		tenants: tenants,
		cache:   newHandleCache(cacheSize, cacheTTL),
	}
}

// NormalizeHandle trims and case-folds a handle so lookups ignore case
func NormalizeHandle(handle string) string {
	return cases.Fold().String(strings.TrimSpace(handle))
}

// NormalizePlatform lowercases a platform name
func NormalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

func (s *service) Resolve(ctx context.Context, tenantID, platform, handle string) (string, bool, error) {
	platform = NormalizePlatform(platform)
	handle = NormalizeHandle(handle)
	if handle == "" {
		return "", false, nil
	}

	if accountID, ok := s.cache.Get(tenantID, platform, handle); ok {
		return accountID, true, nil
	}

	accountID, ok, err := s.repo.FindAccountByHandle(ctx, tenantID, platform, handle)
	if err != nil {
		return "", false, fmt.Errorf(ErrContextFailedToResolve, err)
	}
	if !ok {
		logger.FromContext(ctx).Debug(LogMsgHandleUnresolved, "tenant_id", tenantID, "platform", platform, "handle", handle)
		return "", false, nil
	}

	s.cache.Set(tenantID, platform, handle, accountID)
	return accountID, true, nil
}

func (s *service) Link(ctx context.Context, tenantID, platform, handle, accountID string) error {
	platform = NormalizePlatform(platform)
	handle = NormalizeHandle(handle)
	accountID = strings.TrimSpace(accountID)

	if !domain.ValidPlatforms[platform] {
		return fmt.Errorf("%w: %s", domain.ErrInvalidPlatform, platform)
	}
	if handle == "" || accountID == "" {
		return fmt.Errorf("%w: handle and account are required", domain.ErrInvalidInput)
	}

	if _, err := s.tenants.Ensure(ctx, tenantID); err != nil {
		return err
	}
	if err := s.repo.UpsertLink(ctx, tenantID, platform, handle, accountID); err != nil {
		return fmt.Errorf(ErrContextFailedToLink, err)
	}
	s.cache.Invalidate(tenantID, platform, handle)

	logger.FromContext(ctx).Info(LogMsgHandleLinked,
		"tenant_id", tenantID,
		"platform", platform,
		"handle", handle,
		"account_id", accountID)
	return nil
}
