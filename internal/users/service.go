package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmarin/marketloop-backend/internal/listings"
	"github.com/nmarin/marketloop-backend/internal/media"
	"github.com/nmarin/marketloop-backend/pkg/db"
	"github.com/nmarin/marketloop-backend/pkg/db/models"
	"github.com/nmarin/marketloop-backend/pkg/enums"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
	"github.com/nmarin/marketloop-backend/pkg/logger"
)

type identityDeleter interface {
	DeleteIdentity(ctx context.Context, userID uuid.UUID) error
}

// ServiceParams groups dependencies for the users service.
type ServiceParams struct {
	DB          *db.Client
	UserRepo    *Repository
	ListingRepo *listings.Repository
	Media       media.Service
	Identity    identityDeleter
	Logger      *logger.Logger
}

// Service exposes account lifecycle operations.
type Service interface {
	Upsert(ctx context.Context, input UpsertInput) (*ProfileDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	db          *db.Client
	userRepo    *Repository
	listingRepo *listings.Repository
	media       media.Service
	identity    identityDeleter
	logg        *logger.Logger
}

// NewService builds a users service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repo is required")
	}
	if params.ListingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing repo is required")
	}
	if params.Media == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "media service is required")
	}
	if params.Identity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identity client is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		db:          params.DB,
		userRepo:    params.UserRepo,
		listingRepo: params.ListingRepo,
		media:       params.Media,
		identity:    params.Identity,
		logg:        params.Logger,
	}, nil
}

// Upsert registers the account locally, keyed by email. An existing row is
// returned unchanged, so repeated sign-ins are idempotent.
func (s *service) Upsert(ctx context.Context, input UpsertInput) (*ProfileDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}

	role := enums.UserRoleBuyer
	if strings.TrimSpace(input.Role) != "" {
		parsed, err := enums.ParseUserRole(input.Role)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
		}
		role = parsed
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		dto := toProfileDTO(existing)
		return &dto, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	user, err := s.userRepo.Create(ctx, &models.User{
		Email:         email,
		FullName:      fullName,
		Role:          role,
		Notifications: true,
	})
	if err != nil {
		// a concurrent upsert may have won the race on the email key
		if db.IsUniqueViolation(err, "users_email_key") {
			if existing, lookupErr := s.userRepo.FindByEmail(ctx, email); lookupErr == nil {
				dto := toProfileDTO(existing)
				return &dto, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating user")
	}
	dto := toProfileDTO(user)
	return &dto, nil
}

// Get returns the profile projection.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProfileDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toProfileDTO(user)
	return &dto, nil
}

// UpdateProfile applies the partial update; a replacement profile image
// schedules the old object for deletion.
func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name cannot be empty")
		}
		user.FullName = name
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if input.Notifications != nil {
		user.Notifications = *input.Notifications
	}
	if input.DarkMode != nil {
		user.DarkMode = *input.DarkMode
	}

	var oldImageKey string
	if input.ProfileImage != nil {
		if user.ProfileImageKey != nil {
			oldImageKey = *user.ProfileImageKey
		}
		url := input.ProfileImage.URL
		key := input.ProfileImage.ObjectKey
		user.ProfileImageURL = &url
		user.ProfileImageKey = &key
	}

	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.userRepo.SaveTx(tx, user); err != nil {
			return err
		}
		if oldImageKey != "" {
			return s.media.EnqueueDeletions(tx, []string{oldImageKey})
		}
		return nil
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating profile")
	}

	if oldImageKey != "" {
		s.media.DeleteObjects(ctx, []string{oldImageKey})
	}

	dto := toProfileDTO(user)
	return &dto, nil
}

// Delete removes the account: dependents first, then the user's listings
// and their dependents, then the row itself. The external identity and
// media deletes are best-effort; their failure never fails the operation.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	owned, err := s.userRepo.ListingsWithImages(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading user listings")
	}

	objectKeys := make([]string, 0)
	for _, listing := range owned {
		for _, img := range listing.Images {
			if img.ObjectKey != "" {
				objectKeys = append(objectKeys, img.ObjectKey)
			}
		}
	}
	if user.ProfileImageKey != nil && *user.ProfileImageKey != "" {
		objectKeys = append(objectKeys, *user.ProfileImageKey)
	}

	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.media.EnqueueDeletions(tx, objectKeys); err != nil {
			return err
		}
		if err := s.userRepo.DeleteOwnedTx(tx, id); err != nil {
			return err
		}
		for _, listing := range owned {
			if err := s.listingRepo.DeleteTx(tx, listing.ID); err != nil {
				return err
			}
		}
		return s.userRepo.DeleteTx(tx, id)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting account")
	}

	s.media.DeleteObjects(ctx, objectKeys)

	if err := s.identity.DeleteIdentity(ctx, id); err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, id.String()), "deleting provider identity", err)
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func toProfileDTO(user *models.User) ProfileDTO {
	return ProfileDTO{
		ID:              user.ID,
		Email:           user.Email,
		FullName:        user.FullName,
		Role:            user.Role,
		Phone:           user.Phone,
		ProfileImageURL: user.ProfileImageURL,
		Notifications:   user.Notifications,
		DarkMode:        user.DarkMode,
		CreatedAt:       user.CreatedAt,
	}
}
