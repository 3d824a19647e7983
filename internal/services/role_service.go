package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/auth"
	"github.com/campus-assoc/backend/internal/models"
	"github.com/campus-assoc/backend/internal/repositories"
)

// SystemActor is recorded as the actor of writes made outside any request.
const SystemActor = "system"

type RoleService struct {
	units    *Units
	userRepo *repositories.UserRepo
	roleRepo *repositories.RoleRepo
	log      *zap.Logger
}

func NewRoleService(units *Units, userRepo *repositories.UserRepo, roleRepo *repositories.RoleRepo, log *zap.Logger) *RoleService {
	return &RoleService{units: units, userRepo: userRepo, roleRepo: roleRepo, log: log}
}

func (s *RoleService) List(ctx context.Context) ([]*models.Role, error) {
	return s.roleRepo.List(ctx)
}

func (s *RoleService) Create(ctx context.Context, name string, description *string) (*models.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}

	u := s.units.Begin()
	defer u.Close()

	if _, err := s.roleRepo.GetByName(ctx, nil, name); err == nil {
		return nil, fmt.Errorf("%w: role %q", ErrConflict, name)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	role := &models.Role{Name: name, Description: description}
	if err := u.Add(role); err != nil {
		return nil, err
	}
	if err := u.Save(ctx); err != nil {
		return nil, err
	}
	return role, nil
}

// Grant gives a role to a member. The account and the role are loaded into the
// unit so the audit record carries their labels.
func (s *RoleService) Grant(ctx context.Context, userID string, roleID int64) error {
	u := s.units.Begin()
	defer u.Close()

	if _, err := s.userRepo.GetByID(ctx, u, userID); err != nil {
		return err
	}
	if _, err := s.roleRepo.GetByID(ctx, u, roleID); err != nil {
		return err
	}
	if _, err := s.roleRepo.GetGrant(ctx, nil, userID, roleID); err == nil {
		return fmt.Errorf("%w: role already granted", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if err := u.Add(&models.UserRole{UserID: userID, RoleID: roleID}); err != nil {
		return err
	}
	return u.Save(ctx)
}

func (s *RoleService) Revoke(ctx context.Context, userID string, roleID int64) error {
	u := s.units.Begin()
	defer u.Close()

	grant, err := s.roleRepo.GetGrant(ctx, u, userID, roleID)
	if err != nil {
		return err
	}
	if _, err := s.userRepo.GetByID(ctx, u, userID); err != nil {
		return err
	}
	if _, err := s.roleRepo.GetByID(ctx, u, roleID); err != nil {
		return err
	}

	if err := u.Remove(grant); err != nil {
		return err
	}
	return u.Save(ctx)
}

// Bootstrap makes sure the built-in roles exist and, when credentials are given,
// that an active administrator account holds the Admin role. It is safe to run
// on every start.
func (s *RoleService) Bootstrap(ctx context.Context, adminUserName, adminPassword string) error {
	u := s.units.Begin()
	defer u.Close()
	u.Work.Actor().Set(SystemActor, SystemActor)

	byName := map[string]*models.Role{}
	for _, name := range []string{models.RoleAdmin, models.RoleBoard, models.RoleTreasurer, models.RoleMember} {
		role, err := s.roleRepo.GetByName(ctx, u, name)
		if errors.Is(err, ErrNotFound) {
			role = &models.Role{Name: name}
			if err := u.Add(role); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		byName[name] = role
	}
	// Roles are committed first so the grant below can reference their ids.
	if err := u.Save(ctx); err != nil {
		return err
	}

	if adminUserName == "" || len(adminPassword) < auth.MinPasswordLength {
		return nil
	}

	admin, err := s.userRepo.GetByLogin(ctx, u, adminUserName)
	switch {
	case errors.Is(err, ErrNotFound):
		hash, err := auth.HashPassword(adminPassword)
		if err != nil {
			return err
		}
		stamp := auth.NewSecurityStamp()
		admin = &models.User{
			ID:            uuid.NewString(),
			UserName:      adminUserName,
			Email:         adminUserName + "@localhost",
			PasswordHash:  &hash,
			SecurityStamp: &stamp,
			IsActive:      true,
			CreatedAt:     time.Now().UTC(),
		}
		if err := u.Add(admin); err != nil {
			return err
		}
		s.log.Info("bootstrap admin created", zap.String("username", adminUserName))
	case err != nil:
		return err
	}

	adminRole := byName[models.RoleAdmin]
	if _, err := s.roleRepo.GetGrant(ctx, u, admin.ID, adminRole.ID); errors.Is(err, ErrNotFound) {
		if err := u.Add(&models.UserRole{UserID: admin.ID, RoleID: adminRole.ID}); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	return u.Save(ctx)
}
