package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/auth"
	"github.com/campus-assoc/backend/internal/config"
	"github.com/campus-assoc/backend/internal/models"
	"github.com/campus-assoc/backend/internal/repositories"
)

type MemberService struct {
	units    *Units
	userRepo *repositories.UserRepo
	roleRepo *repositories.RoleRepo
	cfg      *config.Config
	log      *zap.Logger
}

func NewMemberService(
	units *Units,
	userRepo *repositories.UserRepo,
	roleRepo *repositories.RoleRepo,
	cfg *config.Config,
	log *zap.Logger,
) *MemberService {
	return &MemberService{
		units:    units,
		userRepo: userRepo,
		roleRepo: roleRepo,
		cfg:      cfg,
		log:      log,
	}
}

type RegisterInput struct {
	UserName  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates an account and grants it the Member role. The caller is not
// signed in yet, so the new account is recorded as the actor.
func (s *MemberService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.UserName = strings.TrimSpace(in.UserName)
	in.Email = strings.TrimSpace(in.Email)
	if in.UserName == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}

	exists, err := s.userRepo.Exists(ctx, in.UserName, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: username or email is taken", ErrConflict)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	stamp := auth.NewSecurityStamp()

	u := s.units.Begin()
	defer u.Close()

	user := &models.User{
		ID:            uuid.NewString(),
		UserName:      in.UserName,
		Email:         in.Email,
		PasswordHash:  &hash,
		SecurityStamp: &stamp,
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
	u.Work.Actor().Set(user.ID, user.UserName)
	if err := u.Add(user); err != nil {
		return nil, err
	}

	role, err := s.roleRepo.GetByName(ctx, u, models.RoleMember)
	switch {
	case err == nil:
		if err := u.Add(&models.UserRole{UserID: user.ID, RoleID: role.ID}); err != nil {
			return nil, err
		}
	case errors.Is(err, ErrNotFound):
		s.log.Warn("member role missing, account created without roles", zap.String("user_id", user.ID))
	default:
		return nil, err
	}

	if err := u.Save(ctx); err != nil {
		return nil, err
	}
	s.log.Info("member registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login checks credentials and issues an access token carrying the account's
// roles.
func (s *MemberService) Login(ctx context.Context, login, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByLogin(ctx, nil, strings.TrimSpace(login))
	if errors.Is(err, ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !user.IsActive || user.PasswordHash == nil || !auth.CheckPassword(*user.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	roles, err := s.userRepo.RoleNames(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	token, err := auth.GenerateJWT(s.cfg.JWTSecret, user.ID, user.UserName, roles, s.cfg.JWTExpiration)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *MemberService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, nil, id)
}

func (s *MemberService) Roles(ctx context.Context, id string) ([]string, error) {
	return s.userRepo.RoleNames(ctx, id)
}

func (s *MemberService) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

type ProfileInput struct {
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	Instruments []string
}

func (s *MemberService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	u := s.units.Begin()
	defer u.Close()

	user, err := s.userRepo.GetByID(ctx, u, userID)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.PhoneNumber != nil {
		user.PhoneNumber = trimmedOrNil(*in.PhoneNumber)
	}
	if in.Instruments != nil {
		data, err := json.Marshal(in.Instruments)
		if err != nil {
			return nil, err
		}
		instruments := string(data)
		user.Instruments = &instruments
	}

	if err := u.Save(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *MemberService) SetProfilePicture(ctx context.Context, userID string, picture []byte) error {
	u := s.units.Begin()
	defer u.Close()

	user, err := s.userRepo.GetByID(ctx, u, userID)
	if err != nil {
		return err
	}
	user.ProfilePicture = nilIfEmpty(picture)
	return u.Save(ctx)
}

func (s *MemberService) ChangePassword(ctx context.Context, userID, current, next string) error {
	u := s.units.Begin()
	defer u.Close()

	user, err := s.userRepo.GetByID(ctx, u, userID)
	if err != nil {
		return err
	}
	if user.PasswordHash == nil || !auth.CheckPassword(*user.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	stamp := auth.NewSecurityStamp()
	user.PasswordHash = &hash
	user.SecurityStamp = &stamp
	return u.Save(ctx)
}

func (s *MemberService) Deactivate(ctx context.Context, userID string) error {
	u := s.units.Begin()
	defer u.Close()

	user, err := s.userRepo.GetByID(ctx, u, userID)
	if err != nil {
		return err
	}
	user.IsActive = false
	return u.Save(ctx)
}

// Delete removes an account together with its role grants and attendance.
func (s *MemberService) Delete(ctx context.Context, userID string) error {
	u := s.units.Begin()
	defer u.Close()

	// Dependent rows are tracked before the account so they are deleted first.
	grants, err := s.roleRepo.GrantsOf(ctx, u, userID)
	if err != nil {
		return err
	}
	attendances, err := s.userRepo.Attendances(ctx, u, userID)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, u, userID)
	if err != nil {
		return err
	}
	for _, g := range grants {
		if _, err := s.roleRepo.GetByID(ctx, u, g.RoleID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := u.Remove(g); err != nil {
			return err
		}
	}
	if err := removeAll(u, attendances...); err != nil {
		return err
	}
	if err := u.Remove(user); err != nil {
		return err
	}
	return u.Save(ctx)
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func nilIfEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
