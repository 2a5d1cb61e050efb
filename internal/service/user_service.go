package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"go.uber.org/zap"
)

type UserService struct {
	userRepo UserStore
	verifier IdentityVerifier
	issuer   SessionIssuer
	logger   *zap.Logger
}

func NewUserService(userRepo UserStore, verifier IdentityVerifier, issuer SessionIssuer, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		logger:   logger,
	}
}

type RegisterInput struct {
	IDToken string
	Name    string
	Email   string
	Phone   string
	Role    model.Role
	City    string
}

// AuthResult токен сессии и аккаунт
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// UpdateProfileInput nil поля не меняются. Поля репетитора применяются только к репетиторам.
type UpdateProfileInput struct {
	Name           *string
	Phone          *string
	PhotoURL       *string
	City           *string
	TelegramChatID *int64

	Qualifications  *string
	ExperienceYears *int
	Subjects        []string
	ClassLevels     []string
	IsAvailable     *bool
}

func (s *UserService) verify(ctx context.Context, idToken string) (string, error) {
	if s.verifier == nil {
		return "", &Error{Kind: KindUnavailable, Message: "Identity provider is not configured"}
	}
	uid, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return "", &Error{Kind: KindUnauthenticated, Message: "Invalid or expired identity token", Err: err}
	}
	return uid, nil
}

func (s *UserService) session(user *model.User) (*AuthResult, error) {
	token, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Register создаёт аккаунт студента или репетитора по проверенному ID-токену
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if in.Role != model.RoleStudent && in.Role != model.RoleTutor {
		return nil, validation("Role must be student or tutor")
	}

	uid, err := s.verify(ctx, in.IDToken)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, conflict("User with this email already exists")
	}

	existing, err = s.userRepo.GetByExternalID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("check external id: %w", err)
	}
	if existing != nil {
		return nil, conflict("User already registered")
	}

	user := &model.User{
		ExternalID:  uid,
		Name:        strings.TrimSpace(in.Name),
		Email:       email,
		Role:        in.Role,
		Phone:       strings.TrimSpace(in.Phone),
		City:        strings.TrimSpace(in.City),
		IsAvailable: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fromDuplicate(fmt.Errorf("create user: %w", err), "User already registered")
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return s.session(user)
}

// Login находит аккаунт по uid из ID-токена
func (s *UserService) Login(ctx context.Context, idToken string) (*AuthResult, error) {
	uid, err := s.verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByExternalID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get user by external id: %w", err)
	}
	if user == nil {
		return nil, notFound("User not found. Please register first.")
	}

	s.logger.Debug("User logged in", zap.Int64("user_id", user.ID))

	return s.session(user)
}

// GetByID получает пользователя по ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, notFound("User not found")
	}
	return user, nil
}

// List админский список пользователей
func (s *UserService) List(ctx context.Context, filter model.UserFilter) ([]*model.User, model.Pagination, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, model.Pagination{}, validation("Invalid role")
	}
	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, model.Pagination{}, fmt.Errorf("list users: %w", err)
	}
	return users, filter.Page.Result(total), nil
}

// UpdateProfile обновляет собственный профиль
func (s *UserService) UpdateProfile(ctx context.Context, caller *model.User, id int64, in UpdateProfileInput) (*model.User, error) {
	if caller.ID != id {
		return nil, forbidden("Not authorized to update this profile")
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.PhotoURL != nil {
		user.PhotoURL = *in.PhotoURL
	}
	if in.City != nil {
		user.City = strings.TrimSpace(*in.City)
	}
	if in.TelegramChatID != nil {
		if *in.TelegramChatID == 0 {
			user.TelegramChatID = nil
		} else {
			user.TelegramChatID = in.TelegramChatID
		}
	}

	if user.IsTutor() {
		if in.Qualifications != nil {
			user.Qualifications = *in.Qualifications
		}
		if in.ExperienceYears != nil {
			user.ExperienceYears = in.ExperienceYears
		}
		if in.Subjects != nil {
			user.Subjects = in.Subjects
		}
		if in.ClassLevels != nil {
			user.ClassLevels = in.ClassLevels
		}
		if in.IsAvailable != nil {
			user.IsAvailable = *in.IsAvailable
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("Profile updated", zap.Int64("user_id", user.ID))
	return user, nil
}

// UpdateRole меняет роль пользователя (админ)
func (s *UserService) UpdateRole(ctx context.Context, id int64, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, validation("Invalid role")
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user role: %w", err)
	}

	s.logger.Info("User role updated",
		zap.Int64("user_id", id),
		zap.String("role", string(role)),
	)
	return user, nil
}

// ToggleVerified переключает отметку о проверке (админ)
func (s *UserService) ToggleVerified(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.IsVerified = !user.IsVerified
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user verification: %w", err)
	}

	s.logger.Info("User verification toggled",
		zap.Int64("user_id", id),
		zap.Bool("is_verified", user.IsVerified),
	)
	return user, nil
}

// Delete удаляет пользователя (админ)
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("User deleted", zap.Int64("user_id", id))
	return nil
}

type AdminInput struct {
	ExternalID string
	Name       string
	Email      string
	Phone      string
	City       string
}

// EnsureAdmin создаёт администратора, если аккаунта с такой почтой ещё нет.
// Второе значение true, если аккаунт создан сейчас.
func (s *UserService) EnsureAdmin(ctx context.Context, in AdminInput) (*model.User, bool, error) {
	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, false, fmt.Errorf("check admin email: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	admin := &model.User{
		ExternalID:  in.ExternalID,
		Name:        in.Name,
		Email:       in.Email,
		Role:        model.RoleAdmin,
		Phone:       in.Phone,
		City:        in.City,
		IsVerified:  true,
		IsAvailable: true,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return nil, false, fromDuplicate(fmt.Errorf("create admin: %w", err), "Admin external id already in use")
	}

	s.logger.Info("Admin account created",
		zap.Int64("user_id", admin.ID),
		zap.String("email", admin.Email),
	)
	return admin, true, nil
}
