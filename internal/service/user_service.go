package service

import (
	"errors"

	"chatster/backend/internal/models"
	"chatster/backend/internal/repository"
	"chatster/backend/pkg/jwt"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this email or username already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// UserService is the identity provider: it owns registration, login and
// profile lookups. The conversation engine only ever sees verified user ids.
type UserService struct {
	repo       repository.UserRepository
	jwtService *jwt.Service
}

// NewUserService creates a new user service
func NewUserService(repo repository.UserRepository, jwtService *jwt.Service) *UserService {
	return &UserService{repo: repo, jwtService: jwtService}
}

// Signup creates a new user and returns it with a signed token
func (s *UserService) Signup(req *models.SignupRequest) (*models.User, string, error) {
	// Check if user already exists
	if _, err := s.repo.GetByEmail(req.Email); err == nil {
		return nil, "", ErrUserAlreadyExists
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}

	if err := s.repo.Create(&user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrUserAlreadyExists
		}
		return nil, "", err
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}

	return &user, token, nil
}

// Login authenticates a user and returns a JWT token
func (s *UserService) Login(req *models.LoginRequest) (*models.User, string, error) {
	user, err := s.repo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(id uint) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// SearchProfiles returns up to five profiles with a similar username
func (s *UserService) SearchProfiles(username string) ([]models.UserDTO, error) {
	users, err := s.repo.SearchByUsername(username, 5)
	if err != nil {
		return nil, err
	}

	profiles := make([]models.UserDTO, 0, len(users))
	for i := range users {
		profiles = append(profiles, models.NewUserDTO(&users[i]))
	}
	return profiles, nil
}
