package services

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/apperror"
	"github.com/bazaarbd/bazaar-backend-go/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type TokenIssuer interface {
	GenerateJWT(userID primitive.ObjectID, role models.Role) (string, error)
}

type UserService struct {
	users  UserStore
	tokens TokenIssuer
	now    func() time.Time
}

func NewUserService(users UserStore, tokens TokenIssuer) *UserService {
	return &UserService{users: users, tokens: tokens, now: time.Now}
}

type RegisterInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
}

type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	user, err := s.create(ctx, in, models.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

// CreateAdmin provisions a staff account. Used by the seed-admin command.
func (s *UserService) CreateAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.create(ctx, in, models.RoleAdmin)
}

func (s *UserService) create(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" {
		return nil, apperror.New(apperror.InvalidInput, "Name is required")
	}
	if !isValidEmail(email) {
		return nil, apperror.New(apperror.InvalidInput, "Invalid email format")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperror.New(apperror.InvalidInput, "Password must be at least 8 characters")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to process password")
	}
	now := s.now()
	user := &models.User{
		Name:        name,
		Email:       email,
		Password:    string(hashedPassword),
		Role:        role,
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.users.Insert(ctx, user)
	if isDuplicate(err) {
		return nil, apperror.New(apperror.Conflict, "Email already registered")
	}
	if err != nil {
		return nil, storageFailure(err, "insert_user", log.Fields{"email": email})
	}
	log.WithFields(log.Fields{"user_id": user.ID.Hex(), "role": role}).Info("user registered")
	user.Password = ""
	return user, nil
}

func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	invalid := apperror.New(apperror.Unauthenticated, "Invalid email or password")

	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if isNotFound(err) {
		return nil, invalid
	}
	if err != nil {
		return nil, storageFailure(err, "find_user", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalid
	}
	user.Password = ""
	return s.session(user)
}

func (s *UserService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.GenerateJWT(user.ID, user.Role)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to generate token")
	}
	return &Session{Token: token, User: user}, nil
}

func (s *UserService) Profile(ctx context.Context, p models.Principal) (*models.User, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, p.ID)
	if isNotFound(err) {
		return nil, apperror.New(apperror.NotFound, "User not found")
	}
	if err != nil {
		return nil, storageFailure(err, "find_user", log.Fields{"user_id": p.ID.Hex()})
	}
	user.Password = ""
	return user, nil
}

type ProfileInput struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

func (s *UserService) UpdateProfile(ctx context.Context, p models.Principal, in ProfileInput) (*models.User, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.New(apperror.InvalidInput, "Name is required")
	}
	user, err := s.users.UpdateProfile(ctx, p.ID, name, strings.TrimSpace(in.PhoneNumber), s.now())
	if isNotFound(err) {
		return nil, apperror.New(apperror.NotFound, "User not found")
	}
	if err != nil {
		return nil, storageFailure(err, "update_user", log.Fields{"user_id": p.ID.Hex()})
	}
	return user, nil
}
