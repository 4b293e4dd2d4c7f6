package service

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"telemed/internal/auth"
	"telemed/internal/db"
	"telemed/internal/entities"
	apperr "telemed/internal/errors"
	"telemed/internal/repository"
)

var (
	emailRe  = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
	phoneRe  = regexp.MustCompile(`^\+?[1-9]\d{7,14}$`)
	digitRe  = regexp.MustCompile(`\d`)
	letterRe = regexp.MustCompile(`[A-Za-z]`)
	nonPhone = regexp.MustCompile(`[^0-9+]`)
)

// AuthService implements registration and the OTP login flow. It issues
// the (userID, role) identity the core trusts; everything downstream of
// the JWT performs no credential checks.
type AuthService struct {
	Users     repository.UserRepository
	Notifier  Notifier
	JWTSecret string
}

func NewAuthService(users repository.UserRepository, notifier Notifier, jwtSecret string) *AuthService {
	return &AuthService{Users: users, Notifier: notifier, JWTSecret: jwtSecret}
}

func (s *AuthService) Register(req entities.RegisterRequest) error {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := nonPhone.ReplaceAllString(req.Phone, "")
	role := strings.ToLower(req.Role)
	specialty := strings.TrimSpace(req.Specialty)

	if len(name) < 3 {
		return apperr.NewHTTPError(422, "name must be at least 3 characters")
	}
	if !emailRe.MatchString(email) {
		return apperr.NewHTTPError(422, "invalid email format")
	}
	if !phoneRe.MatchString(phone) {
		return apperr.NewHTTPError(422, "invalid phone number format")
	}
	if len(req.Password) < 8 || !digitRe.MatchString(req.Password) || !letterRe.MatchString(req.Password) {
		return apperr.NewHTTPError(422, "password must be 8+ characters with letters and numbers")
	}
	if req.Password != req.PasswordConfirm {
		return apperr.NewHTTPError(422, "passwords do not match")
	}
	if role != "patient" && role != "doctor" {
		return apperr.NewHTTPError(422, "invalid role selection")
	}
	if role == "doctor" && specialty == "" {
		return apperr.NewHTTPError(422, "specialty is required for doctors")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user := &db.User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		Role:         role,
		PasswordHash: string(hash),
	}
	if role == "doctor" {
		user.Specialty = sql.NullString{String: specialty, Valid: true}
	}
	return s.Users.Create(user)
}

// RequestOTP generates a 6-digit code for the account, stores only its
// bcrypt hash and sends the code through the notifier.
func (s *AuthService) RequestOTP(email, role string) error {
	user, err := s.Users.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if user == nil || user.Role != strings.ToLower(role) {
		return apperr.ErrInvalidCredentials
	}

	otp, err := randomOTP()
	if err != nil {
		return fmt.Errorf("generating OTP: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(otp), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing OTP: %w", err)
	}
	if err := s.Users.SetOTP(user.ID, string(hash)); err != nil {
		return fmt.Errorf("storing OTP: %w", err)
	}

	go func() {
		body := fmt.Sprintf("Your one-time login code is %s.", otp)
		if err := s.Notifier.SendEmail(user.Email, user.Name, "Your login code", body); err != nil {
			log.Printf("OTP email to %s failed: %v", user.Email, err)
			if err := s.Notifier.SendSMS(user.Phone, body); err != nil {
				log.Printf("OTP SMS fallback to %s failed: %v", user.Phone, err)
			}
		}
	}()
	return nil
}

// VerifyOTP consumes the code and mints a session token. Doctors come
// online on a successful login.
func (s *AuthService) VerifyOTP(email, otp string) (string, error) {
	user, err := s.Users.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", err
	}
	if user == nil || !user.OTPHash.Valid {
		return "", apperr.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.OTPHash.String), []byte(strings.TrimSpace(otp))) != nil {
		return "", apperr.ErrInvalidCredentials
	}

	if err := s.Users.ClearOTP(user.ID); err != nil {
		return "", fmt.Errorf("clearing OTP: %w", err)
	}
	if user.Role == "doctor" {
		if err := s.Users.SetPresence(user.ID, "online"); err != nil {
			log.Printf("could not set doctor %d online: %v", user.ID, err)
		}
	}
	return auth.MakeToken(user.ID, user.Role, s.JWTSecret)
}

// Logout drops a doctor's presence. Patients have no presence state.
func (s *AuthService) Logout(ident auth.Identity) {
	if ident.Role != "doctor" {
		return
	}
	if err := s.Users.SetPresence(ident.UserID, "offline"); err != nil {
		log.Printf("could not set doctor %d offline: %v", ident.UserID, err)
	}
}

func randomOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
