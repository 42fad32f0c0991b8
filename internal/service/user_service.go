package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"learnhub/internal/media/sniffer"
	"learnhub/internal/models"
	"learnhub/internal/repository"
	"learnhub/internal/security"
)

type UserStore interface {
	GetByID(ctx context.Context, id int64) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user models.User) (models.User, error)
	Update(ctx context.Context, user models.User) (models.User, error)
	UpdatePassword(ctx context.Context, id int64, credential string) error
	UpdateStatus(ctx context.Context, id int64, status models.UserStatus) error
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
}

type ImageStore interface {
	PutProfileImage(ctx context.Context, userID int64, data []byte, contentType, ext string) (string, error)
}

type SessionRevoker interface {
	Logout(ctx context.Context, userID int64) error
}

// ProfileUpdate carries the fields a user may change on their own record.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Name       *string
	Email      *string
	MobileNo   *string
	Address    *string
	DOB        *time.Time
	Gender     *string
	SchoolName *string
	RollNo     *string
	ImageURL   *string
}

type NewUser struct {
	Name       string
	Email      string
	Password   string
	Role       models.UserRole
	Status     *models.UserStatus
	MobileNo   *string
	FCMID      *string
	ImageURL   *string
	Address    *string
	DOB        *time.Time
	Gender     *string
	SchoolName *string
	RollNo     *string
}

// UserUpdate is the admin edit; a non-empty Password is re-hashed.
type UserUpdate struct {
	ProfileUpdate
	Password *string
	FCMID    *string
	Role     *models.UserRole
	Status   *models.UserStatus
}

type UserService struct {
	users    UserStore
	images   ImageStore
	sessions SessionRevoker
	verifier *security.CredentialVerifier
	log      zerolog.Logger

	hash func(string) (string, error)
}

func NewUserService(
	users UserStore,
	images ImageStore,
	sessions SessionRevoker,
	verifier *security.CredentialVerifier,
	log zerolog.Logger,
) *UserService {
	if verifier == nil {
		verifier = security.DefaultCredentialVerifier()
	}
	return &UserService{
		users:    users,
		images:   images,
		sessions: sessions,
		verifier: verifier,
		log:      log,
		hash:     security.HashPassword,
	}
}

func (s *UserService) GetProfile(ctx context.Context, userID int64) (models.User, error) {
	return s.get(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in ProfileUpdate) (models.User, error) {
	user, err := s.get(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if err := s.applyProfile(ctx, &user, in); err != nil {
		return models.User{}, err
	}
	return s.save(ctx, user)
}

// ChangePassword checks current against whatever format the stored
// credential uses and always writes the new one as argon2id.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.get(ctx, userID)
	if err != nil {
		return err
	}
	if !s.verifier.Verify(current, user.Password) {
		return ErrCurrentPasswordIncorrect
	}

	hashed, err := s.hash(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hashed); err != nil {
		return mapUserErr(err)
	}
	return nil
}

func (s *UserService) UploadProfileImage(ctx context.Context, userID int64, data []byte) (models.User, error) {
	kind, err := sniffer.DetectImage(data)
	if err != nil {
		return models.User{}, ErrUnsupportedImage
	}

	user, err := s.get(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	url, err := s.images.PutProfileImage(ctx, userID, data, kind.MIME, kind.Ext())
	if err != nil {
		return models.User{}, fmt.Errorf("store image: %w", err)
	}
	user.ImageURL = &url
	return s.save(ctx, user)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) AddUser(ctx context.Context, in NewUser) (models.User, error) {
	email := strings.TrimSpace(in.Email)
	taken, err := s.users.EmailTaken(ctx, email, 0)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, ErrEmailTaken
	}

	hashed, err := s.hash(in.Password)
	if err != nil {
		return models.User{}, err
	}

	role := in.Role
	if role == "" {
		role = models.UserRoleUser
	}
	status := models.UserStatusActive
	if in.Status != nil {
		status = *in.Status
	}

	created, err := s.users.Create(ctx, models.User{
		Email:      email,
		Password:   hashed,
		Name:       strings.TrimSpace(in.Name),
		Role:       role,
		MobileNo:   in.MobileNo,
		FCMID:      in.FCMID,
		ImageURL:   in.ImageURL,
		Address:    in.Address,
		DOB:        in.DOB,
		Gender:     in.Gender,
		SchoolName: in.SchoolName,
		RollNo:     in.RollNo,
		Status:     status,
	})
	if err != nil {
		return models.User{}, mapUserErr(err)
	}
	return created, nil
}

func (s *UserService) EditUser(ctx context.Context, id int64, in UserUpdate) (models.User, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if err := s.applyProfile(ctx, &user, in.ProfileUpdate); err != nil {
		return models.User{}, err
	}
	if in.Password != nil && *in.Password != "" {
		hashed, err := s.hash(*in.Password)
		if err != nil {
			return models.User{}, err
		}
		user.Password = hashed
	}
	if in.FCMID != nil {
		user.FCMID = in.FCMID
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	deactivated := false
	if in.Status != nil {
		deactivated = user.IsActive() && *in.Status == models.UserStatusInactive
		user.Status = *in.Status
	}

	updated, err := s.save(ctx, user)
	if err != nil {
		return models.User{}, err
	}
	if deactivated {
		s.revoke(ctx, id)
	}
	return updated, nil
}

// RemoveUser deactivates the account and revokes its sessions. Rows are
// kept so challenge and token history stays attributable.
func (s *UserService) RemoveUser(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return ErrCannotRemoveSelf
	}
	if err := s.users.UpdateStatus(ctx, id, models.UserStatusInactive); err != nil {
		return mapUserErr(err)
	}
	s.revoke(ctx, id)
	return nil
}

func (s *UserService) revoke(ctx context.Context, userID int64) {
	if err := s.sessions.Logout(ctx, userID); err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("revoke sessions of deactivated user failed")
	}
}

func (s *UserService) applyProfile(ctx context.Context, user *models.User, in ProfileUpdate) error {
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if !strings.EqualFold(email, user.Email) {
			taken, err := s.users.EmailTaken(ctx, email, user.ID)
			if err != nil {
				return err
			}
			if taken {
				return ErrEmailTaken
			}
		}
		user.Email = email
	}
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.MobileNo != nil {
		user.MobileNo = in.MobileNo
	}
	if in.Address != nil {
		user.Address = in.Address
	}
	if in.DOB != nil {
		user.DOB = in.DOB
	}
	if in.Gender != nil {
		user.Gender = in.Gender
	}
	if in.SchoolName != nil {
		user.SchoolName = in.SchoolName
	}
	if in.RollNo != nil {
		user.RollNo = in.RollNo
	}
	if in.ImageURL != nil {
		user.ImageURL = in.ImageURL
	}
	return nil
}

func (s *UserService) get(ctx context.Context, id int64) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, mapUserErr(err)
	}
	return user, nil
}

func (s *UserService) save(ctx context.Context, user models.User) (models.User, error) {
	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return models.User{}, mapUserErr(err)
	}
	return updated, nil
}

func mapUserErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrEmailTaken):
		return ErrEmailTaken
	}
	return err
}
