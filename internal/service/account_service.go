package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/oyasudev/oyasify/internal/catalog"
	"github.com/oyasudev/oyasify/internal/config"
	"github.com/oyasudev/oyasify/internal/models"
	"github.com/oyasudev/oyasify/internal/repository"
	"github.com/oyasudev/oyasify/internal/session"
)

// AssetUploader stores an image and returns its public URL. Satisfied by
// storage.Uploader; nil disables profile image uploads.
type AssetUploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

type AccountService struct {
	cfg      config.Config
	log      *slog.Logger
	accounts *repository.AccountRepository
	sessions *session.Manager
	uploader AssetUploader
}

func NewAccountService(cfg config.Config, log *slog.Logger, accounts *repository.AccountRepository, sessions *session.Manager, uploader AssetUploader) *AccountService {
	return &AccountService{
		cfg:      cfg,
		log:      log,
		accounts: accounts,
		sessions: sessions,
		uploader: uploader,
	}
}

// Register creates an account and establishes it as the active session.
// Registering with the reserved nickname bootstraps the one Owner account:
// lifetime top plan, Owner badge and the seeded wallet balance.
func (s *AccountService) Register(ctx context.Context, nickname, email, password string) (*models.Account, error) {
	nickname = strings.TrimSpace(nickname)
	email = strings.ToLower(strings.TrimSpace(email))

	if nickname == "" || password == "" {
		return nil, fmt.Errorf("%w: nickname and password are required", ErrValidation)
	}
	if !strings.HasSuffix(email, "@"+s.cfg.AllowedEmailDomain) {
		return nil, fmt.Errorf("%w: e-mail must be a @%s address", ErrValidation, s.cfg.AllowedEmailDomain)
	}

	isReserved := strings.ToLower(nickname) == s.cfg.ReservedNickname
	if isReserved {
		existing, err := s.accounts.GetByNickname(ctx, nickname)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: %q is no longer available", ErrReservedName, nickname)
		}
	}

	if existing, err := s.accounts.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: e-mail already in use", ErrValidation)
	}
	if existing, err := s.accounts.GetByNickname(ctx, nickname); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: nickname already in use", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		Nickname:     nickname,
		PasswordHash: string(hash),
		Profile: models.Profile{
			DisplayName: nickname,
			AvatarURL:   fmt.Sprintf("https://avatar.iran.liara.run/public/boy?username=%s", nickname),
			BannerURL:   fmt.Sprintf("https://picsum.photos/seed/%s_banner/800/200", nickname),
			Bio:         "Novo na Oyasify!",
			Badges:      []string{},
			Theme:       catalog.DefaultTheme,
		},
		Access:  models.AccessStatus{Plan: models.PlanFree},
		Credits: map[string]int{},
	}
	if isReserved {
		account.Profile.Bio = "Dono do Oyasify."
		account.Profile.Badges = []string{models.BadgeOwner}
		account.Access.Plan = models.PlanUltra
		account.WalletBalance = s.cfg.OwnerWalletSeed
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	if err := s.sessions.Establish(ctx, account); err != nil {
		return nil, err
	}
	s.log.Info("account registered", "nickname", nickname, "owner", isReserved)
	return account, nil
}

// Login restores the matching account as the active session and applies its
// saved theme.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAuthentication
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, ErrAuthentication
	}
	if err := s.sessions.Establish(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *AccountService) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

// ProfileUpdate carries partial profile changes. Nil fields are untouched.
// Avatar and Banner are raw image bytes, uploaded to asset storage.
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	Theme       *string
	Avatar      []byte
	AvatarType  string
	Banner      []byte
	BannerType  string
}

func (s *AccountService) UpdateProfile(ctx context.Context, update ProfileUpdate) (*models.Account, error) {
	account := s.sessions.Current()
	if account == nil {
		return nil, ErrNotAuthenticated
	}

	if update.DisplayName != nil {
		account.Profile.DisplayName = strings.TrimSpace(*update.DisplayName)
	}
	if update.Bio != nil {
		account.Profile.Bio = *update.Bio
	}
	if update.Theme != nil {
		if !catalog.ValidTheme(*update.Theme) {
			return nil, fmt.Errorf("%w: unknown theme %q", ErrValidation, *update.Theme)
		}
		account.Profile.Theme = *update.Theme
	}
	if len(update.Avatar) > 0 {
		url, err := s.uploadAsset(ctx, update.Avatar, update.AvatarType)
		if err != nil {
			return nil, err
		}
		account.Profile.AvatarURL = url
	}
	if len(update.Banner) > 0 {
		url, err := s.uploadAsset(ctx, update.Banner, update.BannerType)
		if err != nil {
			return nil, err
		}
		account.Profile.BannerURL = url
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.sessions.Replace(account)
	return account, nil
}

func (s *AccountService) uploadAsset(ctx context.Context, data []byte, contentType string) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("%w: image uploads are not configured", ErrValidation)
	}
	url, err := s.uploader.Upload(ctx, data, contentType)
	if err != nil {
		return "", fmt.Errorf("upload profile asset: %w", err)
	}
	return url, nil
}
