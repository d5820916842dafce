package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
	"github.com/rodrigoprogmaster-prog/clinica/internal/service/audit"
	"github.com/rodrigoprogmaster-prog/clinica/internal/state"
)

// MaxImageBytes bounds a stored data URL.
const MaxImageBytes = 2 << 20

var (
	ErrInvalidImage  = errors.New("image must be a data:image/... URL")
	ErrImageTooLarge = errors.New("image exceeds size limit")
)

// View is the public part of the settings.
type View struct {
	ProfileImage   string `json:"profileImage"`
	SignatureImage string `json:"signatureImage"`
	PasswordSet    bool   `json:"passwordSet"`
}

type Service interface {
	Get(ctx context.Context) View
	// SetProfileImage stores a data URL. An empty value clears it.
	SetProfileImage(ctx context.Context, dataURL string) (View, error)
	SetSignatureImage(ctx context.Context, dataURL string) (View, error)
}

type settingsService struct {
	store *state.Store
	audit audit.Service
	log   *slog.Logger
}

func New(store *state.Store, auditSvc audit.Service, log *slog.Logger) Service {
	return &settingsService{store: store, audit: auditSvc, log: log.With("service", "settings")}
}

func (s *settingsService) Get(_ context.Context) View {
	st := s.store.Settings()
	return View{
		ProfileImage:   st.ProfileImage,
		SignatureImage: st.SignatureImage,
		PasswordSet:    st.Password != "",
	}
}

func (s *settingsService) SetProfileImage(ctx context.Context, dataURL string) (View, error) {
	return s.setImage(ctx, domain.SettingProfileImage, dataURL)
}

func (s *settingsService) SetSignatureImage(ctx context.Context, dataURL string) (View, error) {
	return s.setImage(ctx, domain.SettingSignatureImage, dataURL)
}

func (s *settingsService) setImage(ctx context.Context, key, dataURL string) (View, error) {
	dataURL = strings.TrimSpace(dataURL)
	if dataURL != "" && !strings.HasPrefix(dataURL, "data:image/") {
		return View{}, ErrInvalidImage
	}
	if len(dataURL) > MaxImageBytes {
		return View{}, ErrImageTooLarge
	}

	if res := s.store.SetSetting(ctx, key, dataURL); res.Err != nil {
		return View{}, fmt.Errorf("set %s: %w", key, res.Err)
	}

	_ = s.audit.Record(ctx, audit.ActionUpdate, domain.EntitySettings, key, "Imagem atualizada: "+key)
	return s.Get(ctx), nil
}
