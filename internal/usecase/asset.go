package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"go.uber.org/zap"

	"github.com/Revixit-Net/discord-bot/internal/core/domain"
	"github.com/Revixit-Net/discord-bot/internal/core/port"
	"github.com/Revixit-Net/discord-bot/internal/infra/security"
	"github.com/Revixit-Net/discord-bot/internal/repository"
)

// MaxAssetBytes caps uploaded asset files.
const MaxAssetBytes = 256 * 1024

type assetDimensions struct {
	width  int
	height int
}

// Expected pixel dimensions per asset slot.
var assetSizes = map[domain.AssetKind]assetDimensions{
	domain.AssetSkin:  {width: 64, height: 64},
	domain.AssetCloak: {width: 64, height: 32},
}

// AssetService validates and stores cosmetic asset uploads.
type AssetService struct {
	accounts port.AccountRepository
	uploads  port.UploadRepository
	store    port.AssetStore
	logger   *zap.Logger
}

// NewAssetService constructs an AssetService.
func NewAssetService(accounts port.AccountRepository, uploads port.UploadRepository, store port.AssetStore, logger *zap.Logger) *AssetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetService{accounts: accounts, uploads: uploads, store: store, logger: logger}
}

// Upload validates the PNG, stores it under the account's username, and
// records the content hash against the account's identity token.
func (s *AssetService) Upload(ctx context.Context, externalID string, kind domain.AssetKind, filename string, data []byte) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown asset kind %q", kind)
	}

	account, err := s.accounts.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if err := validateAssetImage(kind, filename, data); err != nil {
		return err
	}

	sum := sha256.Sum256(data)
	contentHash := hex.EncodeToString(sum[:])

	storedName := account.Username + ".png"
	if err := s.store.Put(ctx, kind, storedName, data); err != nil {
		return fmt.Errorf("store asset file: %w", err)
	}

	if err := s.uploads.RecordAsset(ctx, account.IdentityToken, kind, contentHash); err != nil {
		return fmt.Errorf("record asset hash: %w", err)
	}

	s.logger.Info("asset uploaded",
		zap.String("username", account.Username),
		zap.String("kind", string(kind)),
		zap.String("hash", contentHash),
	)

	return nil
}

// validateAssetImage enforces the upload contract: a PNG of at most
// MaxAssetBytes whose pixel dimensions match the asset slot.
func validateAssetImage(kind domain.AssetKind, filename string, data []byte) error {
	if len(data) == 0 {
		return &security.ValidationError{Code: "empty", Message: "the uploaded file is empty"}
	}
	if len(data) > MaxAssetBytes {
		return &security.ValidationError{Code: "size", Message: "the file is too large (max 256KB)"}
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".png") {
		return &security.ValidationError{Code: "extension", Message: "only PNG files are allowed"}
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return &security.ValidationError{Code: "format", Message: "the file is not a valid PNG image"}
	}

	want := assetSizes[kind]
	if cfg.Width != want.width || cfg.Height != want.height {
		return &security.ValidationError{
			Code:    "dimensions",
			Message: fmt.Sprintf("wrong image size (expected %dx%d)", want.width, want.height),
		}
	}

	return nil
}
