package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/Revixit-Net/discord-bot/internal/core/domain"
)

type stubAccountRepository struct {
	createErr   error
	createCalls int
	created     domain.Account

	deleteCount int64
	deleteErr   error
	deleteCalls int
	deletedName string

	existsResult bool
	existsErr    error
	existsCalls  int

	updateResult bool
	updateErr    error
	updateCalls  int
	updateName   string
	updateHash   string

	byUsername    *domain.Account
	byUsernameErr error

	byExternalID    *domain.Account
	byExternalIDErr error

	searchResult []string
	searchErr    error

	pingErr error
}

func (s *stubAccountRepository) Create(_ context.Context, account domain.Account) error {
	s.createCalls++
	s.created = account
	return s.createErr
}

func (s *stubAccountRepository) Delete(_ context.Context, username string) (int64, error) {
	s.deleteCalls++
	s.deletedName = username
	return s.deleteCount, s.deleteErr
}

func (s *stubAccountRepository) Exists(context.Context, string, string) (bool, error) {
	s.existsCalls++
	return s.existsResult, s.existsErr
}

func (s *stubAccountRepository) UpdatePassword(_ context.Context, username, hash string) (bool, error) {
	s.updateCalls++
	s.updateName = username
	s.updateHash = hash
	return s.updateResult, s.updateErr
}

func (s *stubAccountRepository) GetByUsername(context.Context, string) (*domain.Account, error) {
	if s.byUsername != nil {
		copied := *s.byUsername
		return &copied, s.byUsernameErr
	}
	return nil, s.byUsernameErr
}

func (s *stubAccountRepository) GetByExternalID(context.Context, string) (*domain.Account, error) {
	if s.byExternalID != nil {
		copied := *s.byExternalID
		return &copied, s.byExternalIDErr
	}
	return nil, s.byExternalIDErr
}

func (s *stubAccountRepository) SearchUsernames(context.Context, string, int) ([]string, error) {
	return s.searchResult, s.searchErr
}

func (s *stubAccountRepository) Ping(context.Context) error {
	return s.pingErr
}

type stubCooldownStore struct {
	acquired bool
	err      error
	calls    int
	lastKey  string
	lastTTL  time.Duration
}

func (s *stubCooldownStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.calls++
	s.lastKey = key
	s.lastTTL = ttl
	return s.acquired, s.err
}

type stubUploadRepository struct {
	err       error
	calls     int
	lastToken string
	lastKind  domain.AssetKind
	lastHash  string
}

func (s *stubUploadRepository) RecordAsset(_ context.Context, token string, kind domain.AssetKind, hash string) error {
	s.calls++
	s.lastToken = token
	s.lastKind = kind
	s.lastHash = hash
	return s.err
}

type stubAssetStore struct {
	err      error
	calls    int
	lastKind domain.AssetKind
	lastName string
	lastData []byte
}

func (s *stubAssetStore) Put(_ context.Context, kind domain.AssetKind, filename string, data []byte) error {
	s.calls++
	s.lastKind = kind
	s.lastName = filename
	s.lastData = data
	return s.err
}

var errStoreDown = errors.New("connection refused")
