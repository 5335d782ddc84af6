package discord

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap/zaptest"

	"github.com/Revixit-Net/discord-bot/internal/core/domain"
	"github.com/Revixit-Net/discord-bot/internal/infra/security"
	"github.com/Revixit-Net/discord-bot/internal/repository"
	"github.com/Revixit-Net/discord-bot/internal/usecase"
)

type stubAccountRepository struct {
	accounts map[string]*domain.Account

	createErr error
	pingErr   error
	searchRes []string
	searchErr error

	created []domain.Account
	deleted []string
}

func newStubAccountRepository() *stubAccountRepository {
	return &stubAccountRepository{accounts: make(map[string]*domain.Account)}
}

func (s *stubAccountRepository) Create(_ context.Context, account domain.Account) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, account)
	s.accounts[account.Username] = &account
	return nil
}

func (s *stubAccountRepository) Delete(_ context.Context, username string) (int64, error) {
	s.deleted = append(s.deleted, username)
	if _, ok := s.accounts[username]; !ok {
		return 0, nil
	}
	delete(s.accounts, username)
	return 1, nil
}

func (s *stubAccountRepository) Exists(_ context.Context, externalID, username string) (bool, error) {
	for _, account := range s.accounts {
		if account.Username == username || account.ExternalAccountID == externalID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubAccountRepository) UpdatePassword(_ context.Context, username, passwordHash string) (bool, error) {
	account, ok := s.accounts[username]
	if !ok {
		return false, nil
	}
	account.PasswordHash = passwordHash
	return true, nil
}

func (s *stubAccountRepository) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	account, ok := s.accounts[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *stubAccountRepository) GetByExternalID(_ context.Context, externalID string) (*domain.Account, error) {
	for _, account := range s.accounts {
		if account.ExternalAccountID == externalID {
			copied := *account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubAccountRepository) SearchUsernames(_ context.Context, _ string, _ int) ([]string, error) {
	return s.searchRes, s.searchErr
}

func (s *stubAccountRepository) Ping(_ context.Context) error {
	return s.pingErr
}

type stubUploadRepository struct {
	tokens []string
}

func (s *stubUploadRepository) RecordAsset(_ context.Context, identityToken string, _ domain.AssetKind, _ string) error {
	s.tokens = append(s.tokens, identityToken)
	return nil
}

type stubAssetStore struct {
	files map[string][]byte
}

func (s *stubAssetStore) Put(_ context.Context, kind domain.AssetKind, filename string, data []byte) error {
	if s.files == nil {
		s.files = make(map[string][]byte)
	}
	s.files[string(kind)+"/"+filename] = data
	return nil
}

// recordingResponder captures the reply surface for handler assertions.
type recordingResponder struct {
	acked   bool
	replies []string
	embeds  []*discordgo.MessageEmbed
}

func (r *recordingResponder) Ack() error {
	r.acked = true
	return nil
}

func (r *recordingResponder) Reply(content string) error {
	r.replies = append(r.replies, content)
	return nil
}

func (r *recordingResponder) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	r.embeds = append(r.embeds, embed)
	return nil
}

func (r *recordingResponder) lastReply(t *testing.T) string {
	t.Helper()
	if len(r.replies) == 0 {
		t.Fatal("expected a reply to be sent")
	}
	return r.replies[len(r.replies)-1]
}

const adminRoleID = "admin-role"

func newTestBot(t *testing.T, accounts *stubAccountRepository) *Bot {
	t.Helper()
	logger := zaptest.NewLogger(t)
	uploads := &stubUploadRepository{}
	store := &stubAssetStore{}
	return &Bot{
		adminRoleID:  adminRoleID,
		registration: usecase.NewRegistrationService(accounts, logger),
		passwords:    usecase.NewPasswordService(accounts, logger),
		admin:        usecase.NewAdminService(accounts, logger),
		assets:       usecase.NewAssetService(accounts, uploads, store, logger),
		logger:       logger,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
	}
}

func commandInteraction(name, userID string, roles []string, options []*discordgo.ApplicationCommandInteractionDataOption, resolved *discordgo.ApplicationCommandInteractionDataResolved) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{
				Name:     name,
				Options:  options,
				Resolved: resolved,
			},
			Member: &discordgo.Member{
				User:  &discordgo.User{ID: userID},
				Roles: roles,
			},
		},
	}
}

func stringOptions(pairs ...string) []*discordgo.ApplicationCommandInteractionDataOption {
	options := make([]*discordgo.ApplicationCommandInteractionDataOption, 0, len(pairs)/2)
	for idx := 0; idx+1 < len(pairs); idx += 2 {
		options = append(options, &discordgo.ApplicationCommandInteractionDataOption{
			Type:  discordgo.ApplicationCommandOptionString,
			Name:  pairs[idx],
			Value: pairs[idx+1],
		})
	}
	return options
}

func TestHandleRegisterSuccess(t *testing.T) {
	accounts := newStubAccountRepository()
	bot := newTestBot(t, accounts)
	responder := &recordingResponder{}

	i := commandInteraction("reg", "100", nil, stringOptions("login", "Alexei_123", "password", "Sup3rSecret"), nil)
	outcome := bot.handleRegister(context.Background(), responder, i)

	if outcome != outcomeOK {
		t.Fatalf("expected outcome ok, got %q", outcome)
	}
	if !strings.Contains(responder.lastReply(t), "Alexei_123") {
		t.Fatalf("expected reply to name the login, got %q", responder.lastReply(t))
	}
	if len(accounts.created) != 1 {
		t.Fatalf("expected one account to be created, got %d", len(accounts.created))
	}
	if accounts.created[0].ExternalAccountID != "100" {
		t.Fatalf("expected account to be owned by the invoking user, got %q", accounts.created[0].ExternalAccountID)
	}
}

func TestHandleRegisterValidationShownVerbatim(t *testing.T) {
	accounts := newStubAccountRepository()
	bot := newTestBot(t, accounts)
	responder := &recordingResponder{}

	i := commandInteraction("reg", "100", nil, stringOptions("login", "x", "password", "Sup3rSecret"), nil)
	outcome := bot.handleRegister(context.Background(), responder, i)

	if outcome != outcomeRejected {
		t.Fatalf("expected outcome rejected, got %q", outcome)
	}
	if !strings.HasPrefix(responder.lastReply(t), "❌ ") {
		t.Fatalf("expected validation reply, got %q", responder.lastReply(t))
	}
	if len(accounts.created) != 0 {
		t.Fatal("expected no account to be created")
	}
}

func TestHandleRegisterDuplicate(t *testing.T) {
	accounts := newStubAccountRepository()
	accounts.accounts["Taken"] = &domain.Account{Username: "Taken", ExternalAccountID: "999"}
	bot := newTestBot(t, accounts)
	responder := &recordingResponder{}

	i := commandInteraction("reg", "100", nil, stringOptions("login", "Taken", "password", "Sup3rSecret"), nil)
	outcome := bot.handleRegister(context.Background(), responder, i)

	if outcome != outcomeRejected {
		t.Fatalf("expected outcome rejected, got %q", outcome)
	}
	if !strings.Contains(responder.lastReply(t), "taken") {
		t.Fatalf("expected conflict reply, got %q", responder.lastReply(t))
	}
}

var opaqueCodeReply = regexp.MustCompile(`^🚨 Error [0-9A-F]{6}:`)

func TestHandleRegisterOpaqueErrorCode(t *testing.T) {
	accounts := newStubAccountRepository()
	accounts.createErr = errors.New("connection reset")
	bot := newTestBot(t, accounts)
	responder := &recordingResponder{}

	i := commandInteraction("reg", "100", nil, stringOptions("login", "Alexei_123", "password", "Sup3rSecret"), nil)
	outcome := bot.handleRegister(context.Background(), responder, i)

	if outcome != outcomeError {
		t.Fatalf("expected outcome error, got %q", outcome)
	}
	reply := responder.lastReply(t)
	if !opaqueCodeReply.MatchString(reply) {
		t.Fatalf("expected opaque error code reply, got %q", reply)
	}
	if strings.Contains(reply, "connection reset") {
		t.Fatalf("internal error leaked to the user: %q", reply)
	}
}

func TestHandleChangePasswordWrongCurrent(t *testing.T) {
	hash, err := security.HashPassword("Corr3ctPass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	accounts := newStubAccountRepository()
	accounts.accounts["Alexei_123"] = &domain.Account{
		Username:          "Alexei_123",
		PasswordHash:      hash,
		ExternalAccountID: "100",
	}
	bot := newTestBot(t, accounts)
	responder := &recordingResponder{}

	i := commandInteraction("changepassword", "100", nil, stringOptions("old_password", "WrongPass1", "new_password", "An0therPass"), nil)
	outcome := bot.handleChangePassword(context.Background(), responder, i)

	if outcome != outcomeRejected {
		t.Fatalf("expected outcome rejected, got %q", outcome)
	}
	if !strings.Contains(responder.lastReply(t), "current password") {
		t.Fatalf("expected wrong password reply, got %q", responder.lastReply(t))
	}
}

func TestAdminCommandRequiresRole(t *testing.T) {
	accounts := newStubAccountRepository()
	accounts.accounts["Victim"] = &domain.Account{Username: "Victim"}
	bot := newTestBot(t, accounts)
	responder := &recordingResponder{}

	i := commandInteraction("delete", "100", []string{"some-other-role"}, stringOptions("username", "Victim"), nil)
	outcome := bot.handleDelete(context.Background(), responder, i)

	if outcome != outcomeDenied {
		t.Fatalf("expected outcome denied, got %q", outcome)
	}
	if len(accounts.deleted) != 0 {
		t.Fatal("store must not be touched for unprivileged invocations")
	}
	if _, ok := accounts.accounts["Victim"]; !ok {
		t.Fatal("account must survive an unprivileged delete")
	}
}

func TestHandleDelete(t *testing.T) {
	accounts := newStubAccountRepository()
	accounts.accounts["Victim"] = &domain.Account{Username: "Victim"}
	bot := newTestBot(t, accounts)

	responder := &recordingResponder{}
	i := commandInteraction("delete", "100", []string{adminRoleID}, stringOptions("username", "Victim"), nil)
	if outcome := bot.handleDelete(context.Background(), responder, i); outcome != outcomeOK {
		t.Fatalf("expected outcome ok, got %q", outcome)
	}
	if !strings.Contains(responder.lastReply(t), "deleted") {
		t.Fatalf("expected deletion reply, got %q", responder.lastReply(t))
	}

	responder = &recordingResponder{}
	if outcome := bot.handleDelete(context.Background(), responder, i); outcome != outcomeRejected {
		t.Fatalf("expected outcome rejected for absent account, got %q", outcome)
	}
	if !strings.Contains(responder.lastReply(t), "not found") {
		t.Fatalf("expected not found reply, got %q", responder.lastReply(t))
	}
}

func TestHandleUserInfoEmbed(t *testing.T) {
	accounts := newStubAccountRepository()
	accounts.accounts["Alexei_123"] = &domain.Account{
		Username:          "Alexei_123",
		IdentityToken:     "11111111-2222-3333-4444-555555555555",
		ExternalAccountID: "100",
		ServerBinding:     domain.DefaultServerBinding,
		RegisteredAt:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	bot := newTestBot(t, accounts)
	responder := &recordingResponder{}

	i := commandInteraction("userinfo", "200", []string{adminRoleID}, stringOptions("username", "Alexei_123"), nil)
	if outcome := bot.handleUserInfo(context.Background(), responder, i); outcome != outcomeOK {
		t.Fatalf("expected outcome ok, got %q", outcome)
	}
	if len(responder.embeds) != 1 {
		t.Fatalf("expected one embed, got %d", len(responder.embeds))
	}

	embed := responder.embeds[0]
	if !strings.Contains(embed.Title, "Alexei_123") {
		t.Fatalf("expected embed title to name the account, got %q", embed.Title)
	}
	var sawToken bool
	for _, field := range embed.Fields {
		if strings.Contains(field.Value, "11111111-2222-3333-4444-555555555555") {
			sawToken = true
		}
	}
	if !sawToken {
		t.Fatal("expected embed to carry the identity token")
	}
}

func TestHandleSetPassword(t *testing.T) {
	accounts := newStubAccountRepository()
	accounts.accounts["Alexei_123"] = &domain.Account{Username: "Alexei_123", PasswordHash: "old"}
	bot := newTestBot(t, accounts)
	responder := &recordingResponder{}

	i := commandInteraction("setpassword", "200", []string{adminRoleID}, stringOptions("username", "Alexei_123", "new_password", "Bran0NewPass"), nil)
	if outcome := bot.handleSetPassword(context.Background(), responder, i); outcome != outcomeOK {
		t.Fatalf("expected outcome ok, got %q", outcome)
	}

	updated := accounts.accounts["Alexei_123"].PasswordHash
	if updated == "old" {
		t.Fatal("expected password hash to be replaced")
	}
	ok, err := security.VerifyPassword("Bran0NewPass", updated)
	if err != nil || !ok {
		t.Fatalf("expected stored hash to verify against the new password, ok=%v err=%v", ok, err)
	}
}

func TestUsernameChoices(t *testing.T) {
	accounts := newStubAccountRepository()
	for i := 0; i < 30; i++ {
		accounts.searchRes = append(accounts.searchRes, "user")
	}
	bot := newTestBot(t, accounts)

	choices := bot.usernameChoices(context.Background(), "use")
	if len(choices) != maxAutocompleteChoices {
		t.Fatalf("expected %d choices, got %d", maxAutocompleteChoices, len(choices))
	}
}

func TestUsernameChoicesUnhealthyStore(t *testing.T) {
	accounts := newStubAccountRepository()
	accounts.pingErr = errors.New("dial tcp: refused")
	bot := newTestBot(t, accounts)

	choices := bot.usernameChoices(context.Background(), "use")
	if len(choices) != 1 {
		t.Fatalf("expected a single marker choice, got %d", len(choices))
	}
	if choices[0].Value != "error" {
		t.Fatalf("expected marker choice value, got %v", choices[0].Value)
	}
}

func TestHandleUpload(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 64))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	defer server.Close()

	accounts := newStubAccountRepository()
	accounts.accounts["Alexei_123"] = &domain.Account{
		Username:          "Alexei_123",
		IdentityToken:     "token-1",
		ExternalAccountID: "100",
	}
	bot := newTestBot(t, accounts)
	responder := &recordingResponder{}

	options := stringOptions("type", "skin")
	options = append(options, &discordgo.ApplicationCommandInteractionDataOption{
		Type:  discordgo.ApplicationCommandOptionAttachment,
		Name:  "file",
		Value: "att-1",
	})
	resolved := &discordgo.ApplicationCommandInteractionDataResolved{
		Attachments: map[string]*discordgo.MessageAttachment{
			"att-1": {
				ID:       "att-1",
				URL:      server.URL + "/skin.png",
				Filename: "skin.png",
				Size:     buf.Len(),
			},
		},
	}

	i := commandInteraction("upload", "100", nil, options, resolved)
	if outcome := bot.handleUpload(context.Background(), responder, i); outcome != outcomeOK {
		t.Fatalf("expected outcome ok, got %q (reply %v)", outcome, responder.replies)
	}
	if !strings.Contains(responder.lastReply(t), "Skin uploaded") {
		t.Fatalf("expected upload confirmation, got %q", responder.lastReply(t))
	}
}

func TestHandleUploadWithoutAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not a png"))
	}))
	defer server.Close()

	accounts := newStubAccountRepository()
	bot := newTestBot(t, accounts)
	responder := &recordingResponder{}

	options := stringOptions("type", "skin")
	options = append(options, &discordgo.ApplicationCommandInteractionDataOption{
		Type:  discordgo.ApplicationCommandOptionAttachment,
		Name:  "file",
		Value: "att-1",
	})
	resolved := &discordgo.ApplicationCommandInteractionDataResolved{
		Attachments: map[string]*discordgo.MessageAttachment{
			"att-1": {ID: "att-1", URL: server.URL + "/skin.png", Filename: "skin.png", Size: 10},
		},
	}

	i := commandInteraction("upload", "100", nil, options, resolved)
	if outcome := bot.handleUpload(context.Background(), responder, i); outcome != outcomeRejected {
		t.Fatalf("expected outcome rejected, got %q", outcome)
	}
	if !strings.Contains(responder.lastReply(t), "/reg") {
		t.Fatalf("expected registration hint, got %q", responder.lastReply(t))
	}
}

func TestHandleUploadOversizedAttachmentSkipsDownload(t *testing.T) {
	accounts := newStubAccountRepository()
	bot := newTestBot(t, accounts)
	responder := &recordingResponder{}

	options := stringOptions("type", "cloak")
	options = append(options, &discordgo.ApplicationCommandInteractionDataOption{
		Type:  discordgo.ApplicationCommandOptionAttachment,
		Name:  "file",
		Value: "att-1",
	})
	resolved := &discordgo.ApplicationCommandInteractionDataResolved{
		Attachments: map[string]*discordgo.MessageAttachment{
			"att-1": {ID: "att-1", URL: "http://127.0.0.1:0/unused", Filename: "cloak.png", Size: usecase.MaxAssetBytes + 1},
		},
	}

	i := commandInteraction("upload", "100", nil, options, resolved)
	if outcome := bot.handleUpload(context.Background(), responder, i); outcome != outcomeRejected {
		t.Fatalf("expected outcome rejected, got %q", outcome)
	}
	if !strings.Contains(responder.lastReply(t), "256KB") {
		t.Fatalf("expected size rejection, got %q", responder.lastReply(t))
	}
}
