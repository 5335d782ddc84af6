package usecase

import "errors"

var (
	// ErrAccountExists indicates the username is taken or the Discord
	// identity already owns an account.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound indicates the operation target is absent.
	ErrAccountNotFound = errors.New("account not found")
	// ErrCurrentPasswordInvalid indicates the provided current password is incorrect.
	ErrCurrentPasswordInvalid = errors.New("current password is incorrect")
	// ErrCooldownActive indicates the user must wait before retrying the command.
	ErrCooldownActive = errors.New("command is on cooldown")
)
