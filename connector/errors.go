package connector

import "errors"

var (
	ErrConnectorNotInitialized     = errors.New("connector: not initialized")
	ErrConnectorAlreadyInitialized = errors.New("connector: already initialized")
	ErrInsufficientBalance         = errors.New("connector: insufficient balance")
	ErrProofAlreadyUsed            = errors.New("connector: deposit proof already used")
	ErrInvalidProof                = errors.New("connector: invalid deposit proof")
	ErrNotCustodian                = errors.New("connector: caller is not the registered custodian")
	ErrStorageNotRegistered        = errors.New("connector: account has not paid the storage deposit")
	ErrStorageAlreadyRegistered    = errors.New("connector: account already registered")
	ErrBadFtOnTransferMsg          = errors.New("connector: malformed ft_on_transfer message")
	ErrZeroAmount                  = errors.New("connector: amount must be non-zero")
	ErrFeeExceedsAmount            = errors.New("connector: deposit amount must exceed fee")
	ErrFTPaused                    = errors.New("connector: fungible-token subsystem is paused")
)
