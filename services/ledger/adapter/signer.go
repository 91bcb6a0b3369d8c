// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh/terminal"
	"io"
	"io/ioutil"
	"math/big"
	"os"
	"strings"
)

type signerConfig interface {
	LedgerChainId() uint32
	SignerKeystorePath() string
	SignerKeystorePassphrase() string
	SignerPrivateKey() string
}

// Signer is the local stand-in for a browser wallet: one key, one identity
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainId *big.Int
}

func NewSigner(key *ecdsa.PrivateKey, chainId uint32) *Signer {
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainId: new(big.Int).SetUint64(uint64(chainId)),
	}
}

func NewSignerFromHex(hexKey string, chainId uint32) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid signer private key")
	}
	return NewSigner(key, chainId), nil
}

func NewSignerFromKeystore(keyJson []byte, passphrase string, chainId uint32) (*Signer, error) {
	key, err := keystore.DecryptKey(keyJson, passphrase)
	if err != nil {
		return nil, errors.Wrap(err, "could not decrypt keystore")
	}
	return NewSigner(key.PrivateKey, chainId), nil
}

type PassphrasePrompt func(path string) (string, error)

// reads the passphrase from the controlling terminal without echo
func TerminalPassphrasePrompt(out io.Writer) PassphrasePrompt {
	return func(path string) (string, error) {
		fd := int(os.Stdin.Fd())
		if !terminal.IsTerminal(fd) {
			return "", errors.Errorf("keystore %s needs a passphrase but stdin is not a terminal", path)
		}

		fmt.Fprintf(out, "Passphrase for %s: ", path)
		passphrase, err := terminal.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", errors.Wrap(err, "failed reading passphrase")
		}

		return string(passphrase), nil
	}
}

// nil signer and nil error when no key material is configured, the session is then read-only
func LoadSigner(cfg signerConfig, prompt PassphrasePrompt) (*Signer, error) {
	if cfg.SignerPrivateKey() != "" {
		return NewSignerFromHex(cfg.SignerPrivateKey(), cfg.LedgerChainId())
	}

	path := cfg.SignerKeystorePath()
	if path == "" {
		return nil, nil
	}

	keyJson, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read keystore %s", path)
	}

	passphrase := cfg.SignerKeystorePassphrase()
	if passphrase == "" && prompt != nil {
		if passphrase, err = prompt(path); err != nil {
			return nil, err
		}
	}

	return NewSignerFromKeystore(keyJson, passphrase, cfg.LedgerChainId())
}

func (s *Signer) Address() common.Address {
	return s.address
}

func (s *Signer) txSigner() types.Signer {
	if s.chainId.Sign() > 0 {
		return types.NewEIP155Signer(s.chainId)
	}
	return types.HomesteadSigner{}
}

func (s *Signer) TransactOpts(ctx context.Context) *bind.TransactOpts {
	signer := s.txSigner()
	return &bind.TransactOpts{
		From:    s.address,
		Context: ctx,
		Signer: func(_ types.Signer, address common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if address != s.address {
				return nil, errors.Errorf("signer for %s cannot sign for %s", s.address.Hex(), address.Hex())
			}
			return types.SignTx(tx, signer, s.key)
		},
	}
}
