// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package dex

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Hyperliquid authenticates exchange actions with an EIP-712 signature from
// an agent wallet: the action bytes, nonce, and optional vault address are
// hashed into a connection id, wrapped in an Agent typed struct, and signed
// over the exchange's fixed signing domain (chain id 1337, zero contract).
//
// Signing is deterministic (RFC 6979 nonces via go-ethereum), so the same
// action, nonce, and key always produce the same signature.

const signingChainID = 1337

var (
	eip712DomainTypeHash = crypto.Keccak256([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))
	agentTypeHash        = crypto.Keccak256([]byte("Agent(string source,bytes32 connectionId)"))
	domainNameHash       = crypto.Keccak256([]byte("Exchange"))
	domainVersionHash    = crypto.Keccak256([]byte("1"))
)

// Signature is the r/s/v triple in the wire shape the exchange expects.
type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V byte   `json:"v"`
}

// Signer signs Hyperliquid exchange actions with a secp256k1 agent key.
type Signer struct {
	key             *ecdsa.PrivateKey
	address         common.Address
	vault           *common.Address
	source          string
	domainSeparator common.Hash
}

// NewSigner builds a signer from a hex-encoded private key (0x prefix
// optional) and an optional vault address for trading on behalf of a vault.
func NewSigner(privateKeyHex, vaultAddress string, testnet bool) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	s := &Signer{
		key:             key,
		address:         crypto.PubkeyToAddress(key.PublicKey),
		source:          "a",
		domainSeparator: computeDomainSeparator(),
	}
	if testnet {
		s.source = "b"
	}
	if vaultAddress != "" {
		if !common.IsHexAddress(vaultAddress) {
			return nil, fmt.Errorf("invalid vault address %q", vaultAddress)
		}
		v := common.HexToAddress(vaultAddress)
		s.vault = &v
	}
	return s, nil
}

// Address returns the wallet address derived from the signing key. Info
// queries (order status, positions) are scoped to this address unless a
// vault is configured.
func (s *Signer) Address() common.Address { return s.address }

// Vault returns the configured vault address, or nil.
func (s *Signer) Vault() *common.Address { return s.vault }

// SignAction signs the encoded action bytes for the given nonce.
func (s *Signer) SignAction(action []byte, nonce uint64) (*Signature, error) {
	connID := actionHash(action, s.vault, nonce)

	var agentBuf bytes.Buffer
	agentBuf.Write(agentTypeHash)
	agentBuf.Write(crypto.Keccak256([]byte(s.source)))
	agentBuf.Write(connID.Bytes())
	structHash := crypto.Keccak256(agentBuf.Bytes())

	var digestBuf bytes.Buffer
	digestBuf.Write([]byte{0x19, 0x01})
	digestBuf.Write(s.domainSeparator.Bytes())
	digestBuf.Write(structHash)
	digest := crypto.Keccak256(digestBuf.Bytes())

	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign action: %w", err)
	}

	return &Signature{
		R: hexutil.Encode(sig[:32]),
		S: hexutil.Encode(sig[32:64]),
		V: sig[64] + 27,
	}, nil
}

// actionHash computes the connection id: keccak256 over the action bytes,
// the big-endian nonce, and a vault marker byte (0x01 + address when
// trading for a vault, 0x00 otherwise).
func actionHash(action []byte, vault *common.Address, nonce uint64) common.Hash {
	data := make([]byte, 0, len(action)+9+common.AddressLength)
	data = append(data, action...)

	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	data = append(data, nonceBytes[:]...)

	if vault == nil {
		data = append(data, 0x00)
	} else {
		data = append(data, 0x01)
		data = append(data, vault.Bytes()...)
	}
	return common.BytesToHash(crypto.Keccak256(data))
}

// computeDomainSeparator hashes the fixed signing domain. ABI encoding of
// the domain struct is five 32-byte words: type hash, name hash, version
// hash, chain id, verifying contract.
func computeDomainSeparator() common.Hash {
	var buf bytes.Buffer
	buf.Write(eip712DomainTypeHash)
	buf.Write(domainNameHash)
	buf.Write(domainVersionHash)

	var chainID [32]byte
	binary.BigEndian.PutUint64(chainID[24:], signingChainID)
	buf.Write(chainID[:])

	buf.Write(common.LeftPadBytes(common.Address{}.Bytes(), 32))
	return common.BytesToHash(crypto.Keccak256(buf.Bytes()))
}
