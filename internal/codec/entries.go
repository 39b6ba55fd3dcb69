// Package codec implements the Entries Codec: the deterministic,
// fixed-layout binary serializer that turns an operation builder's
// proof and touched leaves into the "entries" blob an on-chain
// verifier replays. This layout is an external contract -- spec.md
// §4.5 and §9 require
// it to be byte-exact, since a verifier outside this process parses
// it -- so every field here keeps a fixed width and a fixed position.
package codec

import (
	"encoding/binary"

	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// vector appends a 4-byte little-endian item count followed by the
// already-packed item bytes, the length-prefixed-vector convention
// spec.md §4.5 calls for.
func vector(itemCount int, items []byte) []byte {
	buf := make([]byte, 0, 4+len(items))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(itemCount))
	return append(buf, items...)
}

func hashVector(hs []smt.Hash) []byte {
	items := make([]byte, 0, len(hs)*32)
	for _, h := range hs {
		items = append(items, h[:]...)
	}
	return vector(len(hs), items)
}

func byteVector(b []byte) []byte {
	return vector(len(b), b)
}

// assemble lays out fields as a molecule-style table: a header of
// one 4-byte little-endian absolute offset per field, followed by the
// field payloads themselves in the same order.
func assemble(fields [][]byte) []byte {
	headerLen := 4 * len(fields)
	out := make([]byte, headerLen)
	offset := uint32(headerLen)
	body := make([]byte, 0, 256)
	for i, f := range fields {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], offset)
		body = append(body, f...)
		offset += uint32(len(f))
	}
	return append(out, body...)
}

// ClaimInfo is the (configure, state, characteristic) structure
// carried for each NFT a claim-family operation touches.
type ClaimInfo struct {
	Configure      byte
	State          byte
	Characteristic [20]byte
}

func (c ClaimInfo) bytes() []byte {
	buf := make([]byte, 0, 22)
	buf = append(buf, c.Configure, c.State)
	return append(buf, c.Characteristic[:]...)
}

func claimInfoVector(infos []ClaimInfo) []byte {
	items := make([]byte, 0, len(infos)*22)
	for _, c := range infos {
		items = append(items, c.bytes()...)
	}
	return vector(len(infos), items)
}

// VersionedClaimInfo is a ClaimInfo tagged with the withdrawal version
// it claims against, the shape TransferUpdate's claim_infos field
// uses.
type VersionedClaimInfo struct {
	Info    ClaimInfo
	Version byte
}

func (c VersionedClaimInfo) bytes() []byte {
	return append(c.Info.bytes(), c.Version)
}

func versionedClaimInfoVector(infos []VersionedClaimInfo) []byte {
	items := make([]byte, 0, len(infos)*23)
	for _, c := range infos {
		items = append(items, c.bytes()...)
	}
	return vector(len(infos), items)
}

// DefineEntries is the entries blob for a Define operation: one leaf,
// its proof, and the action label.
type DefineEntries struct {
	Key    smt.Hash
	Value  smt.Hash
	Proof  []byte
	Action []byte
}

// EncodeDefineEntries serializes a DefineEntries blob.
func EncodeDefineEntries(e DefineEntries) []byte {
	return assemble([][]byte{
		hashVector([]smt.Hash{e.Key}),
		hashVector([]smt.Hash{e.Value}),
		byteVector(e.Proof),
		byteVector(e.Action),
	})
}

// MintEntries is the entries blob for a Mint operation: the new
// Withdraw v1 leaves created for each minted NFT, the updated Define
// leaf, their shared proof, and the action label.
type MintEntries struct {
	WithdrawalKeys   []smt.Hash
	WithdrawalValues []smt.Hash
	DefineKey        smt.Hash
	DefineValue      smt.Hash
	Proof            []byte
	Action           []byte
}

// EncodeMintEntries serializes a MintEntries blob.
func EncodeMintEntries(e MintEntries) []byte {
	return assemble([][]byte{
		hashVector(e.WithdrawalKeys),
		hashVector(e.WithdrawalValues),
		hashVector([]smt.Hash{e.DefineKey}),
		hashVector([]smt.Hash{e.DefineValue}),
		byteVector(e.Proof),
		byteVector(e.Action),
	})
}

// WithdrawEntries is the entries blob for a Withdraw operation: the
// Hold leaves cleared and the Withdraw v1 leaves created in their
// place, with a shared proof and action label.
type WithdrawEntries struct {
	HoldKeys         []smt.Hash
	WithdrawalKeys   []smt.Hash
	WithdrawalValues []smt.Hash
	Proof            []byte
	Action           []byte
}

// EncodeWithdrawEntries serializes a WithdrawEntries blob.
func EncodeWithdrawEntries(e WithdrawEntries) []byte {
	return assemble([][]byte{
		hashVector(e.HoldKeys),
		hashVector(e.WithdrawalKeys),
		hashVector(e.WithdrawalValues),
		byteVector(e.Proof),
		byteVector(e.Action),
	})
}

// ClaimEntries is the entries blob for a Claim operation: the new Hold
// leaves and Claim leaves in the claimant's tree (proven by Proof),
// paired with the Withdraw leaves zeroed in the sender's tree (proven
// by WithdrawalProof), per the shape src/entries/claim.rs builds.
type ClaimEntries struct {
	HoldKeys        []smt.Hash
	HoldValues      []smt.Hash
	ClaimKeys       []smt.Hash
	ClaimValues     []smt.Hash
	Proof           []byte
	WithdrawalProof []byte
	Action          []byte
}

// EncodeClaimEntries serializes a ClaimEntries blob.
func EncodeClaimEntries(e ClaimEntries) []byte {
	return assemble([][]byte{
		hashVector(e.HoldKeys),
		hashVector(e.HoldValues),
		hashVector(e.ClaimKeys),
		hashVector(e.ClaimValues),
		byteVector(e.Proof),
		byteVector(e.WithdrawalProof),
		byteVector(e.Action),
	})
}

// UpdateEntries is the entries blob for an Update operation: the Hold
// leaves rewritten to their new (state, characteristic), proof, and
// action label.
type UpdateEntries struct {
	HoldKeys   []smt.Hash
	HoldValues []smt.Hash
	Proof      []byte
	Action     []byte
}

// EncodeUpdateEntries serializes an UpdateEntries blob.
func EncodeUpdateEntries(e UpdateEntries) []byte {
	return assemble([][]byte{
		hashVector(e.HoldKeys),
		hashVector(e.HoldValues),
		byteVector(e.Proof),
		byteVector(e.Action),
	})
}

// TransferEntries is the entries blob for a Transfer operation: the
// new Claim leaves in the claimant's tree (Proof), paired with the old
// Withdraw leaf zeroed and the new Withdraw v1 leaf created in the
// sender's tree (WithdrawalProof). Unlike Claim, Transfer does not
// create a Hold leaf for the claimant.
type TransferEntries struct {
	ClaimKeys        []smt.Hash
	ClaimValues      []smt.Hash
	WithdrawalKeys   []smt.Hash
	WithdrawalValues []smt.Hash
	Proof            []byte
	WithdrawalProof  []byte
	Action           []byte
}

// EncodeTransferEntries serializes a TransferEntries blob.
func EncodeTransferEntries(e TransferEntries) []byte {
	return assemble([][]byte{
		hashVector(e.ClaimKeys),
		hashVector(e.ClaimValues),
		hashVector(e.WithdrawalKeys),
		hashVector(e.WithdrawalValues),
		byteVector(e.Proof),
		byteVector(e.WithdrawalProof),
		byteVector(e.Action),
	})
}

// ClaimUpdateEntries is the entries blob for a ClaimUpdate operation:
// like ClaimEntries, but the hold values and the claim entries are
// carried as ClaimInfo structures holding the caller-supplied updated
// (state, characteristic), rather than as hashed hold values and
// sentinel claim values, matching src/smt/claim_update.rs.
type ClaimUpdateEntries struct {
	HoldKeys        []smt.Hash
	HoldValues      []ClaimInfo
	ClaimKeys       []smt.Hash
	ClaimInfos      []ClaimInfo
	Proof           []byte
	WithdrawalProof []byte
	Action          []byte
}

// EncodeClaimUpdateEntries serializes a ClaimUpdateEntries blob.
func EncodeClaimUpdateEntries(e ClaimUpdateEntries) []byte {
	return assemble([][]byte{
		hashVector(e.HoldKeys),
		claimInfoVector(e.HoldValues),
		hashVector(e.ClaimKeys),
		claimInfoVector(e.ClaimInfos),
		byteVector(e.Proof),
		byteVector(e.WithdrawalProof),
		byteVector(e.Action),
	})
}

// TransferUpdateEntries is the entries blob for a TransferUpdate
// operation: the new Claim leaves (tagged with the withdrawal version
// they claim against) and the Withdraw v1 leaves created in the
// sender's tree, matching src/smt/transfer_update.rs.
type TransferUpdateEntries struct {
	ClaimKeys        []smt.Hash
	ClaimInfos       []VersionedClaimInfo
	WithdrawalKeys   []smt.Hash
	WithdrawalValues []smt.Hash
	Proof            []byte
	WithdrawalProof  []byte
	Action           []byte
}

// EncodeTransferUpdateEntries serializes a TransferUpdateEntries blob.
func EncodeTransferUpdateEntries(e TransferUpdateEntries) []byte {
	return assemble([][]byte{
		hashVector(e.ClaimKeys),
		versionedClaimInfoVector(e.ClaimInfos),
		hashVector(e.WithdrawalKeys),
		hashVector(e.WithdrawalValues),
		byteVector(e.Proof),
		byteVector(e.WithdrawalProof),
		byteVector(e.Action),
	})
}

// ExtensionEntries is the entries blob for an Extension operation:
// caller-supplied raw key/value blobs (already hashed into SMT leaves
// by the caller), proof, and action label.
type ExtensionEntries struct {
	Keys   []smt.Hash
	Values []smt.Hash
	Proof  []byte
	Action []byte
}

// EncodeExtensionEntries serializes an ExtensionEntries blob.
func EncodeExtensionEntries(e ExtensionEntries) []byte {
	return assemble([][]byte{
		hashVector(e.Keys),
		hashVector(e.Values),
		byteVector(e.Proof),
		byteVector(e.Action),
	})
}
