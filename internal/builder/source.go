package builder

import "github.com/xiaolou86/cota-aggregator/internal/keys"

// Source is the external input-source collaborator a builder consults
// for a leaf's current plaintext fields. The SMT only ever stores a
// leaf's hash, so recovering a Define leaf's (total_supply, issued)
// or a Hold/Withdraw leaf's (configure, state, characteristic) to
// build the next value requires a side channel outside the tree.
// spec.md §1 scopes the backing relational database out of the core
// ("used only as an input source for deriving leaf sets... contain no
// hard engineering"); Source models exactly that boundary as an
// interface the builders depend on. Wiring a concrete implementation
// against the aggregator's SQL store is out of scope here.
type Source interface {
	// CurrentDefine returns a cota_id's current (total_supply, issued, configure).
	CurrentDefine(cotaID keys.CotaID) (totalSupply, issued uint32, configure byte, err error)

	// CurrentHold returns an NFT's current (configure, state, characteristic)
	// as recorded by its Hold leaf.
	CurrentHold(cotaID keys.CotaID, index keys.TokenIndex) (configure, state byte, characteristic [20]byte, err error)

	// CurrentWithdrawal returns a withdrawn NFT's (configure, state,
	// characteristic) and the version (0 or 1) its Withdraw leaf key
	// was derived under, so Claim/Transfer-family builders can locate
	// and reconstruct the correct historical withdrawal record.
	CurrentWithdrawal(cotaID keys.CotaID, index keys.TokenIndex, outPoint keys.OutPoint) (version uint8, configure, state byte, characteristic [20]byte, err error)
}
