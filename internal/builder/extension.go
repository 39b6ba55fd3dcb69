package builder

import (
	"context"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/codec"
	"github.com/xiaolou86/cota-aggregator/internal/keys"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// ExtensionItem is a raw subkey/value pair hashed into an Extension
// leaf -- used for out-of-band metadata (issuer info, joyid metadata,
// and similar subkeys) that doesn't fit the NFT lifecycle proper.
type ExtensionItem struct {
	Subkey []byte
	Value  []byte
}

// ExtensionRequest applies N generic Extension leaves (spec.md §4.4
// "Extension").
type ExtensionRequest struct {
	LockScript []byte
	Items      []ExtensionItem
}

// Extension hashes and writes each (subkey, value) pair under the
// Extension domain tag.
func (d *Deps) Extension(ctx context.Context, req ExtensionRequest) (Result, error) {
	if len(req.Items) == 0 {
		return Result{}, aggerr.ParamNotFound("extensions")
	}

	acc := smt.AccountID(req.LockScript)
	tree, blockNumber, unlock, err := d.prepare(ctx, acc)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	extKeys := make([]smt.Hash, 0, len(req.Items))
	extValues := make([]smt.Hash, 0, len(req.Items))
	touched := make([]smt.Pair, 0, len(req.Items))

	for _, item := range req.Items {
		k := keys.ExtensionKey(item.Subkey)
		v := keys.ExtensionValue(item.Value)
		tree.Update(k, v)
		touched = append(touched, smt.Pair{Key: k, Value: v})
		extKeys = append(extKeys, k)
		extValues = append(extValues, v)
	}

	root, err := d.commit(acc, tree, touched)
	if err != nil {
		return Result{}, err
	}

	proof := compileProof(tree, extKeys)
	entry := codec.EncodeExtensionEntries(codec.ExtensionEntries{
		Keys:   extKeys,
		Values: extValues,
		Proof:  proof,
		Action: codec.CountAction("Extension ", uint32(len(req.Items)), " entries"),
	})

	return Result{Root: root, Entry: entry, BlockNumber: blockNumber}, nil
}
