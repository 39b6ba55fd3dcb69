package main

import (
	"time"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/keys"
)

const shutdownTimeout = 10 * time.Second

// unconfiguredSource is the default builder.Source wired by this
// binary. The relational database it should front is an external
// collaborator out of scope for this module (spec.md §1); a real
// deployment replaces this with a Source backed by that database.
type unconfiguredSource struct{}

func (unconfiguredSource) CurrentDefine(keys.CotaID) (uint32, uint32, byte, error) {
	return 0, 0, 0, aggerr.Other("no data source configured: wire a builder.Source backed by the registry database")
}

func (unconfiguredSource) CurrentHold(keys.CotaID, keys.TokenIndex) (byte, byte, [20]byte, error) {
	return 0, 0, [20]byte{}, aggerr.Other("no data source configured: wire a builder.Source backed by the registry database")
}

func (unconfiguredSource) CurrentWithdrawal(keys.CotaID, keys.TokenIndex, keys.OutPoint) (uint8, byte, byte, [20]byte, error) {
	return 0, 0, 0, [20]byte{}, aggerr.Other("no data source configured: wire a builder.Source backed by the registry database")
}
