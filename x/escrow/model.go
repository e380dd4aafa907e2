package escrow

import (
	"encoding/binary"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/orm"
)

const (
	// ProgramName owns all addresses derived by this extension and
	// prefixes every message path.
	ProgramName = "escrow"

	escrowSeed         = "escrow"
	queueAuthoritySeed = "queue_authority"
)

// Escrow is a pending trade. It is stored under its derived address.
type Escrow struct {
	Metadata *weft.Metadata `json:"metadata"`
	// Seed allows a maker to have more than one escrow.
	Seed      uint64        `json:"seed"`
	Maker     weft.Address  `json:"maker"`
	MintA     weft.Address  `json:"mint_a"`
	MintB     weft.Address  `json:"mint_b"`
	Receive   uint64        `json:"receive"`
	Expiry    weft.UnixTime `json:"expiry"`
	CreatedAt weft.UnixTime `json:"created_at"`
	Bump      uint32        `json:"bump"`
	Address   weft.Address  `json:"address"`
	// TaskID is the ID of the refund task.
	TaskID uint32 `json:"task_id"`
}

var _ orm.Model = (*Escrow)(nil)

func (e *Escrow) Marshal() ([]byte, error) {
	return weft.MarshalModel(e)
}

func (e *Escrow) Unmarshal(raw []byte) error {
	return weft.UnmarshalModel(raw, e)
}

func (e *Escrow) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", e.Metadata.Validate())
	errs = errors.AppendField(errs, "Maker", e.Maker.Validate())
	errs = errors.AppendField(errs, "MintA", e.MintA.Validate())
	errs = errors.AppendField(errs, "MintB", e.MintB.Validate())
	if e.Receive == 0 {
		errs = errors.AppendField(errs, "Receive", errors.ErrAmount)
	}
	errs = errors.AppendField(errs, "Expiry", e.Expiry.Validate())
	errs = errors.AppendField(errs, "CreatedAt", e.CreatedAt.Validate())
	if e.Bump > 255 {
		errs = errors.AppendField(errs, "Bump", errors.ErrInput)
	}
	errs = errors.AppendField(errs, "Address", e.Address.Validate())
	return errs
}

// seeds returns the seeds the escrow address is derived from.
func (e *Escrow) seeds() [][]byte {
	return escrowSeeds(e.Maker, e.Seed)
}

func escrowSeeds(maker weft.Address, seed uint64) [][]byte {
	le := make([]byte, 8)
	binary.LittleEndian.PutUint64(le, seed)
	return [][]byte{[]byte(escrowSeed), maker, le}
}

// FindEscrowAddress returns the address and the bump of the escrow that the
// maker creates with given seed.
func FindEscrowAddress(maker weft.Address, seed uint64) (weft.Address, uint8, error) {
	return weft.FindDerivedAddress(ProgramName, escrowSeeds(maker, seed)...)
}

// FindQueueAuthority returns the address and the bump of the authority
// that queues refund tasks. This address must be an authority of the
// configured task queue.
func FindQueueAuthority() (weft.Address, uint8, error) {
	return weft.FindDerivedAddress(ProgramName, []byte(queueAuthoritySeed))
}

// NewBucket returns a bucket storing escrows under their address, indexed
// by the maker.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("escrow", &Escrow{},
		orm.WithIndex("maker", makerIndex, false))
}

func makerIndex(m orm.Model) ([]byte, error) {
	e, ok := m.(*Escrow)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return e.Maker, nil
}

// RegisterQuery will register this bucket as "/escrows"
func RegisterQuery(qr weft.QueryRouter) {
	NewBucket().Register("escrows", qr)
}
