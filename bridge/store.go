package bridge

import (
	"log"

	"goassetbridge/types"
)

// Store is the durability sink behind the in-memory state. The bridge
// mutates memory first and writes through; a nil store is valid (the
// bridge then runs non-durable, which is what tests do).
type Store interface {
	SaveTransaction(tx *types.BridgeTransaction) error
	MarkProofConsumed(proof string) error
	SaveValidationRecord(rec *types.ValidationRecord) error
	SaveProposal(p *types.BridgeProposal, prevStatus string) error
	AppendAuditEvent(ev *types.AuditEvent) error
	SaveSnapshot(s *types.BridgeSnapshot) error
	LoadState() (*types.RestoredState, error)
}

// write-through helpers; a failed write is logged but does not fail the
// operation, the snapshot worker re-persists counters on its next tick

func (b *Bridge) persistTransaction(tx *types.BridgeTransaction) {
	if b.store == nil {
		return
	}
	if err := b.store.SaveTransaction(tx); err != nil {
		log.Printf("error persisting bridge transaction %d: %s", tx.Nonce, err.Error())
	}
}

func (b *Bridge) persistProof(proof string) {
	if b.store == nil {
		return
	}
	if err := b.store.MarkProofConsumed(proof); err != nil {
		log.Printf("error persisting consumed proof %s: %s", proof, err.Error())
	}
}

func (b *Bridge) persistValidation(rec *types.ValidationRecord) {
	if b.store == nil {
		return
	}
	if err := b.store.SaveValidationRecord(rec); err != nil {
		log.Printf("error persisting validation record %s: %s", rec.Key, err.Error())
	}
}

func (b *Bridge) persistProposal(p *types.BridgeProposal, prevStatus string) {
	if b.store == nil {
		return
	}
	if err := b.store.SaveProposal(p, prevStatus); err != nil {
		log.Printf("error persisting proposal %s: %s", p.ID, err.Error())
	}
}

func (b *Bridge) emit(ev *types.AuditEvent) {
	if b.store == nil {
		return
	}
	if err := b.store.AppendAuditEvent(ev); err != nil {
		log.Printf("error appending audit event %s: %s", ev.Type, err.Error())
	}
}

func (b *Bridge) persistSnapshot() {
	if b.store == nil {
		return
	}
	if err := b.store.SaveSnapshot(b.snapshotLocked()); err != nil {
		log.Printf("error persisting bridge snapshot: %s", err.Error())
	}
}
