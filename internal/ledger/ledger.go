// Package ledger is the single source of truth for every token balance: an
// immutable append-only transaction log, the tax/wealth-cap rule, and the
// city vault with its welfare policy. Apply pattern (transactional mutation
// guarded by a single mutex, balances cached on the agent as a read-model)
// is grounded on the teacher's tx-scoped internal/persistence/db.go
// Save*-style writes.
package ledger

import (
	"fmt"
	"sync"

	"github.com/aicity/aicity/internal/aicityerr"
)

// Kind is the closed set of transaction kinds.
type Kind uint8

const (
	KindRegistration Kind = iota // one-time newborn credit, exempt from the wealth cap
	KindEarn
	KindTransfer
	KindTax
	KindFine
	KindWelfare
	KindVaultDeposit
	KindVaultWithdrawal
	KindInheritance
	KindBurn
	KindMint
)

func (k Kind) String() string {
	switch k {
	case KindRegistration:
		return "registration"
	case KindEarn:
		return "earn"
	case KindTransfer:
		return "transfer"
	case KindTax:
		return "tax"
	case KindFine:
		return "fine"
	case KindWelfare:
		return "welfare"
	case KindVaultDeposit:
		return "vault_deposit"
	case KindVaultWithdrawal:
		return "vault_withdrawal"
	case KindInheritance:
		return "inheritance"
	case KindBurn:
		return "burn"
	case KindMint:
		return "mint"
	default:
		return "unknown"
	}
}

// AgentID is a local alias kept dependency-free of the agents package so
// ledger can be imported without pulling in the full agent model.
type AgentID uint64

// VaultID is a sentinel "account" used in From/To for vault-facing
// transactions.
const VaultID AgentID = 0

// SinkID is a sentinel "account" for tokens that leave circulation
// entirely — the daily burn's destination. Distinct from VaultID: a
// burned token reduces total_supply directly rather than being credited to
// the vault, per the glossary's "Burn ... to the sink (not the vault)".
const SinkID AgentID = ^AgentID(0)

// Transaction is one immutable entry in the append-only log.
type Transaction struct {
	Seq         uint64  `json:"seq" db:"seq"`
	Day         int     `json:"day" db:"day"`
	Kind        Kind    `json:"kind" db:"kind"`
	From        AgentID `json:"from" db:"from_agent"`
	To          AgentID `json:"to" db:"to_agent"`
	Amount      int64   `json:"amount" db:"amount"`
	TaxWithheld int64   `json:"tax_withheld,omitempty" db:"tax_withheld"`
	Note        string  `json:"note,omitempty" db:"note"`
}

// Ledger holds balances, the vault, and the append-only log behind a single
// mutex: all mutation is single-writer per the concurrency model, so the
// lock only ever protects bookkeeping, never a suspension point.
type Ledger struct {
	mu sync.Mutex

	balances    map[AgentID]int64
	vault       int64
	log         []Transaction
	nextSeq     uint64
	totalSupply int64

	wealthCapFraction float64
	welfareFloor      int64

	// Mint guard (spec §4.3: "requires an authorization token held only by
	// the designated operator" plus a per-period cap). mintAuthToken empty
	// means mint is disabled outright — ConfigureMint must be called first.
	mintAuthToken         string
	mintPeriodDays        int
	mintPeriodCapFraction float64
	mintPeriodStart       int
	mintedInPeriod        int64
}

// New constructs an empty ledger. totalSupply is the starting total token
// supply in circulation+vault, used by the wealth cap and conservation
// invariant; daily burns lower it afterwards and Mint raises it.
func New(totalSupply int64, wealthCapFraction float64, welfareFloor int64) *Ledger {
	return &Ledger{
		balances:          make(map[AgentID]int64),
		vault:             totalSupply,
		totalSupply:       totalSupply,
		wealthCapFraction: wealthCapFraction,
		welfareFloor:      welfareFloor,
	}
}

// ConfigureMint arms the Mint operation with its authorization token and
// per-period cap fraction (nominally 10% of supply per periodDays-long
// month). Unconfigured ledgers (authToken == "" after New) reject every
// Mint call with ErrAuthorizationFailure.
func (l *Ledger) ConfigureMint(authToken string, periodDays int, periodCapFraction float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mintAuthToken = authToken
	l.mintPeriodDays = periodDays
	l.mintPeriodCapFraction = periodCapFraction
}

// Balance returns an agent's current balance (0 for an unknown agent).
func (l *Ledger) Balance(id AgentID) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[id]
}

// Vault returns the current vault balance.
func (l *Ledger) Vault() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.vault
}

// wealthCap returns the maximum balance any single agent may hold.
func (l *Ledger) wealthCap() int64 {
	return int64(float64(l.totalSupply) * l.wealthCapFraction)
}

// Apply records txn atomically: debits From, credits To, appends to the log.
// From==VaultID means the vault is debited; To==VaultID means the vault is
// credited. Registration transactions are exempt from the wealth cap per
// the Open Question decision in DESIGN.md; every other kind is capped.
func (l *Ledger) Apply(txn Transaction) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if txn.Amount < 0 {
		return Transaction{}, fmt.Errorf("ledger: negative amount %d: %w", txn.Amount, aicityerr.ErrInvariantViolation)
	}

	if txn.From != VaultID {
		bal := l.balances[txn.From]
		if bal < txn.Amount {
			return Transaction{}, fmt.Errorf("ledger: agent %d has %d, needs %d: %w", txn.From, bal, txn.Amount, aicityerr.ErrInsufficientFunds)
		}
	} else {
		if l.vault < txn.Amount {
			return Transaction{}, fmt.Errorf("ledger: vault has %d, needs %d: %w", l.vault, txn.Amount, aicityerr.ErrInsufficientFunds)
		}
	}

	if txn.To != VaultID && txn.Kind != KindRegistration {
		projected := l.balances[txn.To] + txn.Amount
		if cap := l.wealthCap(); cap > 0 && projected > cap {
			return Transaction{}, fmt.Errorf("ledger: agent %d would exceed wealth cap (%d > %d): %w", txn.To, projected, cap, aicityerr.ErrInvariantViolation)
		}
	}

	if txn.From != VaultID {
		l.balances[txn.From] -= txn.Amount
	} else {
		l.vault -= txn.Amount
	}
	if txn.To != VaultID {
		l.balances[txn.To] += txn.Amount
	} else {
		l.vault += txn.Amount
	}

	l.nextSeq++
	txn.Seq = l.nextSeq
	l.log = append(l.log, txn)
	return txn, nil
}

// Circulating returns the sum of all agent balances. Circulating+Vault must
// always equal the current TotalSupply (conservation invariant).
func (l *Ledger) Circulating() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sum int64
	for _, b := range l.balances {
		sum += b
	}
	return sum
}

// TotalSupply returns the current total supply: the supply this ledger was
// constructed with, less everything burned and plus everything minted.
func (l *Ledger) TotalSupply() int64 { return l.totalSupply }

// CheckConservation verifies circulating+vault == total supply, returning
// ErrInvariantViolation on mismatch.
func (l *Ledger) CheckConservation() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sum int64
	for _, b := range l.balances {
		sum += b
	}
	if sum+l.vault != l.totalSupply {
		return fmt.Errorf("ledger: circulating(%d)+vault(%d) != total(%d): %w", sum, l.vault, l.totalSupply, aicityerr.ErrInvariantViolation)
	}
	return nil
}

// Log returns a copy of the full transaction log, for replay/persistence.
func (l *Ledger) Log() []Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Transaction, len(l.log))
	copy(out, l.log)
	return out
}

// Replay rebuilds balances and vault purely from a transaction log, used by
// the persistence round-trip test and by cold-start resume validation.
func Replay(totalSupply int64, wealthCapFraction float64, welfareFloor int64, txns []Transaction) (*Ledger, error) {
	l := New(totalSupply, wealthCapFraction, welfareFloor)
	for _, t := range txns {
		switch t.Kind {
		case KindBurn:
			// Burn destroys supply at the sink rather than moving it through
			// Apply's vault-facing bookkeeping; replicate that directly.
			l.mu.Lock()
			l.balances[t.From] -= t.Amount
			l.totalSupply -= t.Amount
			l.nextSeq++
			l.log = append(l.log, Transaction{Seq: l.nextSeq, Day: t.Day, Kind: t.Kind, From: t.From, To: t.To, Amount: t.Amount, Note: t.Note})
			l.mu.Unlock()
		case KindMint:
			l.mu.Lock()
			l.totalSupply += t.Amount
			l.vault += t.Amount
			l.nextSeq++
			l.log = append(l.log, Transaction{Seq: l.nextSeq, Day: t.Day, Kind: t.Kind, From: t.From, To: t.To, Amount: t.Amount, Note: t.Note})
			l.mu.Unlock()
		default:
			seq := t.Seq
			t.Seq = 0 // Apply assigns its own sequence
			if _, err := l.Apply(t); err != nil {
				return nil, fmt.Errorf("ledger: replay seq %d: %w", seq, err)
			}
		}
	}
	return l, nil
}

// Mint increases total_supply and credits the vault by amount, guarded by
// an authorization token and a per-period cap (nominally 10% of supply per
// rolling mintPeriodDays), per spec §4.3's mint(amount, authorized_by).
// Unlike every other ledger operation, Mint is the only one permitted to
// change total_supply upward; §3's Vault invariant holds because
// circulating is untouched.
func (l *Ledger) Mint(day int, amount int64, authorizedBy string) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount <= 0 {
		return Transaction{}, fmt.Errorf("ledger: mint amount must be positive: %w", aicityerr.ErrInvariantViolation)
	}
	if l.mintAuthToken == "" || authorizedBy != l.mintAuthToken {
		return Transaction{}, fmt.Errorf("ledger: mint rejected, bad authorization: %w", aicityerr.ErrAuthorizationFailure)
	}

	if l.mintPeriodDays > 0 && day-l.mintPeriodStart >= l.mintPeriodDays {
		l.mintPeriodStart = day
		l.mintedInPeriod = 0
	}
	if cap := int64(float64(l.totalSupply) * l.mintPeriodCapFraction); cap > 0 && l.mintedInPeriod+amount > cap {
		return Transaction{}, fmt.Errorf("ledger: mint of %d would exceed the period cap (%d already minted, cap %d): %w", amount, l.mintedInPeriod, cap, aicityerr.ErrInvariantViolation)
	}

	l.totalSupply += amount
	l.vault += amount
	l.mintedInPeriod += amount

	l.nextSeq++
	txn := Transaction{Seq: l.nextSeq, Day: day, Kind: KindMint, From: VaultID, To: VaultID, Amount: amount, Note: "mint authorized by " + authorizedBy}
	l.log = append(l.log, txn)
	return txn, nil
}

// Earn credits agent with work income, withholding a tax fraction that
// stays in the vault, and enforcing the 5%-of-total_supply wealth cap by
// clamping the credited net to exactly fit the cap rather than rejecting
// the whole transaction — the unpaid excess is discarded, never minted or
// refunded, per spec §4.3.
func (l *Ledger) Earn(day int, agent AgentID, gross int64, taxRate float64, reason string) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if gross <= 0 {
		return Transaction{}, fmt.Errorf("ledger: earn amount must be positive: %w", aicityerr.ErrInvariantViolation)
	}

	tax := int64(float64(gross) * taxRate)
	net := gross - tax
	if net < 0 {
		net = 0
	}

	if cap := l.wealthCap(); cap > 0 {
		room := cap - l.balances[agent]
		if room < 0 {
			room = 0
		}
		if net > room {
			net = room
		}
	}
	if net > l.vault {
		net = l.vault
	}
	if net <= 0 {
		return Transaction{}, fmt.Errorf("ledger: agent %d has no room left to earn: %w", agent, aicityerr.ErrInsufficientFunds)
	}

	l.vault -= net
	l.balances[agent] += net

	l.nextSeq++
	txn := Transaction{Seq: l.nextSeq, Day: day, Kind: KindEarn, From: VaultID, To: agent, Amount: net, TaxWithheld: tax, Note: reason}
	l.log = append(l.log, txn)
	return txn, nil
}

// Fine transfers amount from criminal to the vault, clamped to whatever
// balance the agent actually has, per spec's fine(criminal, amount).
func (l *Ledger) Fine(day int, criminal AgentID, amount int64) (Transaction, error) {
	l.mu.Lock()
	bal := l.balances[criminal]
	l.mu.Unlock()
	if amount > bal {
		amount = bal
	}
	if amount <= 0 {
		return Transaction{}, fmt.Errorf("ledger: agent %d has nothing left to fine: %w", criminal, aicityerr.ErrInsufficientFunds)
	}
	return l.Apply(Transaction{Day: day, Kind: KindFine, From: criminal, To: VaultID, Amount: amount, Note: "conviction fine"})
}

// WelfareFloor returns the configured minimum balance the daily welfare
// policy tops agents up to, when the vault can afford it.
func (l *Ledger) WelfareFloor() int64 { return l.welfareFloor }

// ApplyDailyWelfare tops up every agent in ids below WelfareFloor, paid from
// the vault, stopping once the vault is exhausted. Returns the transactions
// applied, in agent order, so callers can emit corresponding events.
func (l *Ledger) ApplyDailyWelfare(day int, ids []AgentID) []Transaction {
	var applied []Transaction
	for _, id := range ids {
		l.mu.Lock()
		bal := l.balances[id]
		floor := l.welfareFloor
		vault := l.vault
		l.mu.Unlock()

		if bal >= floor {
			continue
		}
		need := floor - bal
		if need > vault {
			need = vault
		}
		if need <= 0 {
			continue
		}
		txn, err := l.Apply(Transaction{Day: day, Kind: KindWelfare, From: VaultID, To: id, Amount: need, Note: "daily welfare top-up"})
		if err == nil {
			applied = append(applied, txn)
		}
	}
	return applied
}

// ApplyDailyBurn debits amount from every id and destroys it at the sink,
// clamped to whatever balance the agent actually has so a burn never
// drives a balance negative — an agent whose balance cannot cover the full
// burn pays what it has and is left at zero, the trigger the
// starvation/death check in the tick scheduler looks for. Unlike every
// other debit in this ledger, the burned amount is credited to neither the
// agent nor the vault: total_supply shrinks by the same amount instead, so
// the conservation invariant (circulating+vault==total_supply) still holds.
func (l *Ledger) ApplyDailyBurn(day int, ids []AgentID, amount int64) []Transaction {
	var applied []Transaction
	for _, id := range ids {
		l.mu.Lock()
		bal := l.balances[id]
		if bal <= 0 {
			l.mu.Unlock()
			continue
		}
		amt := amount
		if amt > bal {
			amt = bal
		}
		l.balances[id] -= amt
		l.totalSupply -= amt
		l.nextSeq++
		txn := Transaction{Seq: l.nextSeq, Day: day, Kind: KindBurn, From: id, To: SinkID, Amount: amt, Note: "daily subsistence burn"}
		l.log = append(l.log, txn)
		l.mu.Unlock()
		applied = append(applied, txn)
	}
	return applied
}
