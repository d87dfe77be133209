package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"sierravault/internal/core/domain"
	"sierravault/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, tx pgx.Tx, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("email already exists")
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) ExistsByContact(ctx context.Context, email, telephone string, nationalID *string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email || u.Telephone == telephone {
			return true, nil
		}
		if nationalID != nil && u.NationalID != nil && *u.NationalID == *nationalID {
			return true, nil
		}
	}
	return false, nil
}

// --- In-Memory Vault Repo ---

type inMemoryVaultRepo struct {
	mu     sync.RWMutex
	vaults map[uuid.UUID]*domain.Vault
}

func newInMemoryVaultRepo() *inMemoryVaultRepo {
	return &inMemoryVaultRepo{vaults: make(map[uuid.UUID]*domain.Vault)}
}

func (r *inMemoryVaultRepo) Create(ctx context.Context, tx pgx.Tx, v *domain.Vault) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vaults[v.ID] = v
	return nil
}

func (r *inMemoryVaultRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Vault, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.vaults {
		if v.UserID == userID {
			return v, nil
		}
	}
	return nil, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[w.ID] = w
	return nil
}

func (r *inMemoryWalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.UserID == userID {
			return w, nil
		}
	}
	return nil, nil
}

// --- In-Memory Document Repo ---

type inMemoryDocumentRepo struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*domain.Document
}

func newInMemoryDocumentRepo() *inMemoryDocumentRepo {
	return &inMemoryDocumentRepo{docs: make(map[uuid.UUID]*domain.Document)}
}

func (r *inMemoryDocumentRepo) Create(ctx context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

func (r *inMemoryDocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	return d, nil
}

func (r *inMemoryDocumentRepo) ListByVault(ctx context.Context, vaultID uuid.UUID) ([]domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Document
	for _, d := range r.docs {
		if d.VaultID == vaultID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

// --- In-Memory Proof Repo ---

type inMemoryProofRepo struct {
	mu     sync.RWMutex
	proofs map[uuid.UUID]*domain.Proof
}

func newInMemoryProofRepo() *inMemoryProofRepo {
	return &inMemoryProofRepo{proofs: make(map[uuid.UUID]*domain.Proof)}
}

func (r *inMemoryProofRepo) Create(ctx context.Context, p *domain.Proof) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.proofs {
		if existing.DocumentID == p.DocumentID && existing.Fingerprint == p.Fingerprint {
			return fmt.Errorf("proof already exists for document and fingerprint")
		}
	}
	cp := *p
	r.proofs[p.ID] = &cp
	return nil
}

func (r *inMemoryProofRepo) GetByDocumentAndFingerprint(ctx context.Context, documentID uuid.UUID, fingerprint string) (*domain.Proof, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.proofs {
		if p.DocumentID == documentID && p.Fingerprint == fingerprint {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryProofRepo) GetPendingByDocument(ctx context.Context, documentID uuid.UUID) (*domain.Proof, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.proofs {
		if p.DocumentID == documentID && p.Status == domain.ProofStatusPending {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryProofRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.Proof, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Proof
	for _, p := range r.proofs {
		if p.DocumentID == documentID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *inMemoryProofRepo) ListByFingerprint(ctx context.Context, fingerprint string) ([]domain.Proof, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Proof
	for _, p := range r.proofs {
		if p.Fingerprint == fingerprint {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *inMemoryProofRepo) Confirm(ctx context.Context, id uuid.UUID, verifiedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.proofs[id]
	if !ok || p.Status != domain.ProofStatusPending {
		return fmt.Errorf("no pending proof with id %s", id)
	}
	p.Status = domain.ProofStatusConfirmed
	vt := verifiedAt
	p.VerifiedAt = &vt
	return nil
}

// --- In-Memory Document Store ---

type inMemoryDocumentStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func newInMemoryDocumentStore() *inMemoryDocumentStore {
	return &inMemoryDocumentStore{objects: make(map[string][]byte)}
}

func (s *inMemoryDocumentStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *inMemoryDocumentStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// --- Fake Ledger ---

// fakeLedger is a deterministic in-process notarization ledger. Every
// submission is accepted and immediately final. It records submissions so
// tests can assert how many transactions actually went out.
type fakeLedger struct {
	mu          sync.Mutex
	submissions []ports.LedgerSubmission
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{}
}

func (l *fakeLedger) Submit(ctx context.Context, sub ports.LedgerSubmission) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.submissions = append(l.submissions, sub)
	return fmt.Sprintf("tx%d", len(l.submissions)), nil
}

func (l *fakeLedger) Confirm(ctx context.Context, txID string, timeout time.Duration) error {
	return nil
}

func (l *fakeLedger) submissionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.submissions)
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}
func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
