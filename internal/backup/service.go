package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

const snapshotVersion = 1

// Uploader pushes an exported snapshot to remote storage. Nil means
// local-only backups.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) error
}

// Snapshot is the portable JSON form of the whole ledger.
type Snapshot struct {
	Version      int                   `json:"version"`
	CreatedAt    time.Time             `json:"created_at"`
	Settings     snapshotSettings      `json:"settings"`
	Transactions []snapshotTransaction `json:"transactions"`
	Categories   []snapshotCategory    `json:"categories"`
}

type snapshotSettings struct {
	Period      string `json:"period"`
	MonthOffset int    `json:"month_offset"`
	WelcomeSeen bool   `json:"welcome_seen"`
}

type snapshotTransaction struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
}

type snapshotCategory struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Emoji     string `json:"emoji"`
	ColorHex  string `json:"color_hex"`
	IsExpense bool   `json:"is_expense"`
}

// Service exports and restores ledger snapshots.
type Service struct {
	store    ledger.Store
	path     string
	uploader Uploader
}

func NewService(store ledger.Store, path string, uploader Uploader) *Service {
	return &Service{store: store, path: path, uploader: uploader}
}

// Export writes the current ledger state to the configured path. The
// file is written to a temp name and renamed so readers never see a
// partial snapshot. When an uploader is configured the snapshot is
// pushed remotely too; a failed upload keeps the local file and
// returns the error.
func (s *Service) Export(ctx context.Context) (Snapshot, error) {
	snap, err := s.buildSnapshot(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return Snapshot{}, fmt.Errorf("create backup directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return Snapshot{}, fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return Snapshot{}, fmt.Errorf("replace snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Backup exported",
		"path", s.path,
		"transactions", len(snap.Transactions),
		"categories", len(snap.Categories))

	if s.uploader != nil {
		name := fmt.Sprintf("bilancio-%s.json", snap.CreatedAt.Format("20060102-150405"))
		if err := s.uploader.Upload(ctx, name, data); err != nil {
			return snap, fmt.Errorf("upload snapshot: %w", err)
		}
		slog.InfoContext(ctx, "Backup uploaded", "name", name)
	}

	return snap, nil
}

// Restore replaces the whole ledger with the snapshot's content.
// The payload is fully validated before anything is written.
func (s *Service) Restore(ctx context.Context, data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	period, err := core.ParsePeriodKind(snap.Settings.Period)
	if err != nil {
		return fmt.Errorf("parse snapshot settings: %w", err)
	}

	transactions := make([]core.Transaction, 0, len(snap.Transactions))
	for i, st := range snap.Transactions {
		t, err := decodeTransaction(st)
		if err != nil {
			return fmt.Errorf("snapshot transaction %d: %w", i, err)
		}
		transactions = append(transactions, t)
	}

	categories := make([]core.Category, 0, len(snap.Categories))
	for i, sc := range snap.Categories {
		id, err := uuid.Parse(sc.ID)
		if err != nil {
			return fmt.Errorf("snapshot category %d: parse id: %w", i, err)
		}
		if sc.Name == "" {
			return fmt.Errorf("snapshot category %d: %w", i, core.ErrEmptyCategory)
		}
		categories = append(categories, core.Category{
			ID:        id,
			Name:      sc.Name,
			Emoji:     sc.Emoji,
			ColorHex:  sc.ColorHex,
			IsExpense: sc.IsExpense,
		})
	}

	if err := s.store.ReplaceAll(ctx, transactions); err != nil {
		return fmt.Errorf("restore transactions: %w", err)
	}
	settings := ledger.Settings{
		Period:      period,
		MonthOffset: snap.Settings.MonthOffset,
		WelcomeSeen: snap.Settings.WelcomeSeen,
	}
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("restore settings: %w", err)
	}
	for _, c := range categories {
		if err := s.store.SaveCategory(ctx, c); err != nil {
			return fmt.Errorf("restore category %s: %w", c.Name, err)
		}
	}

	slog.InfoContext(ctx, "Backup restored",
		"transactions", len(transactions),
		"categories", len(categories))
	return nil
}

// RestoreFile restores from the configured local snapshot path.
func (s *Service) RestoreFile(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	return s.Restore(ctx, data)
}

func (s *Service) buildSnapshot(ctx context.Context) (Snapshot, error) {
	transactions, err := s.store.List(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list transactions: %w", err)
	}
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load settings: %w", err)
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list categories: %w", err)
	}

	snap := Snapshot{
		Version:   snapshotVersion,
		CreatedAt: time.Now().UTC(),
		Settings: snapshotSettings{
			Period:      string(settings.Period),
			MonthOffset: settings.MonthOffset,
			WelcomeSeen: settings.WelcomeSeen,
		},
		Transactions: make([]snapshotTransaction, 0, len(transactions)),
		Categories:   make([]snapshotCategory, 0, len(categories)),
	}
	for _, t := range transactions {
		snap.Transactions = append(snap.Transactions, snapshotTransaction{
			ID:          t.ID.String(),
			Description: t.Description,
			Amount:      t.Amount.String(),
			Category:    t.Category,
			Date:        t.Date,
		})
	}
	for _, c := range categories {
		snap.Categories = append(snap.Categories, snapshotCategory{
			ID:        c.ID.String(),
			Name:      c.Name,
			Emoji:     c.Emoji,
			ColorHex:  c.ColorHex,
			IsExpense: c.IsExpense,
		})
	}
	return snap, nil
}

func decodeTransaction(st snapshotTransaction) (core.Transaction, error) {
	id, err := uuid.Parse(st.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse id: %w", err)
	}
	amount, err := decimal.NewFromString(st.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount: %w", err)
	}
	t := core.Transaction{
		ID:          id,
		Description: st.Description,
		Amount:      amount,
		Category:    st.Category,
		Date:        st.Date,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}
