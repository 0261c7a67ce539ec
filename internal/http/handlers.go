package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

const maxBodySize = 10 << 20

type transactionDTO struct {
	ID              string    `json:"id"`
	Description     string    `json:"description"`
	Amount          string    `json:"amount"`
	FormattedAmount string    `json:"formatted_amount"`
	Category        string    `json:"category"`
	Emoji           string    `json:"emoji"`
	Date            time.Time `json:"date"`
}

type transactionRequest struct {
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
}

type shareDTO struct {
	Category        string `json:"category"`
	Amount          string `json:"amount"`
	FormattedAmount string `json:"formatted_amount"`
	Percentage      string `json:"percentage"`
}

type summaryResponse struct {
	Period        string     `json:"period"`
	MonthOffset   int        `json:"month_offset"`
	Label         string     `json:"label"`
	Start         time.Time  `json:"start"`
	End           time.Time  `json:"end"`
	Income        string     `json:"income"`
	Expenses      string     `json:"expenses"`
	Balance       string     `json:"balance"`
	ExpenseShares []shareDTO `json:"expense_shares"`
	IncomeShares  []shareDTO `json:"income_shares"`
}

type daySectionDTO struct {
	Day          string           `json:"day"`
	Transactions []transactionDTO `json:"transactions"`
}

type groupedResponse struct {
	Period      string           `json:"period"`
	MonthOffset int              `json:"month_offset"`
	Label       string           `json:"label"`
	Upcoming    []transactionDTO `json:"upcoming"`
	Days        []daySectionDTO  `json:"days"`
}

type settingsDTO struct {
	Period      string `json:"period"`
	MonthOffset int    `json:"month_offset"`
	WelcomeSeen bool   `json:"welcome_seen"`
}

type categoryDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Emoji     string `json:"emoji"`
	ColorHex  string `json:"color_hex"`
	IsExpense bool   `json:"is_expense"`
}

func (s *Server) toTransactionDTO(t core.Transaction, custom []core.Category) transactionDTO {
	return transactionDTO{
		ID:              t.ID.String(),
		Description:     t.Description,
		Amount:          t.Amount.String(),
		FormattedAmount: core.FormatAmount(t.Amount, s.locale),
		Category:        t.Category,
		Emoji:           core.EmojiFor(t.Category, custom),
		Date:            t.Date,
	}
}

func (s *Server) toShareDTOs(shares []core.CategoryShare) []shareDTO {
	out := make([]shareDTO, 0, len(shares))
	for _, share := range shares {
		out = append(out, shareDTO{
			Category:        share.Category,
			Amount:          share.Amount.String(),
			FormattedAmount: core.FormatAmount(share.Amount, s.locale),
			Percentage:      share.Percentage.StringFixed(4),
		})
	}
	return out
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	kind, offset, err := s.periodSelection(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := selectionKey(kind, offset)
	summary, cached := s.summaryCache.Get(key)
	if !cached {
		summary, err = s.service.Summary(r.Context(), kind, offset, s.now())
		if err != nil {
			slog.ErrorContext(r.Context(), "Summary error", "error", err, "period", kind, "offset", offset)
			writeError(w, http.StatusInternalServerError, "failed to compute summary")
			return
		}
		s.summaryCache.Set(key, summary)
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Period:        string(summary.Kind),
		MonthOffset:   summary.MonthOffset,
		Label:         summary.Label,
		Start:         summary.Range.Start,
		End:           summary.Range.End,
		Income:        summary.Income.String(),
		Expenses:      summary.Expenses.String(),
		Balance:       summary.Balance.String(),
		ExpenseShares: s.toShareDTOs(summary.ExpenseShares),
		IncomeShares:  s.toShareDTOs(summary.IncomeShares),
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// listTransactions returns the entries inside the selected window, in
// insertion order. ?all=true bypasses the window for exports.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	var transactions []core.Transaction
	var err error

	if r.URL.Query().Get("all") == "true" {
		transactions, err = s.service.ListTransactions(r.Context())
	} else {
		kind, offset, selErr := s.periodSelection(r)
		if selErr != nil {
			writeError(w, http.StatusBadRequest, selErr.Error())
			return
		}
		transactions, err = s.service.TransactionsInRange(r.Context(), kind, offset, s.now())
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	custom, err := s.service.Categories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories error", "error", err)
	}

	out := make([]transactionDTO, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, s.toTransactionDTO(t, custom))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	t, ok := s.decodeTransaction(w, r)
	if !ok {
		return
	}

	saved, err := s.service.AddTransaction(r.Context(), t)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.InvalidateCaches()
	custom, _ := s.service.Categories(r.Context())
	writeJSON(w, http.StatusCreated, s.toTransactionDTO(saved, custom))
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r.URL.Path, "/api/transactions/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := s.service.GetTransaction(r.Context(), id)
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load transaction")
			return
		}
		custom, _ := s.service.Categories(r.Context())
		writeJSON(w, http.StatusOK, s.toTransactionDTO(t, custom))

	case http.MethodPut:
		t, ok := s.decodeTransaction(w, r)
		if !ok {
			return
		}
		t.ID = id
		err := s.service.UpdateTransaction(r.Context(), t)
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.InvalidateCaches()
		custom, _ := s.service.Categories(r.Context())
		writeJSON(w, http.StatusOK, s.toTransactionDTO(t, custom))

	case http.MethodDelete:
		err := s.service.DeleteTransaction(r.Context(), id)
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete transaction")
			return
		}
		s.InvalidateCaches()
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) decodeTransaction(w http.ResponseWriter, r *http.Request) (core.Transaction, bool) {
	var req transactionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return core.Transaction{}, false
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return core.Transaction{}, false
	}

	return core.Transaction{
		Description: req.Description,
		Amount:      amount,
		Category:    req.Category,
		Date:        req.Date,
	}, true
}

func (s *Server) handleGrouped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	kind, offset, err := s.periodSelection(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := selectionKey(kind, offset)
	feed, cached := s.feedCache.Get(key)
	if !cached {
		feed, err = s.service.GroupedTransactions(r.Context(), kind, offset, s.now())
		if err != nil {
			slog.ErrorContext(r.Context(), "Grouped transactions error", "error", err, "period", kind, "offset", offset)
			writeError(w, http.StatusInternalServerError, "failed to group transactions")
			return
		}
		s.feedCache.Set(key, feed)
	}

	custom, _ := s.service.Categories(r.Context())

	resp := groupedResponse{
		Period:      string(kind),
		MonthOffset: offset,
		Label:       core.DescribeRange(kind, s.now(), offset, s.locale),
		Upcoming:    make([]transactionDTO, 0, len(feed.Upcoming)),
		Days:        make([]daySectionDTO, 0, len(feed.Days)),
	}
	for _, t := range feed.Upcoming {
		resp.Upcoming = append(resp.Upcoming, s.toTransactionDTO(t, custom))
	}
	for _, section := range feed.Days {
		dto := daySectionDTO{
			Day:          section.Day.Format("2006-01-02"),
			Transactions: make([]transactionDTO, 0, len(section.Transactions)),
		}
		for _, t := range section.Transactions {
			dto.Transactions = append(dto.Transactions, s.toTransactionDTO(t, custom))
		}
		resp.Days = append(resp.Days, dto)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := s.service.Settings(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load settings")
			return
		}
		writeJSON(w, http.StatusOK, settingsDTO{
			Period:      string(settings.Period),
			MonthOffset: settings.MonthOffset,
			WelcomeSeen: settings.WelcomeSeen,
		})

	case http.MethodPut:
		var dto settingsDTO
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&dto); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		settings := ledger.Settings{
			Period:      core.PeriodKind(dto.Period),
			MonthOffset: dto.MonthOffset,
			WelcomeSeen: dto.WelcomeSeen,
		}
		if err := s.service.SaveSettings(r.Context(), settings); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.InvalidateCaches()
		writeJSON(w, http.StatusOK, dto)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cats, err := s.service.Categories(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list categories")
			return
		}
		out := make([]categoryDTO, 0, len(cats))
		for _, c := range cats {
			out = append(out, categoryDTO{
				ID:        c.ID.String(),
				Name:      c.Name,
				Emoji:     c.Emoji,
				ColorHex:  c.ColorHex,
				IsExpense: c.IsExpense,
			})
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		var dto categoryDTO
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&dto); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		cat := core.Category{
			Name:      dto.Name,
			Emoji:     dto.Emoji,
			ColorHex:  dto.ColorHex,
			IsExpense: dto.IsExpense,
		}
		if dto.ID != "" {
			id, err := uuid.Parse(dto.ID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid category id")
				return
			}
			cat.ID = id
		}
		if err := s.service.SaveCategory(r.Context(), cat); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.InvalidateCaches()
		w.WriteHeader(http.StatusCreated)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleCategoryByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, http.MethodDelete)
		return
	}

	id, ok := idFromPath(r.URL.Path, "/api/categories/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	err := s.service.DeleteCategory(r.Context(), id)
	if errors.Is(err, ledger.ErrNotFound) {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}
	s.InvalidateCaches()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if s.backup == nil {
		writeError(w, http.StatusServiceUnavailable, "backup not configured")
		return
	}

	snap, err := s.backup.Export(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Backup export error", "error", err)
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"created_at":   snap.CreatedAt,
		"transactions": len(snap.Transactions),
		"categories":   len(snap.Categories),
	})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if s.backup == nil {
		writeError(w, http.StatusServiceUnavailable, "backup not configured")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := s.backup.Restore(r.Context(), data); err != nil {
		slog.ErrorContext(r.Context(), "Restore error", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.InvalidateCaches()
	w.WriteHeader(http.StatusNoContent)
}
