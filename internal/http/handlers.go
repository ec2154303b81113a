package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tally/internal/core"
	"tally/internal/estimate"
	"tally/internal/export"
	"tally/internal/ledger"
)

const (
	defaultSeriesDays  = 7
	maxSeriesDays      = 366
	defaultRecentLimit = 5
)

// recordPayload is the wire shape for creating records. Amount arrives in
// major units; isIncome is the legacy income signal older clients still send.
type recordPayload struct {
	Description   string         `json:"description"`
	Amount        core.Money     `json:"amount"`
	Currency      string         `json:"currency"`
	Date          core.Date      `json:"date"`
	Category      string         `json:"category"`
	Kind          core.Kind      `json:"kind"`
	IsIncome      bool           `json:"isIncome"`
	Recurring     bool           `json:"recurring"`
	RecurringFreq core.Frequency `json:"recurringFrequency"`
	Tags          []string       `json:"tags"`
	Notes         string         `json:"notes"`
	PaymentMethod string         `json:"paymentMethod"`
	Location      string         `json:"location"`
	Labels        []string       `json:"labels"`
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Records())
}

func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	var p recordPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	input := ledger.RecordInput{
		Description:   sanitizeInput(p.Description),
		Amount:        p.Amount,
		Currency:      strings.ToUpper(strings.TrimSpace(p.Currency)),
		Date:          p.Date,
		Category:      sanitizeInput(p.Category),
		Kind:          p.Kind,
		LegacyIncome:  p.IsIncome,
		Recurring:     p.Recurring,
		RecurringFreq: p.RecurringFreq,
		Tags:          p.Tags,
		Notes:         sanitizeInput(p.Notes),
		PaymentMethod: sanitizeInput(p.PaymentMethod),
		Location:      sanitizeInput(p.Location),
		Labels:        p.Labels,
	}
	if err := validateInput(input); err != nil {
		httpError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	rec := s.ledger.AddRecord(r.Context(), input)
	s.invalidateViews()
	writeJSON(w, http.StatusCreated, rec)
}

// validateInput checks the fields the ledger will not default for us.
func validateInput(input ledger.RecordInput) error {
	probe := core.Record{
		ID:            "pending",
		Description:   input.Description,
		Amount:        input.Amount,
		Currency:      input.Currency,
		Date:          input.Date,
		Category:      input.Category,
		Kind:          input.Kind,
		Recurring:     input.Recurring,
		RecurringFreq: input.RecurringFreq,
	}
	if probe.Date.IsZero() {
		probe.Date = core.DateOf(time.Now())
	}
	if !probe.Kind.IsValid() {
		probe.Kind = core.ClassifyKind(input.Category, input.LegacyIncome)
	}
	return probe.Validate()
}

// patchPayload mirrors ledger.RecordPatch on the wire; absent fields keep
// their prior values.
type patchPayload struct {
	Description   *string         `json:"description"`
	Amount        *core.Money     `json:"amount"`
	Currency      *string         `json:"currency"`
	Date          *core.Date      `json:"date"`
	Category      *string         `json:"category"`
	Kind          *core.Kind      `json:"kind"`
	Recurring     *bool           `json:"recurring"`
	RecurringFreq *core.Frequency `json:"recurringFrequency"`
	Tags          *[]string       `json:"tags"`
	Notes         *string         `json:"notes"`
	PaymentMethod *string         `json:"paymentMethod"`
	Location      *string         `json:"location"`
	Labels        *[]string       `json:"labels"`
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httpError(w, http.StatusBadRequest, "missing record id")
		return
	}

	var p patchPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if p.Amount != nil && p.Amount.Cents <= 0 {
		httpError(w, http.StatusUnprocessableEntity, "amount must be positive")
		return
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		httpError(w, http.StatusUnprocessableEntity, "description cannot be empty")
		return
	}

	s.ledger.UpdateRecord(r.Context(), id, ledger.RecordPatch{
		Description:   p.Description,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Date:          p.Date,
		Category:      p.Category,
		Kind:          p.Kind,
		Recurring:     p.Recurring,
		RecurringFreq: p.RecurringFreq,
		Tags:          p.Tags,
		Notes:         p.Notes,
		PaymentMethod: p.PaymentMethod,
		Location:      p.Location,
		Labels:        p.Labels,
	})
	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httpError(w, http.StatusBadRequest, "missing record id")
		return
	}
	s.ledger.RemoveRecord(r.Context(), id)
	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecentRecords(w http.ResponseWriter, r *http.Request) {
	limit := atoiDefault(r.URL.Query().Get("limit"), defaultRecentLimit)
	if limit < 0 {
		limit = defaultRecentLimit
	}
	writeJSON(w, http.StatusOK, s.ledger.RecentRecords(limit))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="records.csv"`)
	if err := export.WriteCSV(w, s.ledger.Records()); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Categories())
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var p struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	name := sanitizeInput(p.Name)
	if name == "" {
		httpError(w, http.StatusUnprocessableEntity, "category name cannot be empty")
		return
	}
	s.ledger.AddCategory(r.Context(), name)
	writeJSON(w, http.StatusCreated, s.ledger.Categories())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if summary, ok := s.summaryCache.Get("summary"); ok {
		writeJSON(w, http.StatusOK, summary)
		return
	}
	summary := s.ledger.Summary()
	s.summaryCache.Set("summary", summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDailySeries(w http.ResponseWriter, r *http.Request) {
	days := atoiDefault(r.URL.Query().Get("days"), defaultSeriesDays)
	if days < 1 || days > maxSeriesDays {
		httpError(w, http.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d", maxSeriesDays))
		return
	}

	key := "daily-" + strconv.Itoa(days)
	if series, ok := s.seriesCache.Get(key); ok {
		writeJSON(w, http.StatusOK, series)
		return
	}
	series := s.ledger.DailySeries(days)
	s.seriesCache.Set(key, series)
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Settings())
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var p struct {
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(p.Currency))
	if !knownCurrency(s.ledger.Currencies(), code) {
		httpError(w, http.StatusUnprocessableEntity, "unknown currency "+code)
		return
	}
	s.ledger.SetCurrency(r.Context(), code)
	s.invalidateViews()
	writeJSON(w, http.StatusOK, s.ledger.Settings())
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var p struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	lang := strings.TrimSpace(p.Language)
	if lang == "" {
		httpError(w, http.StatusUnprocessableEntity, "language cannot be empty")
		return
	}
	s.ledger.SetLanguage(r.Context(), lang)
	writeJSON(w, http.StatusOK, s.ledger.Settings())
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p struct {
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		Email     *string `json:"email"`
		Phone     *string `json:"phone"`
		Birthdate *string `json:"birthdate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	s.ledger.UpdateProfile(r.Context(), ledger.ProfilePatch{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
		Birthdate: p.Birthdate,
	})
	writeJSON(w, http.StatusOK, s.ledger.Settings().Profile)
}

func (s *Server) handleUpdateTheme(w http.ResponseWriter, r *http.Request) {
	var p struct {
		Background  *string `json:"background"`
		AccentColor *string `json:"accentColor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	s.ledger.UpdateTheme(r.Context(), ledger.ThemePatch{
		Background:  p.Background,
		AccentColor: p.AccentColor,
	})
	writeJSON(w, http.StatusOK, s.ledger.Settings().Theme)
}

func (s *Server) handleToggleNotification(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	value, ok := s.ledger.ToggleNotification(r.Context(), name)
	if !ok {
		httpError(w, http.StatusNotFound, "unknown notification "+name)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "enabled": value})
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var p struct {
		MonthlyBudget core.Money `json:"monthlyBudget"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if p.MonthlyBudget.Cents < 0 {
		httpError(w, http.StatusUnprocessableEntity, "budget cannot be negative")
		return
	}
	s.ledger.SetMonthlyBudget(r.Context(), p.MonthlyBudget)
	writeJSON(w, http.StatusOK, map[string]any{"monthlyBudget": p.MonthlyBudget})
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Currencies())
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := strings.ToUpper(strings.TrimSpace(q.Get("from")))
	to := strings.ToUpper(strings.TrimSpace(q.Get("to")))
	if from == "" || to == "" {
		httpError(w, http.StatusBadRequest, "from and to currencies are required")
		return
	}
	cents, err := core.ParseDecimalToCents(q.Get("amount"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	converted := s.ledger.Convert(core.Money{Cents: cents}, from, to)
	writeJSON(w, http.StatusOK, map[string]any{
		"amount":    core.Money{Cents: cents},
		"from":      from,
		"to":        to,
		"converted": converted,
	})
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	location := strings.TrimSpace(q.Get("location"))
	if location == "" {
		httpError(w, http.StatusBadRequest, "location is required")
		return
	}

	breakdown, err := estimate.Estimate(location, estimate.Template(q.Get("template")))
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"location":  location,
		"index":     estimate.CostIndex(location),
		"breakdown": breakdown,
	})
}

func (s *Server) handleEstimateLocations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, estimate.PopularLocations())
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.forecaster.Predict(s.ledger.CategoryBreakdown()))
}

func (s *Server) handleSavingsTips(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.forecaster.SavingsTips(s.ledger.CategoryBreakdown()))
}

func knownCurrency(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":  http.StatusText(status),
		"detail": msg,
	})
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
