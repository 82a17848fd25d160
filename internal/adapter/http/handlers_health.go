package adapthttp

import (
	"net/http"
	"strings"

	"wearables/internal/app"
	"wearables/internal/domain"
)

type measuredValue struct {
	Unit  string        `json:"unit"`
	Value domain.Metric `json:"value"`
}

type ingestPayload struct {
	// Field matching is case-insensitive, so "recordKey" is accepted too.
	RecordKey string `json:"recordkey"`
	Data      *struct {
		Memo    string `json:"memo"`
		Entries []struct {
			Period *struct {
				From string `json:"from"`
				To   string `json:"to"`
			} `json:"period"`
			Distance *measuredValue `json:"distance"`
			Calories *measuredValue `json:"calories"`
			Steps    domain.Metric  `json:"steps"`
		} `json:"entries"`
	} `json:"data"`
}

func (p ingestPayload) toRequest() (app.IngestRequest, error) {
	if p.Data == nil {
		return app.IngestRequest{}, domain.ErrInvalidInput.New("data is required")
	}
	req := app.IngestRequest{RecordKey: p.RecordKey, Memo: p.Data.Memo}
	for _, e := range p.Data.Entries {
		in := app.EntryInput{Steps: e.Steps}
		if e.Period != nil {
			in.From, in.To = e.Period.From, e.Period.To
		}
		if e.Distance != nil {
			in.Distance = e.Distance.Value
		}
		if e.Calories != nil {
			in.Calories = e.Calories.Value
		}
		req.Entries = append(req.Entries, in)
	}
	return req, nil
}

type dailyView struct {
	RecordKey string  `json:"recordKey"`
	Date      string  `json:"date"`
	Steps     int64   `json:"steps"`
	Calories  float64 `json:"calories"`
	Distance  float64 `json:"distance"`
}

func toDailyView(d domain.DailySummary) dailyView {
	return dailyView{
		RecordKey: d.RecordKey,
		Date:      d.Date.Format(domain.DateLayout),
		Steps:     d.Steps,
		Calories:  d.Calories,
		Distance:  d.Distance,
	}
}

type monthlyView struct {
	RecordKey string  `json:"recordKey"`
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	YearMonth string  `json:"yearMonth"`
	Steps     int64   `json:"steps"`
	Calories  float64 `json:"calories"`
	Distance  float64 `json:"distance"`
}

func toMonthlyView(m domain.MonthlySummary) monthlyView {
	return monthlyView{
		RecordKey: m.RecordKey,
		Year:      m.Year,
		Month:     m.Month,
		YearMonth: m.YearMonth.String(),
		Steps:     m.Steps,
		Calories:  m.Calories,
		Distance:  m.Distance,
	}
}

// recordKeyFor resolves the record key a request operates on. Authenticated
// callers default to, and are restricted to, their own key.
func recordKeyFor(r *http.Request, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	account := accountFrom(r.Context())
	if account == nil {
		if requested == "" {
			return "", domain.ErrRecordKeyInvalid.New("recordKey is required")
		}
		return requested, nil
	}
	if requested == "" {
		return account.RecordKey, nil
	}
	if requested != account.RecordKey {
		return "", domain.ErrForbidden.New(requested)
	}
	return requested, nil
}

func (s *Server) handleHealthData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var payload ingestPayload
	if err := parseDeviceJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		writeError(w, err)
		return
	}
	if req.RecordKey, err = recordKeyFor(r, req.RecordKey); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.ingest.Ingest(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	failures := res.Failures
	if failures == nil {
		failures = []app.EntryFailure{}
	}
	writeOK(w, http.StatusCreated, "health data saved", map[string]any{
		"recordKey":  res.RecordKey,
		"savedCount": res.SavedCount,
		"totalCount": res.TotalCount,
		"failures":   failures,
	})
}

func (s *Server) handleDailyList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	key, err := recordKeyFor(r, q.Get("recordKey"))
	if err != nil {
		writeError(w, err)
		return
	}

	var rng *domain.DateRange
	start, end := q.Get("startDate"), q.Get("endDate")
	switch {
	case start != "" && end != "":
		from, err := dateParam("startDate", start)
		if err != nil {
			writeError(w, err)
			return
		}
		to, err := dateParam("endDate", end)
		if err != nil {
			writeError(w, err)
			return
		}
		rng = &domain.DateRange{Start: from, End: to}
	case start != "" || end != "":
		writeError(w, domain.ErrInvalidInput.New("startDate and endDate must be given together"))
		return
	}

	items, err := s.query.ListDaily(r.Context(), key, rng)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]dailyView, 0, len(items))
	for _, d := range items {
		out = append(out, toDailyView(d))
	}
	writeOK(w, http.StatusOK, "ok", out)
}

func (s *Server) handleDailyGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	key, err := recordKeyFor(r, r.URL.Query().Get("recordKey"))
	if err != nil {
		writeError(w, err)
		return
	}
	date, err := dateParam("date", r.PathValue("date"))
	if err != nil {
		writeError(w, err)
		return
	}

	d, found, err := s.query.GetDaily(r.Context(), key, date)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeOK(w, http.StatusOK, "no data for this date", nil)
		return
	}
	writeOK(w, http.StatusOK, "ok", toDailyView(*d))
}

func (s *Server) handleMonthlyList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	key, err := recordKeyFor(r, q.Get("recordKey"))
	if err != nil {
		writeError(w, err)
		return
	}

	var year *int
	if v := q.Get("year"); v != "" {
		y, err := intParam("year", v)
		if err != nil {
			writeError(w, err)
			return
		}
		year = &y
	}

	items, err := s.query.ListMonthly(r.Context(), key, year)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]monthlyView, 0, len(items))
	for _, m := range items {
		out = append(out, toMonthlyView(m))
	}
	writeOK(w, http.StatusOK, "ok", out)
}

func (s *Server) handleMonthlyGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	key, err := recordKeyFor(r, r.URL.Query().Get("recordKey"))
	if err != nil {
		writeError(w, err)
		return
	}
	year, err := intParam("year", r.PathValue("year"))
	if err != nil {
		writeError(w, err)
		return
	}
	month, err := intParam("month", r.PathValue("month"))
	if err != nil {
		writeError(w, err)
		return
	}

	m, found, err := s.query.GetMonthly(r.Context(), key, domain.YearMonth{Year: year, Month: month})
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeOK(w, http.StatusOK, "no data for this month", nil)
		return
	}
	writeOK(w, http.StatusOK, "ok", toMonthlyView(*m))
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	key, err := recordKeyFor(r, r.URL.Query().Get("recordKey"))
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.aggregation.Run(r.Context(), key)
	if err != nil {
		s.logFailure("recompute", err)
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "summaries recomputed", map[string]any{
		"recordKey": key,
		"days":      res.Days,
		"months":    res.Months,
	})
}
