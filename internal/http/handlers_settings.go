package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"budget/internal/core"
	"budget/internal/dialog"
	"budget/internal/log"
)

// CurrencyNotificationID is used for every currency change.
const CurrencyNotificationID = "currency-update"

type currencyOptionsView struct {
	Currencies []core.Currency
	Selected   string
	Configured bool
}

func (s *Server) currencyOptions(r *http.Request) (currencyOptionsView, error) {
	settings, configured, err := s.settings.Settings(r.Context())
	if err != nil {
		return currencyOptionsView{}, err
	}
	return currencyOptionsView{
		Currencies: core.Currencies(),
		Selected:   settings.Currency,
		Configured: configured,
	}, nil
}

// handleWizard renders the onboarding page
func (s *Server) handleWizard(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireGET(r); errResp != nil {
		errResp.Write(w)
		return
	}
	view, err := s.currencyOptions(r)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Settings lookup failed", log.FieldError, err)
		InternalServerError("Something went wrong").Write(w)
		return
	}
	s.render(w, r, NewHTMXResponse(), "wizard.html", view)
}

// handleCurrencyOptions renders the currency combo box with the user's selection
func (s *Server) handleCurrencyOptions(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireGET(r); errResp != nil {
		errResp.Write(w)
		return
	}
	view, err := s.currencyOptions(r)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Settings lookup failed", log.FieldError, err)
		InternalServerError("Something went wrong").Write(w)
		return
	}
	s.render(w, r, NewHTMXResponse(), "currency_options", view)
}

// handleSaveCurrency stores the selected currency and re-renders the options
func (s *Server) handleSaveCurrency(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	ctx := r.Context()

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	b := NewHTMXResponse()
	notify := dialog.Fanout{newResponseNotifier(b), userNotifications{registry: s.notifications}}

	c, err := s.settings.UpdateCurrency(ctx, parser.Get("currency"))
	if err != nil {
		if !errors.Is(err, core.ErrUnknownCurrency) {
			s.logger.ErrorContext(ctx, "Currency update failed", log.FieldOperation, log.OpUpdate, log.FieldError, err)
		}
		notify.Notify(ctx, dialog.Notification{ID: CurrencyNotificationID, Kind: dialog.KindError, Message: userMessage(err)})
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrUnknownCurrency) {
			status = http.StatusUnprocessableEntity
		}
		b.Status(status)
	} else {
		atomic.AddInt64(&s.appMetrics.currencyUpdates, 1)
		notify.Notify(ctx, dialog.Notification{ID: CurrencyNotificationID, Kind: dialog.KindSuccess, Message: "Currency set to " + c.Label})
		b.TriggerSettingsUpdated(c)
	}

	view, err := s.currencyOptions(r)
	if err != nil {
		s.logger.ErrorContext(ctx, "Settings lookup failed", log.FieldError, err)
		InternalServerError("Something went wrong").Write(w)
		return
	}
	s.render(w, r, b, "currency_options", view)
}

type amountPreviewView struct {
	Formatted string
	Error     string
}

// handleAmountPreview formats a typed amount in the user's currency
func (s *Server) handleAmountPreview(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireGET(r); errResp != nil {
		errResp.Write(w)
		return
	}
	amount := sanitizeInput(r.URL.Query().Get("amount"))
	if amount == "" {
		s.render(w, r, NewHTMXResponse(), "amount_preview", amountPreviewView{})
		return
	}

	cur, err := s.settings.Currency(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Currency lookup failed", log.FieldError, err)
		InternalServerError("Something went wrong").Write(w)
		return
	}
	cents, err := core.ParseDecimalToCents(amount)
	if err != nil {
		s.render(w, r, NewHTMXResponse().Status(http.StatusUnprocessableEntity), "amount_preview",
			amountPreviewView{Error: "Invalid amount"})
		return
	}
	s.render(w, r, NewHTMXResponse(), "amount_preview", amountPreviewView{Formatted: cur.FormatAmount(cents)})
}
